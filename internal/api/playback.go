package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-desk/internal/audit"
	"github.com/nerrad567/gray-logic-desk/internal/cue"
)

// policyRequest is the body of PUT /policy.
type policyRequest struct {
	Policy string `json:"policy"`
}

// handleGo starts a cue. The cue's fades begin on the next tick.
func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	listNumber, cueNumber, ok := cueParams(w, r)
	if !ok {
		return
	}

	id, err := s.engine.Go(r.Context(), listNumber, cueNumber)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.journal(audit.ActionGo, audit.EntityCue, cueEntityID(listNumber, cueNumber),
		map[string]any{"activation_id": id})
	writeJSON(w, http.StatusAccepted, map[string]any{
		"activation_id": id,
		"cue_list":      listNumber,
		"cue":           cueNumber,
	})
}

// handleListRunning returns the running cues, oldest first.
func (s *Server) handleListRunning(w http.ResponseWriter, _ *http.Request) {
	running := s.engine.Running()
	writeJSON(w, http.StatusOK, map[string]any{"running": running, "count": len(running)})
}

// handleReleaseAll cancels every running cue. Channels hold their levels.
func (s *Server) handleReleaseAll(w http.ResponseWriter, _ *http.Request) {
	n := s.engine.ReleaseAll()
	s.journal(audit.ActionReleaseAll, audit.EntityPlayback, "", map[string]any{"released": n})
	writeJSON(w, http.StatusOK, map[string]any{"released": n})
}

// handleReleaseCue cancels every running instance of one cue number in
// every cue list. Releasing a cue that is not running is not an error.
func (s *Server) handleReleaseCue(w http.ResponseWriter, r *http.Request) {
	cueNumber, ok := numberParam(w, r, "cue")
	if !ok {
		return
	}
	n := s.engine.Release(cueNumber)
	s.journal(audit.ActionRelease, audit.EntityCue, strconv.Itoa(cueNumber), map[string]any{"released": n})
	writeJSON(w, http.StatusOK, map[string]any{"cue": cueNumber, "released": n})
}

// handleGetUniverse returns the current output level of every channel.
func (s *Server) handleGetUniverse(w http.ResponseWriter, _ *http.Request) {
	levels := s.engine.Levels()
	writeJSON(w, http.StatusOK, map[string]any{
		"size":     len(levels),
		"tick":     s.engine.TickCount(),
		"channels": levels,
	})
}

// handleGetPolicy returns the active merge policy.
func (s *Server) handleGetPolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, policyRequest{Policy: s.engine.Policy().String()})
}

// handlePutPolicy switches the merge policy. It takes effect on the next tick.
func (s *Server) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	p, err := cue.ParsePolicy(req.Policy)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.engine.SetPolicy(p)
	s.journal(audit.ActionPolicy, audit.EntityPlayback, "", map[string]any{"policy": p.String()})
	s.logger.Info("merge policy set", "policy", p.String())
	writeJSON(w, http.StatusOK, policyRequest{Policy: p.String()})
}
