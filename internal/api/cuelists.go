package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-desk/internal/audit"
	"github.com/nerrad567/gray-logic-desk/internal/cue"
)

// handleListCueLists returns every stored cue list in number order.
func (s *Server) handleListCueLists(w http.ResponseWriter, r *http.Request) {
	lists := s.shows.ListCueLists(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"cue_lists": lists, "count": len(lists)})
}

// handleGetCueList returns a single cue list document.
func (s *Server) handleGetCueList(w http.ResponseWriter, r *http.Request) {
	number, ok := numberParam(w, r, "list")
	if !ok {
		return
	}

	list, err := s.shows.GetCueList(r.Context(), number)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handlePutCueList creates or replaces a cue list from a cue list document.
// The document's cue_list_number must match the URL.
func (s *Server) handlePutCueList(w http.ResponseWriter, r *http.Request) {
	number, ok := numberParam(w, r, "list")
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	list, err := cue.DecodeCueList(body)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list.Number != number {
		writeBadRequest(w, fmt.Sprintf("cue_list_number %d does not match URL %d", list.Number, number))
		return
	}

	if err := s.shows.SaveCueList(r.Context(), list); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("cue list saved", "cue_list", number, "cues", list.Len())
	s.journal(audit.ActionSave, audit.EntityCueList, strconv.Itoa(number), map[string]any{"cues": list.Len()})
	writeJSON(w, http.StatusOK, list)
}

// handleDeleteCueList removes a cue list. Running cues are unaffected.
func (s *Server) handleDeleteCueList(w http.ResponseWriter, r *http.Request) {
	number, ok := numberParam(w, r, "list")
	if !ok {
		return
	}

	if err := s.shows.DeleteCueList(r.Context(), number); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("cue list deleted", "cue_list", number)
	s.journal(audit.ActionDelete, audit.EntityCueList, strconv.Itoa(number), nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetCue returns a single cue document.
func (s *Server) handleGetCue(w http.ResponseWriter, r *http.Request) {
	listNumber, cueNumber, ok := cueParams(w, r)
	if !ok {
		return
	}

	c, err := s.shows.GetCue(r.Context(), listNumber, cueNumber)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handlePutCue creates or replaces one cue. The list is created if missing.
func (s *Server) handlePutCue(w http.ResponseWriter, r *http.Request) {
	listNumber, cueNumber, ok := cueParams(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	c, err := cue.DecodeCue(body)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if c.Number != cueNumber {
		writeBadRequest(w, fmt.Sprintf("cue_number %d does not match URL %d", c.Number, cueNumber))
		return
	}

	if err := s.shows.SaveCue(r.Context(), listNumber, c); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("cue saved", "cue_list", listNumber, "cue", cueNumber, "channels", c.Len())
	s.journal(audit.ActionSave, audit.EntityCue, cueEntityID(listNumber, cueNumber), map[string]any{"channels": c.Len()})
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCue removes one cue from its list.
func (s *Server) handleDeleteCue(w http.ResponseWriter, r *http.Request) {
	listNumber, cueNumber, ok := cueParams(w, r)
	if !ok {
		return
	}

	if err := s.shows.DeleteCue(r.Context(), listNumber, cueNumber); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("cue deleted", "cue_list", listNumber, "cue", cueNumber)
	s.journal(audit.ActionDelete, audit.EntityCue, cueEntityID(listNumber, cueNumber), nil)
	w.WriteHeader(http.StatusNoContent)
}

// numberParam parses an integer URL parameter, writing a 400 on failure.
func numberParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid %s number %q", name, raw))
		return 0, false
	}
	return n, true
}

// cueParams parses the {list} and {cue} URL parameters.
func cueParams(w http.ResponseWriter, r *http.Request) (listNumber, cueNumber int, ok bool) {
	if listNumber, ok = numberParam(w, r, "list"); !ok {
		return 0, 0, false
	}
	if cueNumber, ok = numberParam(w, r, "cue"); !ok {
		return 0, 0, false
	}
	return listNumber, cueNumber, true
}

// readBody reads the request body, writing a 400 if it cannot be read or
// exceeds the body size limit.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		writeBadRequest(w, "request body is required")
		return nil, false
	}
	return body, true
}
