package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-desk/internal/audit"
)

// journalChanSize is the buffer size for the async journal channel.
// Entries beyond this are dropped so a slow disk never stalls a Go.
const journalChanSize = 256

// journal enqueues an operator action for asynchronous write (best-effort).
// If the channel is full the entry is dropped and a warning is logged.
func (s *Server) journal(action, entityType, entityID string, details map[string]any) {
	if s.journalRepo == nil || s.journalCh == nil {
		return
	}

	entry := &audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Source:     audit.SourceAPI,
		Details:    details,
	}

	select {
	case s.journalCh <- entry:
	default:
		s.journalDropped.Add(1)
		s.logger.Warn("journal channel full, dropping entry",
			"action", action,
			"entity_type", entityType,
		)
	}
}

// drainJournal writes queued entries serially until ctx is cancelled,
// then flushes whatever is still buffered.
func (s *Server) drainJournal(ctx context.Context) {
	for {
		select {
		case entry := <-s.journalCh:
			s.writeJournal(entry)
		case <-ctx.Done():
			s.flushJournal()
			return
		}
	}
}

// flushJournal writes every buffered entry without blocking.
func (s *Server) flushJournal() {
	for {
		select {
		case entry := <-s.journalCh:
			s.writeJournal(entry)
		default:
			return
		}
	}
}

func (s *Server) writeJournal(entry *audit.Entry) {
	if err := s.journalRepo.Create(context.Background(), entry); err != nil {
		s.logger.Error("journal write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}

// handleListJournal returns paginated journal entries, newest first.
//
// Query parameters:
//   - action: go, release, release_all, policy, save, delete, import
//   - entity_type: cue, cue_list, playback
//   - entity_id: e.g. "1/5" for cue 5 of list 1
//   - source: api, mqtt, show
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	if s.journalRepo == nil {
		writeInternalError(w, "operator journal not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Source:     q.Get("source"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.journalRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list journal", "error", err)
		writeInternalError(w, "failed to list journal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// cueEntityID formats a cue reference as "list/cue".
func cueEntityID(listNumber, cueNumber int) string {
	return strconv.Itoa(listNumber) + "/" + strconv.Itoa(cueNumber)
}
