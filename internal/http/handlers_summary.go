package http

import (
	"net/http"

	applog "banchi/internal/log"
)

// handleSummary renders the totals partial.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sess, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	sum, err := s.ledger.Summary(r.Context(), sess)
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Summary failed", applog.FieldSessionID, sess.ID, applog.FieldError, err)
		InternalServerError(msgLoadFailed).Write(w)
		return
	}
	s.render(w, r, "summary", newSummaryView(sum))
}

// handleRecords renders both collections in insertion order.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sess, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	income, expense, err := s.ledger.Records(r.Context(), sess)
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Records failed", applog.FieldSessionID, sess.ID, applog.FieldError, err)
		InternalServerError(msgLoadFailed).Write(w)
		return
	}
	s.render(w, r, "records", newRecordsView(income, expense, s.opts.DatesEnabled))
}
