package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"banchi/internal/core"
	applog "banchi/internal/log"
	"banchi/internal/report"
	"banchi/internal/session"
)

// statement resolves the session and builds the statement for the query's
// range. empty carries the reason when the ledger has no dated records to
// default a bound from. ok is false when a response was already written.
func (s *Server) statement(w http.ResponseWriter, r *http.Request) (st core.Statement, empty string, ok bool) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return st, "", false
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return st, "", false
	}
	params, err := ParseRangeParams(r.Form)
	if err != nil {
		s.renderValidation(w, err)
		return st, "", false
	}
	sess, ok := s.resolveSession(w, r)
	if !ok {
		return st, "", false
	}
	st, err = s.ledger.Statement(r.Context(), sess, params.From, params.To)
	switch {
	case errors.Is(err, core.ErrEmptyRangeInput):
		return st, core.ReasonOf(err), true
	case err != nil:
		s.loadFailed(w, r, sess, err)
		return st, "", false
	}
	return st, "", true
}

func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	s.requestLogger(r).ErrorContext(r.Context(), "Statement failed", applog.FieldSessionID, sess.ID, applog.FieldError, err)
	InternalServerError(msgLoadFailed).Write(w)
}

// handleStatement renders the filtered, date-sorted table partial. An empty
// ledger renders the partial with the empty-range message.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	st, empty, ok := s.statement(w, r)
	if !ok {
		return
	}
	view := newStatementView(st)
	view.Message = empty
	s.render(w, r, "statement", view)
}

// handleChart returns the chart series for the range as JSON.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	st, empty, ok := s.statement(w, r)
	if !ok {
		return
	}
	payload := newChartPayload(st)
	payload.Message = empty
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Chart encoding failed", applog.FieldError, err)
	}
}

// handleStatementPDF renders the range as a PDF download.
func (s *Server) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	st, empty, ok := s.statement(w, r)
	if !ok {
		return
	}
	if empty != "" {
		UnprocessableEntityError(empty).Write(w)
		return
	}

	var buf bytes.Buffer
	opts := report.Options{Title: s.opts.Title, FontPath: s.opts.PDFFontPath, GeneratedAt: time.Now()}
	if opts.FontPath == "" {
		opts.Title = ""
	}
	if err := report.WriteStatement(&buf, st, opts); err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Statement PDF failed",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		InternalServerError(msgReportFailed).Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(st)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
