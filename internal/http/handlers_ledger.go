package http

import (
	"net/http"
	"time"

	"banchi/internal/core"
	applog "banchi/internal/log"
	"banchi/internal/services"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError(msgNotFound).Write(w)
		return
	}
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
	}
	income, expense, err := s.ledger.Records(r.Context(), sess)
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Records failed", applog.FieldSessionID, sess.ID, applog.FieldError, err)
	}

	data := pageData{
		Title:        s.opts.Title,
		Banner:       s.opts.BannerImage,
		DatesEnabled: s.opts.DatesEnabled,
		Today:        core.DateOf(time.Now()).String(),
		Categories:   core.IncomeCategories,
		Summary:      newSummaryView(sum),
		Records:      newRecordsView(income, expense, s.opts.DatesEnabled),
	}
	if s.opts.DatesEnabled {
		st, err := s.ledger.Statement(r.Context(), sess, core.Date{}, core.Date{})
		data.Statement = newStatementView(st)
		if err != nil {
			data.Statement.Message = core.ReasonOf(err)
		}
	}

	s.render(w, r, "index.html", data)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}
	sess, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	form := services.IncomeForm{
		Category: body.Get("category"),
		Amount:   body.Get("amount"),
	}
	if s.opts.DatesEnabled {
		form.Date = body.Get("date")
	}

	rec, err := s.ledger.SubmitIncome(r.Context(), sess, form)
	if err != nil {
		if s.renderValidation(w, err) {
			return
		}
		s.requestLogger(r).ErrorContext(r.Context(), "Income append failed", applog.FieldSessionID, sess.ID, applog.FieldError, err)
		InternalServerError(msgSaveFailed).Write(w)
		return
	}

	msg := admittedMessage(core.KindIncome, rec.Category, rec.Amount)
	SuccessResponse(msg).
		TriggerLedgerChanged(core.KindIncome).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}
	sess, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	form := services.ExpenseForm{
		Description: body.Get("description"),
		Amount:      body.Get("amount"),
	}
	if s.opts.DatesEnabled {
		form.Date = body.Get("date")
	}

	rec, err := s.ledger.SubmitExpense(r.Context(), sess, form)
	if err != nil {
		if s.renderValidation(w, err) {
			return
		}
		s.requestLogger(r).ErrorContext(r.Context(), "Expense append failed", applog.FieldSessionID, sess.ID, applog.FieldError, err)
		InternalServerError(msgSaveFailed).Write(w)
		return
	}

	msg := admittedMessage(core.KindExpense, rec.Description, rec.Amount)
	SuccessResponse(msg).
		TriggerLedgerChanged(core.KindExpense).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		Write(w)
}
