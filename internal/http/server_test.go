package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"banchi/internal/core"
	"banchi/internal/ledger/memory"
	applog "banchi/internal/log"
	"banchi/internal/metrics"
	"banchi/internal/services"
	"banchi/internal/session"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	sessions := session.NewManager(memory.Factory{}, session.Config{}, opts.Metrics, nil)
	svc := services.NewLedgerService(nil, opts.Metrics, nil)
	srv := NewServer(":0", sessions, svc, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

// browser keeps the session cookie between requests like a real client.
type browser struct {
	t       *testing.T
	srv     *Server
	cookies []*http.Cookie
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.srv.Handler.ServeHTTP(rr, req)
	if set := rr.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rr
}

func income(category, amount, date string) url.Values {
	return url.Values{"category": {category}, "amount": {amount}, "date": {date}}
}

func expense(description, amount, date string) url.Values {
	return url.Values{"description": {description}, "amount": {amount}, "date": {date}}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, Options{DatesEnabled: true})
	b := &browser{t: t, srv: srv}

	rr := b.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{defaultTitle, "ค่าหนังสือเรียน", `name="date"`, "/static/banner.svg"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if len(b.cookies) != 1 || b.cookies[0].Name != session.DefaultCookieName || !b.cookies[0].HttpOnly {
		t.Fatalf("session cookie not set: %+v", b.cookies)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := b.do(http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	if rr := b.do(http.MethodGet, "/missing", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
	if rr := b.do(http.MethodGet, "/static/style.css", nil); rr.Code != http.StatusOK {
		t.Fatalf("static status=%d", rr.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, Options{BannerImage: "https://cdn.example.org/school.png"})
	rr := (&browser{t: t, srv: srv}).do(http.MethodGet, "/", nil)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "https://cdn.example.org") {
		t.Errorf("CSP does not allow banner origin: %s", csp)
	}
	if strings.Contains(rr.Body.String(), `name="date"`) {
		t.Error("date field rendered with dates disabled")
	}
}

func TestLedgerScenario(t *testing.T) {
	srv := newTestServer(t, Options{})
	b := &browser{t: t, srv: srv}

	rr := b.do(http.MethodPost, "/income", income("ค่าหนังสือเรียน", "500.00", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("income status=%d body=%s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{EventLedgerChanged, EventFormReset, EventShowNotification} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger missing %s: %s", want, trigger)
		}
	}
	if !strings.Contains(rr.Body.String(), "เพิ่มรายรับ") || !strings.Contains(rr.Body.String(), "500.00") {
		t.Errorf("unexpected success body: %s", rr.Body.String())
	}

	summary := b.do(http.MethodGet, "/ui/summary", nil).Body.String()
	if !strings.Contains(summary, "500.00 บาท") {
		t.Fatalf("summary after income: %s", summary)
	}

	if rr := b.do(http.MethodPost, "/expenses", expense("กระดาษ A4", "120.50", "")); rr.Code != http.StatusOK {
		t.Fatalf("expense status=%d body=%s", rr.Code, rr.Body.String())
	}
	summary = b.do(http.MethodGet, "/ui/summary", nil).Body.String()
	if !strings.Contains(summary, "120.50 บาท") || !strings.Contains(summary, "379.50 บาท") {
		t.Fatalf("summary after expense: %s", summary)
	}

	rr = b.do(http.MethodPost, "/expenses", expense("", "50.00", ""))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty description status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), core.ReasonMissingDescription) {
		t.Fatalf("rejection body: %s", rr.Body.String())
	}
	if after := b.do(http.MethodGet, "/ui/summary", nil).Body.String(); after != summary {
		t.Fatalf("rejected expense changed the summary:\n%s\n%s", summary, after)
	}

	records := b.do(http.MethodGet, "/ui/records", nil).Body.String()
	if !strings.Contains(records, "กระดาษ A4") || !strings.Contains(records, "ค่าหนังสือเรียน") {
		t.Fatalf("records partial: %s", records)
	}
}

func TestSubmissionValidation(t *testing.T) {
	srv := newTestServer(t, Options{DatesEnabled: true})
	b := &browser{t: t, srv: srv}

	tests := []struct {
		name   string
		path   string
		form   url.Values
		reason string
	}{
		{"zero amount", "/income", income("ค่าหนังสือเรียน", "0", ""), core.ReasonAmountNotPositive},
		{"negative amount", "/expenses", expense("x", "-5", ""), core.ReasonAmountNotPositive},
		{"non numeric", "/expenses", expense("x", "abc", ""), core.ReasonAmountMalformed},
		{"unknown category", "/income", income("อื่นๆ", "10", ""), core.ReasonMissingCategory},
		{"bad amount beats bad category", "/income", income("", "0", ""), core.ReasonAmountNotPositive},
		{"malformed date", "/expenses", expense("x", "10", "31/12/2025"), core.ReasonDateMalformed},
		{"year one date", "/income", income("ค่าหนังสือเรียน", "10", "0001-01-01"), core.ReasonDateMalformed},
		{"exponent amount", "/income", income("ค่าหนังสือเรียน", "1e3", ""), core.ReasonAmountMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := b.do(http.MethodPost, tt.path, tt.form)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.reason) {
				t.Fatalf("body %q lacks reason %q", rr.Body.String(), tt.reason)
			}
		})
	}

	if rr := b.do(http.MethodGet, "/income", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /income status=%d", rr.Code)
	}
	if !strings.Contains(b.do(http.MethodGet, "/ui/summary", nil).Body.String(), "0.00 บาท") {
		t.Fatal("rejections changed the ledger")
	}
}

func TestJSONSubmission(t *testing.T) {
	srv := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/income", strings.NewReader(`{"category":"ค่าอุปกรณ์การเรียน","amount":"1,200.5"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "1,200.50") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	bad := httptest.NewRequest(http.MethodPost, "/income", strings.NewReader(`{"amount":`))
	bad.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, bad)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON status=%d", rr.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, Options{})
	alice := &browser{t: t, srv: srv}
	bob := &browser{t: t, srv: srv}

	alice.do(http.MethodPost, "/income", income("ค่าหนังสือเรียน", "500", ""))
	if got := bob.do(http.MethodGet, "/ui/summary", nil).Body.String(); strings.Contains(got, "500.00") {
		t.Fatalf("second browser sees first browser's ledger: %s", got)
	}
	if got := alice.do(http.MethodGet, "/ui/summary", nil).Body.String(); !strings.Contains(got, "500.00") {
		t.Fatalf("first browser lost its ledger: %s", got)
	}
	if srv.sessions.Len() != 2 {
		t.Fatalf("sessions = %d, want 2", srv.sessions.Len())
	}
}

func TestStatementRange(t *testing.T) {
	srv := newTestServer(t, Options{DatesEnabled: true})
	b := &browser{t: t, srv: srv}

	rr := b.do(http.MethodGet, "/ui/statement", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), core.ReasonEmptyRange) {
		t.Fatalf("empty ledger statement: %d %s", rr.Code, rr.Body.String())
	}
	if rr := b.do(http.MethodGet, "/statement.pdf", nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty ledger pdf status=%d", rr.Code)
	}

	b.do(http.MethodPost, "/income", income("ค่าหนังสือเรียน", "500", "2025-06-03"))
	b.do(http.MethodPost, "/expenses", expense("กระดาษ A4", "120.50", "2025-06-01"))
	b.do(http.MethodPost, "/income", income("ค่าจัดการเรียนการสอน", "100", "2025-06-02"))
	b.do(http.MethodPost, "/expenses", expense("ไม่ระบุวันที่", "10", ""))

	rr = b.do(http.MethodGet, "/api/chart", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("chart status=%d", rr.Code)
	}
	var chart chartPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &chart); err != nil {
		t.Fatalf("chart JSON: %v", err)
	}
	if chart.From != "2025-06-01" || chart.To != "2025-06-03" || len(chart.Points) != 3 {
		t.Fatalf("chart = %+v", chart)
	}
	wantKinds := []string{"expense", "income", "income"}
	for i, p := range chart.Points {
		if p.Kind != wantKinds[i] {
			t.Fatalf("point %d kind = %s, want %s", i, p.Kind, wantKinds[i])
		}
	}
	if chart.Balance != 479.5 {
		t.Fatalf("chart balance = %v", chart.Balance)
	}

	rr = b.do(http.MethodGet, "/ui/statement?from=2025-06-02&to=2025-06-03", nil)
	body := rr.Body.String()
	if strings.Contains(body, "กระดาษ A4") || !strings.Contains(body, "ค่าจัดการเรียนการสอน") {
		t.Fatalf("filtered statement: %s", body)
	}
	if !strings.Contains(body, "/statement.pdf?from=2025-06-02&amp;to=2025-06-03") {
		t.Fatalf("pdf link missing: %s", body)
	}

	rr = b.do(http.MethodGet, "/ui/statement?from=2025-06-05&to=2025-06-01", nil)
	if rr.Code != http.StatusOK || strings.Contains(rr.Body.String(), "ค่าหนังสือเรียน") {
		t.Fatalf("inverted range should be empty: %s", rr.Body.String())
	}

	if rr := b.do(http.MethodGet, "/ui/statement?from=yesterday", nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed range status=%d", rr.Code)
	}

	rr = b.do(http.MethodGet, "/statement.pdf?from=2025-06-01&to=2025-06-30", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("pdf status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("not a PDF: %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "banchi-statement-2025-06-01-to-2025-06-30.pdf") {
		t.Fatalf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}
}

func TestDateRoutesDisabled(t *testing.T) {
	srv := newTestServer(t, Options{})
	b := &browser{t: t, srv: srv}
	for _, path := range []string{"/ui/statement", "/api/chart", "/statement.pdf"} {
		if rr := b.do(http.MethodGet, path, nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s status=%d, want 404", path, rr.Code)
		}
	}
}

func TestRateLimitOnSubmissions(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 1})
	b := &browser{t: t, srv: srv}

	if rr := b.do(http.MethodPost, "/expenses", expense("a", "1", "")); rr.Code != http.StatusOK {
		t.Fatalf("first submission status=%d", rr.Code)
	}
	rr := b.do(http.MethodPost, "/expenses", expense("b", "1", ""))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second submission status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
	if rr := b.do(http.MethodGet, "/ui/summary", nil); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status=%d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.New()
	srv := newTestServer(t, Options{Metrics: rec})
	b := &browser{t: t, srv: srv}

	b.do(http.MethodPost, "/income", income("ค่าหนังสือเรียน", "5", ""))
	b.do(http.MethodPost, "/income", income("ค่าหนังสือเรียน", "0", ""))

	rr := b.do(http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`banchi_records_admitted_total{kind="income"} 1`,
		`banchi_records_rejected_total{kind="income",reason="invalid amount"} 1`,
		`banchi_active_sessions 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestReadyReportsBackendFailure(t *testing.T) {
	srv := newTestServer(t, Options{Ready: func(context.Context) error { return context.DeadlineExceeded }})
	rr := (&browser{t: t, srv: srv}).do(http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestReadyReportsStoredSessions(t *testing.T) {
	srv := newTestServer(t, Options{StoredSessions: func(context.Context) (int64, error) { return 3, nil }})
	rr := (&browser{t: t, srv: srv}).do(http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"stored":3`) {
		t.Fatalf("readyz status=%d body=%s", rr.Code, rr.Body.String())
	}

	srv = newTestServer(t, Options{StoredSessions: func(context.Context) (int64, error) { return 0, errors.New("database is closed") }})
	rr = (&browser{t: t, srv: srv}).do(http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), "database is closed") {
		t.Fatalf("readyz status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMalformedQueryRejected(t *testing.T) {
	srv := newTestServer(t, Options{DatesEnabled: true})
	rr := (&browser{t: t, srv: srv}).do(http.MethodGet, "/ui/statement?from=%zz", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

// rangeInputValue returns what the range form would submit for name.
func rangeInputValue(t *testing.T, page, name string) string {
	t.Helper()
	input := regexp.MustCompile(`<input type="date" name="` + name + `"([^>]*)>`).FindStringSubmatch(page)
	if input == nil {
		t.Fatalf("range input %q not rendered", name)
	}
	if v := regexp.MustCompile(`value="([^"]*)"`).FindStringSubmatch(input[1]); v != nil {
		return v[1]
	}
	return ""
}

func TestRangeFormFollowsNewRecords(t *testing.T) {
	srv := newTestServer(t, Options{DatesEnabled: true})
	b := &browser{t: t, srv: srv}

	b.do(http.MethodPost, "/income", income("ค่าหนังสือเรียน", "500", "2025-06-01"))
	page := b.do(http.MethodGet, "/", nil).Body.String()
	if !strings.Contains(page, "2025-06-01 ถึง 2025-06-01") {
		t.Fatalf("default range not shown in the statement: %s", page)
	}

	form := url.Values{
		"from": {rangeInputValue(t, page, "from")},
		"to":   {rangeInputValue(t, page, "to")},
	}
	if form.Get("from") != "" || form.Get("to") != "" {
		t.Fatalf("range inputs prefilled with %v", form)
	}

	b.do(http.MethodPost, "/expenses", expense("ค่าไฟ", "80", "2025-06-10"))
	rr := b.do(http.MethodGet, "/ui/statement?"+form.Encode(), nil)
	body := rr.Body.String()
	if rr.Code != http.StatusOK || !strings.Contains(body, "ค่าไฟ") || !strings.Contains(body, "2025-06-01 ถึง 2025-06-10") {
		t.Fatalf("refreshed statement misses the later record: %d %s", rr.Code, body)
	}
}

func TestRecordLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP, Output: &buf})
	srv := newTestServer(t, Options{Logger: logger})
	b := &browser{t: t, srv: srv}

	logLine := func(msg string) string {
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, `msg="`+msg+`"`) {
				return line
			}
		}
		t.Fatalf("no %q line in %s", msg, buf.String())
		return ""
	}

	rr := b.do(http.MethodPost, "/expenses", expense("กระดาษ A4", "120.50", ""))
	if id := rr.Header().Get("X-Request-ID"); !strings.Contains(logLine("Ledger record admitted"), "request_id="+id) {
		t.Fatalf("admitted line lacks request_id=%s: %s", id, buf.String())
	}

	rr = b.do(http.MethodPost, "/expenses", expense("", "5", ""))
	if id := rr.Header().Get("X-Request-ID"); !strings.Contains(logLine("Ledger record rejected"), "request_id="+id) {
		t.Fatalf("rejected line lacks request_id=%s: %s", id, buf.String())
	}
}
