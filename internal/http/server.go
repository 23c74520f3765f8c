package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"sync"
	"time"

	"banchi/internal/core"
	applog "banchi/internal/log"
	"banchi/internal/metrics"
	"banchi/internal/middleware/ratelimit"
	"banchi/internal/middleware/security"
	"banchi/internal/middleware/trace"
	"banchi/internal/services"
	"banchi/internal/session"
	appweb "banchi/web"
)

const (
	defaultTitle  = "ระบบบัญชีโรงเรียน"
	defaultBanner = "/static/banner.svg"
)

// Options configures the presentation variant and the infrastructure
// around the ledger handlers.
type Options struct {
	// DatesEnabled adds the date field, the range filter, the chart and the
	// PDF statement.
	DatesEnabled bool
	// BannerImage is a path under /static/ or an absolute http(s) URL.
	BannerImage string
	Title       string
	PDFFontPath string

	RateLimitPerMinute int

	Metrics *metrics.Recorder
	Logger  *applog.Logger
	// Ready reports backend readiness for /readyz.
	Ready func(ctx context.Context) error
	// StoredSessions, when set, reports how many sessions the backend
	// holds records for.
	StoredSessions func(ctx context.Context) (int64, error)
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Manager
	ledger    *services.LedgerService
	opts      Options
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	logger    *applog.Logger
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, sessions *session.Manager, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentHTTP)
	}
	if opts.BannerImage == "" {
		opts.BannerImage = defaultBanner
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}

	mux := http.NewServeMux()
	s := &Server{
		sessions: sessions,
		ledger:   svc,
		opts:     opts,
		logger:   opts.Logger,
		started:  time.Now(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", opts.Metrics.Handler())

	mux.HandleFunc("/income", s.handleCreateIncome)
	mux.HandleFunc("/expenses", s.handleCreateExpense)
	mux.HandleFunc("/ui/summary", s.handleSummary)
	mux.HandleFunc("/ui/records", s.handleRecords)
	if opts.DatesEnabled {
		mux.HandleFunc("/ui/statement", s.handleStatement)
		mux.HandleFunc("/api/chart", s.handleChart)
		mux.HandleFunc("/statement.pdf", s.handleStatementPDF)
	}

	headers := security.DefaultHeadersConfig()
	if origin := externalOrigin(opts.BannerImage); origin != "" {
		headers.ImageSources = append(headers.ImageSources, origin)
	}

	s.tracer = trace.NewMiddleware(extractClientIP, applog.NewStructuredLogger(s.logger), opts.Metrics.RecordRequest)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(extractClientIP, s.rateLimited, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server, the rate limiter and every session.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		s.limiter.Stop()
		if s.sessions != nil {
			s.sessions.Close()
		}
	})
	return shutdownErr
}

// requestLogger returns the logger the trace middleware tagged with the
// request id.
func (s *Server) requestLogger(r *http.Request) *applog.Logger {
	return applog.FromContext(r.Context(), s.logger)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.requestLogger(r).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, extractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).
		Header("Retry-After", "60").
		TriggerErrorNotification(msgRateLimited).
		Write(w)
}

// resolveSession binds the request to its session, writing a 500 partial
// when no session can be created.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Resolve(r.Context(), w, r)
	if err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Session resolution failed", applog.FieldError, err)
		InternalServerError(msgSessionFailed).Write(w)
		return nil, false
	}
	return sess, true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderValidation answers a rejected submission or query.
func (s *Server) renderValidation(w http.ResponseWriter, err error) bool {
	reason := core.ReasonOf(err)
	if reason == "" {
		return false
	}
	UnprocessableEntityError(reason).
		TriggerErrorNotification(reason).
		Write(w)
	return true
}

// externalOrigin returns scheme://host for an absolute http(s) URL.
func externalOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
