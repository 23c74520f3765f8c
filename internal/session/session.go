// Package session binds each browser to its own ledger store.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"banchi/internal/cache"
	"banchi/internal/ledger"
	applog "banchi/internal/log"
	"banchi/internal/metrics"
)

const DefaultCookieName = "banchi_session"

// Session is the state of one browser interaction: its id and its ledger.
type Session struct {
	ID        string
	Store     ledger.Store
	CreatedAt time.Time
}

type Config struct {
	TTL         time.Duration
	MaxSessions int
	CookieName  string
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

func DefaultConfig() Config {
	return Config{
		TTL:         2 * time.Hour,
		MaxSessions: 1000,
		CookieName:  DefaultCookieName,
	}
}

// Manager maps session cookies to sessions. Idle sessions expire after TTL;
// when MaxSessions is reached the least recently used one is dropped. A
// dropped session's store is closed.
type Manager struct {
	cfg      Config
	factory  ledger.StoreFactory
	sessions *cache.LRUCache[*Session]
	cleaner  *cache.Manager
	metrics  *metrics.Recorder
	logger   *applog.Logger
}

func NewManager(factory ledger.StoreFactory, cfg Config, rec *metrics.Recorder, logger *applog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentSession)
	}

	m := &Manager{
		cfg:      cfg,
		factory:  factory,
		sessions: cache.NewLRUCache[*Session](cfg.MaxSessions, cfg.TTL),
		cleaner:  cache.NewManager(logger.Logger),
		metrics:  rec,
		logger:   logger,
	}
	m.sessions.OnEvict(m.evicted)
	m.cleaner.Register(m.sessions)

	interval := cfg.TTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	m.cleaner.StartCleanup(interval)
	return m
}

func (m *Manager) evicted(id string, s *Session) {
	if err := s.Store.Close(); err != nil {
		m.logger.Warn("Closing session store failed", applog.FieldSessionID, id, applog.FieldError, err)
	}
	m.logger.Debug("Session ended", applog.FieldSessionID, id, "age", time.Since(s.CreatedAt).Round(time.Second).String())
	m.metrics.SetActiveSessions(m.sessions.Size())
}

// Resolve returns the session named by the request cookie, creating a new
// one (and setting the cookie on w) when the cookie is missing, malformed or
// names a session that no longer exists.
func (m *Manager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil {
		if s, ok := m.Get(c.Value); ok {
			return s, nil
		}
	}

	s, err := m.create(ctx)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Get looks up a live session and extends its lifetime.
func (m *Manager) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	return m.sessions.Get(id)
}

func (m *Manager) create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	store, err := m.factory.NewStore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	s := &Session{ID: id, Store: store, CreatedAt: time.Now()}
	m.sessions.Set(id, s)
	m.metrics.SetActiveSessions(m.sessions.Size())
	m.logger.DebugContext(ctx, "Session started", applog.FieldSessionID, id)
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Size()
}

// Close stops expiry and ends every session.
func (m *Manager) Close() {
	m.cleaner.Stop()
	m.sessions.Purge()
}
