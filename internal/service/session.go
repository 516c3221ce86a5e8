package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sefaaycicek/fakestore/internal/event"
	"github.com/sefaaycicek/fakestore/internal/listing"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_sessions_active",
		Help: "Number of open listing sessions.",
	})

	evictedSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_sessions_evicted_total",
		Help: "Total number of listing sessions closed for being idle.",
	})
)

const publishTimeout = 5 * time.Second

// SessionConfig configures the SessionService. Zero values select defaults.
type SessionConfig struct {
	PageSize        int
	QuietPeriod     time.Duration
	IdleTTL         time.Duration
	MaxSessions     int
	JanitorInterval time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.IdleTTL <= 0 {
		c.IdleTTL = 30 * time.Minute
	}
	if c.JanitorInterval <= 0 {
		c.JanitorInterval = time.Minute
	}
	return c
}

// Session is one listing screen owned by an owner.
type Session struct {
	ID         uuid.UUID
	OwnerID    string
	Controller *listing.Controller

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time the session was last used.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// SessionService owns one listing controller per session and closes
// sessions that stay idle longer than the configured TTL.
type SessionService struct {
	catalog   listing.Catalog
	annotator *Annotator
	events    event.Publisher
	logger    *slog.Logger
	cfg       SessionConfig
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	closed   bool
}

// NewSessionService creates a new session service. annotator may be nil.
func NewSessionService(
	catalog listing.Catalog,
	annotator *Annotator,
	events event.Publisher,
	cfg SessionConfig,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		catalog:   catalog,
		annotator: annotator,
		events:    events,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Create opens a new session for ownerID. The first page is not loaded.
func (s *SessionService) Create(ctx context.Context, ownerID string) (*Session, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("owner id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, apperrors.ServiceUnavailable("sessions", listing.ErrClosed)
	}
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return nil, apperrors.Unprocessable("TOO_MANY_SESSIONS",
			fmt.Sprintf("at most %d listing sessions may be open", s.cfg.MaxSessions))
	}

	id := uuid.New()
	sessionLogger := s.logger.With(
		slog.String("session_id", id.String()),
		slog.String("owner_id", ownerID),
	)

	opts := listing.Options{
		PageSize:          s.cfg.PageSize,
		QuietPeriod:       s.cfg.QuietPeriod,
		Logger:            sessionLogger,
		OnSearchCommitted: s.searchCommitted(id, ownerID, sessionLogger),
	}
	if s.annotator != nil {
		opts.Annotator = s.annotator.ForOwner(ownerID)
	}

	sess := &Session{
		ID:         id,
		OwnerID:    ownerID,
		Controller: listing.NewController(s.catalog, opts),
	}
	sess.touch(s.now())
	s.sessions[id] = sess
	activeSessions.Inc()

	sessionLogger.InfoContext(ctx, "listing session created")
	return sess, nil
}

// searchCommitted publishes search.committed without blocking the controller.
func (s *SessionService) searchCommitted(id uuid.UUID, ownerID string, logger *slog.Logger) func(context.Context, string) {
	return func(_ context.Context, query string) {
		if query == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()

			err := s.events.SearchCommitted(ctx, event.SearchCommittedData{
				SessionID: id.String(),
				OwnerID:   ownerID,
				Query:     query,
			})
			if err != nil {
				logger.ErrorContext(ctx, "failed to publish search.committed event",
					slog.String("error", err.Error()),
				)
			}
		}()
	}
}

// Get returns the session if it exists and belongs to ownerID, and marks it
// as used.
func (s *SessionService) Get(ownerID string, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || sess.OwnerID != ownerID {
		return nil, apperrors.NotFound("listing", id.String())
	}
	sess.touch(s.now())
	return sess, nil
}

// Touch marks the session as used.
func (s *SessionService) Touch(ownerID string, id uuid.UUID) error {
	_, err := s.Get(ownerID, id)
	return err
}

// Close closes the session and its controller.
func (s *SessionService) Close(ctx context.Context, ownerID string, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		s.mu.Unlock()
		return apperrors.NotFound("listing", id.String())
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	activeSessions.Dec()
	sess.Controller.Close()
	s.logger.InfoContext(ctx, "listing session closed", slog.String("session_id", id.String()))
	return nil
}

// Len returns the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run evicts idle sessions until ctx is done.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.evictIdle(s.now()); n > 0 {
				s.logger.InfoContext(ctx, "evicted idle listing sessions", slog.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// evictIdle closes every session unused since now minus the idle TTL.
func (s *SessionService) evictIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var idle []*Session
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.Controller.Close()
		activeSessions.Dec()
		evictedSessions.Inc()
	}
	return len(idle)
}

// Shutdown closes every session. Later Create calls fail.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Controller.Close()
		activeSessions.Dec()
	}
}
