package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"ideamap/application/orchestrator"
	"ideamap/application/ports"
	"ideamap/domain/config"
	pkgerrors "ideamap/pkg/errors"
)

// Session is one user's mind map workspace
type Session struct {
	ID           string
	CreatedAt    time.Time
	Orchestrator *orchestrator.Orchestrator
}

// Registry keeps sessions in an in-memory TTL cache. A session expires after
// the configured idle timeout; every lookup extends it. Evicted sessions are
// closed, which cancels their outstanding model calls.
type Registry struct {
	cache *ttlcache.Cache[string, *Session]

	client    ports.ModelClient
	publisher ports.EventPublisher
	metrics   ports.GenerationMetrics
	domain    *config.DomainConfig
	logger    *zap.Logger

	once sync.Once
}

// NewRegistry creates a registry and starts the cache's expiry loop
func NewRegistry(
	client ports.ModelClient,
	publisher ports.EventPublisher,
	metrics ports.GenerationMetrics,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *Registry {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var options []ttlcache.Option[string, *Session]
	if domainCfg.SessionTimeout > 0 {
		options = append(options, ttlcache.WithTTL[string, *Session](domainCfg.SessionTimeout))
	}

	r := &Registry{
		cache:     ttlcache.New[string, *Session](options...),
		client:    client,
		publisher: publisher,
		metrics:   metrics,
		domain:    domainCfg,
		logger:    logger,
	}

	r.cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		item.Value().Orchestrator.Close()
		if reason == ttlcache.EvictionReasonExpired {
			r.logger.Debug("Session expired", zap.String("session_id", item.Key()))
		}
	})

	go r.cache.Start()

	return r
}

// Create starts a new session with a fresh orchestrator. An empty id is
// replaced by a generated one.
func (r *Registry) Create(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, pkgerrors.NewValidationError("session ID must be a valid UUID")
	}
	s := &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		Orchestrator: orchestrator.New(id, r.client, r.publisher, r.metrics, r.domain, r.logger),
	}

	if _, found := r.cache.GetOrSet(id, s); found {
		s.Orchestrator.Close()
		return nil, pkgerrors.NewValidationError("session already exists").WithCode("SESSION_EXISTS")
	}

	r.logger.Info("Session created", zap.String("session_id", id), zap.Int("sessions", r.cache.Len()))
	return s, nil
}

// Get returns a live session and extends its lifetime
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	item := r.cache.Get(id)
	if item == nil || item.IsExpired() {
		return nil, pkgerrors.NewNotFoundError("session")
	}
	return item.Value(), nil
}

// Delete closes and removes a session
func (r *Registry) Delete(ctx context.Context, id string) error {
	item, found := r.cache.GetAndDelete(id)
	if !found {
		return pkgerrors.NewNotFoundError("session")
	}
	item.Value().Orchestrator.Close()
	r.logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

// Len returns the number of sessions held, expired or not
func (r *Registry) Len() int {
	return r.cache.Len()
}

// EvictExpired removes every expired session; eviction closes it
func (r *Registry) EvictExpired() int {
	before := r.cache.Len()
	r.cache.DeleteExpired()
	return before - r.cache.Len()
}

// Close stops the expiry loop and closes every session
func (r *Registry) Close() {
	r.once.Do(r.cache.Stop)

	items := r.cache.Items()
	r.cache.DeleteAll()
	for _, item := range items {
		item.Value().Orchestrator.Close()
	}
}
