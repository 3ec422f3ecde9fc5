package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

const (
	keyPrefix = "shortlink:"
	// Links stay cached briefly past expiry so stats lookups still hit.
	expiredGrace = time.Minute
)

// Store caches FindByCode results of the wrapped LinkStore in Redis.
// Links never change after creation, so a cached copy is never stale.
// Redis errors degrade to the wrapped store.
type Store struct {
	next   ports.LinkStore
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

func New(next ports.LinkStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With("package", "cache"),
		now:    time.Now,
	}
}

func (s *Store) TryCreate(ctx context.Context, link *domain.Link) (domain.CreateOutcome, error) {
	outcome, err := s.next.TryCreate(ctx, link)
	if err == nil && outcome == domain.Created {
		s.set(ctx, link)
	}
	return outcome, err
}

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	raw, err := s.client.Get(ctx, keyPrefix+code).Bytes()
	switch {
	case err == nil:
		var link domain.Link
		if jsonErr := json.Unmarshal(raw, &link); jsonErr == nil {
			return &link, nil
		}
		s.logger.WarnContext(ctx, "dropping undecodable cache entry", "code", code)
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "cache read failed", "code", code, "error", err)
	}

	// The load is shared by every waiter, so one caller going away must not fail the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(code, func() (interface{}, error) {
		link, err := s.next.FindByCode(loadCtx, code)
		if err != nil {
			return nil, err
		}
		s.set(loadCtx, link)
		return link, nil
	})
	if err != nil {
		return nil, err
	}

	link := *v.(*domain.Link)
	return &link, nil
}

func (s *Store) AppendClick(ctx context.Context, code string, click *domain.Click) error {
	return s.next.AppendClick(ctx, code, click)
}

func (s *Store) ListClicks(ctx context.Context, code string) ([]domain.Click, error) {
	return s.next.ListClicks(ctx, code)
}

func (s *Store) set(ctx context.Context, link *domain.Link) {
	ttl := s.ttl
	if remaining := link.ExpiresAt.Add(expiredGrace).Sub(s.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, keyPrefix+link.Code, raw, ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "code", link.Code, "error", err)
	}
}

var _ ports.LinkStore = (*Store)(nil)
