package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

// Store keeps links and clicks in process memory.
// The link map has its own lock; each entry serializes only its own clicks.
type Store struct {
	mu    sync.RWMutex
	links map[string]*entry
}

type entry struct {
	link domain.Link

	mu     sync.Mutex
	clicks []domain.Click
}

func NewStore() *Store {
	return &Store{links: make(map[string]*entry)}
}

// TryCreate atomically saves the link only if its code is free.
func (s *Store) TryCreate(ctx context.Context, link *domain.Link) (domain.CreateOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conflict, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.Code]; exists {
		return domain.Conflict, nil
	}
	s.links[link.Code] = &entry{link: *link}
	return domain.Created, nil
}

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	e, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}
	link := e.link
	return &link, nil
}

func (s *Store) AppendClick(ctx context.Context, code string, click *domain.Click) error {
	e, err := s.get(ctx, code)
	if err != nil {
		return err
	}

	if click.ID == "" {
		click.ID = uuid.NewString()
	}
	click.LinkCode = code

	e.mu.Lock()
	e.clicks = append(e.clicks, *click)
	e.mu.Unlock()
	return nil
}

func (s *Store) ListClicks(ctx context.Context, code string) ([]domain.Click, error) {
	e, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Click, len(e.clicks))
	copy(out, e.clicks)
	return out, nil
}

// Dump returns every link ordered by creation time.
func (s *Store) Dump(ctx context.Context) ([]domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	links := make([]domain.Link, 0, len(s.links))
	for _, e := range s.links {
		links = append(links, e.link)
	}
	s.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].Code < links[j].Code
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	return links, nil
}

func (s *Store) get(ctx context.Context, code string) (*entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.links[code]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	return e, nil
}

var _ ports.LinkArchive = (*Store)(nil)

// Close is a no-op; it lets Store satisfy the same lifecycle as database-backed stores.
func (s *Store) Close() error { return nil }
