package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

const (
	defaultValidityMinutes = 30
	maxCreateAttempts      = 10
	maxValidityMinutes     = int(domain.MaxValidity / time.Minute)
	clickWriteTimeout      = 5 * time.Second
)

type LinkService struct {
	store     ports.LinkStore
	allocator ports.CodeAllocator
	geo       ports.GeoResolver
	clock     domain.Clock
	logger    *slog.Logger
	baseURL   string
}

// Option customizes a LinkService.
type Option func(*LinkService)

func WithClock(c domain.Clock) Option {
	return func(s *LinkService) { s.clock = c }
}

func WithGeoResolver(g ports.GeoResolver) Option {
	return func(s *LinkService) { s.geo = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *LinkService) { s.logger = l }
}

// NewLinkService wires a service. baseURL prefixes every returned shortlink.
func NewLinkService(store ports.LinkStore, allocator ports.CodeAllocator, baseURL string, opts ...Option) *LinkService {
	s := &LinkService{
		store:     store,
		allocator: allocator,
		geo:       NoGeo{},
		clock:     domain.RealClock{},
		logger:    slog.Default(),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create claims a custom or generated code for req.OriginalURL.
func (s *LinkService) Create(ctx context.Context, req domain.CreateRequest) (*domain.Shortlink, error) {
	validity := defaultValidityMinutes
	if req.ValidityMinutes != nil {
		validity = *req.ValidityMinutes
	}
	if validity <= 0 || validity > maxValidityMinutes {
		return nil, fmt.Errorf("%w: validity must be between 1 and %d minutes", domain.ErrInvalidInput, maxValidityMinutes)
	}

	now := s.clock.Now()
	link := &domain.Link{
		OriginalURL: req.OriginalURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(validity) * time.Minute),
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}

	if req.CustomCode != nil {
		if err := s.claimCustom(ctx, link, *req.CustomCode); err != nil {
			return nil, err
		}
	} else if err := s.claimGenerated(ctx, link); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "link created", "code", link.Code, "expires_at", link.ExpiresAt.UTC())

	return &domain.Shortlink{
		Code:      link.Code,
		URL:       s.baseURL + "/" + link.Code,
		ExpiresAt: link.ExpiresAt.UTC(),
	}, nil
}

func (s *LinkService) claimCustom(ctx context.Context, link *domain.Link, code string) error {
	if !s.allocator.ValidateCustomFormat(code) {
		return fmt.Errorf("%w: custom shortcode %q has an invalid format", domain.ErrInvalidInput, code)
	}

	link.Code = code
	outcome, err := s.store.TryCreate(ctx, link)
	if err != nil {
		return storageErr("create link", err)
	}
	if outcome == domain.Conflict {
		return fmt.Errorf("%w: %q", domain.ErrCodeInUse, code)
	}
	return nil
}

func (s *LinkService) claimGenerated(ctx context.Context, link *domain.Link) error {
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		code, err := s.allocator.GenerateCandidate()
		if err != nil {
			return fmt.Errorf("generating code: %w", err)
		}

		link.Code = code
		outcome, err := s.store.TryCreate(ctx, link)
		if err != nil {
			return storageErr("create link", err)
		}
		if outcome == domain.Created {
			return nil
		}
		s.logger.DebugContext(ctx, "generated code collided, retrying", "code", code, "attempt", attempt)
	}

	return fmt.Errorf("%w: %w after %d attempts", domain.ErrStorage, domain.ErrAllocationExhausted, maxCreateAttempts)
}

// Resolve returns the original URL for code and records a click.
// A failed click write is logged and does not affect the result.
func (s *LinkService) Resolve(ctx context.Context, code string, visit domain.Visit) (string, error) {
	link, err := s.find(ctx, code)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	if link.IsExpired(now) {
		return "", fmt.Errorf("%w: %q expired at %s", domain.ErrLinkExpired, code, link.ExpiresAt.UTC().Format(time.RFC3339))
	}

	click := &domain.Click{
		LinkCode:  link.Code,
		Timestamp: now,
		Source:    visit.Referrer,
		Geo:       s.locate(ctx, visit),
	}

	// The redirect may already be on its way to the client; the write
	// must survive the request context being cancelled.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clickWriteTimeout)
	defer cancel()
	if err := s.store.AppendClick(writeCtx, link.Code, click); err != nil {
		s.logger.WarnContext(ctx, "click not recorded", "code", link.Code, "error", errors.Join(domain.ErrClickRecording, err))
	}

	return link.OriginalURL, nil
}

// Stats reports a link and its clicks. Expired links stay queryable.
func (s *LinkService) Stats(ctx context.Context, code string) (*domain.StatsView, error) {
	link, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}

	clicks, err := s.store.ListClicks(ctx, link.Code)
	if err != nil {
		return nil, storageErr("list clicks", err)
	}

	view := ProjectStats(link, clicks)
	return &view, nil
}

func (s *LinkService) find(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.store.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrLinkNotFound) {
		return nil, fmt.Errorf("%w: %q", domain.ErrLinkNotFound, code)
	}
	if err != nil {
		return nil, storageErr("find link", err)
	}
	return link, nil
}

func (s *LinkService) locate(ctx context.Context, visit domain.Visit) domain.Geo {
	if visit.Geo != nil {
		return *visit.Geo
	}
	if visit.IP == "" {
		return domain.Geo{}
	}
	return s.geo.Lookup(ctx, visit.IP)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

var _ ports.LinkService = (*LinkService)(nil)
