package ports

import (
	"context"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
)

// LinkStore defines storage operations for links and their clicks.
// Implementations must be safe for concurrent use.
type LinkStore interface {
	// TryCreate inserts the link unless its code is taken. At most one
	// concurrent call per code reports domain.Created.
	TryCreate(ctx context.Context, link *domain.Link) (domain.CreateOutcome, error)
	// FindByCode returns domain.ErrLinkNotFound when the code is unknown.
	FindByCode(ctx context.Context, code string) (*domain.Link, error)
	// AppendClick stores a click for an existing link (expired or not) and
	// assigns click.ID when empty. Returns domain.ErrLinkNotFound if absent.
	AppendClick(ctx context.Context, code string, click *domain.Click) error
	// ListClicks returns a snapshot of the link's clicks in insertion order.
	// Timestamps are taken before the append, so concurrent clicks on one
	// link may appear with slightly out-of-order timestamps.
	ListClicks(ctx context.Context, code string) ([]domain.Click, error)
}

// LinkArchive is implemented by stores that can export their whole content.
type LinkArchive interface {
	LinkStore
	Dump(ctx context.Context) ([]domain.Link, error)
}

// CodeAllocator proposes short codes. It never checks uniqueness.
type CodeAllocator interface {
	GenerateCandidate() (string, error)
	ValidateCustomFormat(code string) bool
}

// GeoResolver locates a client from its IP address.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) domain.Geo
}

// LinkService defines the business logic operations
type LinkService interface {
	Create(ctx context.Context, req domain.CreateRequest) (*domain.Shortlink, error)
	Resolve(ctx context.Context, code string, visit domain.Visit) (string, error)
	Stats(ctx context.Context, code string) (*domain.StatsView, error)
}
