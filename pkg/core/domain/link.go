package domain

import (
	"fmt"
	"time"
)

const (
	MaxURLLength = 2048

	// MaxValidity bounds ExpiresAt - CreatedAt so expiries stay well inside
	// the range time.Duration and every store can represent.
	MaxValidity = 100 * 365 * 24 * time.Hour
)

// Link represents a shortened URL. Links are never updated after creation.
type Link struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the link can no longer be resolved at now.
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// Validate checks the invariants every stored link holds. The code format
// belongs to the CodeAllocator and is not checked here.
func (l *Link) Validate() error {
	switch {
	case l.OriginalURL == "":
		return fmt.Errorf("%w: original url is empty", ErrInvalidInput)
	case len(l.OriginalURL) > MaxURLLength:
		return fmt.Errorf("%w: original url is longer than %d characters", ErrInvalidInput, MaxURLLength)
	case !l.ExpiresAt.After(l.CreatedAt):
		return fmt.Errorf("%w: expiry %s is not after creation %s", ErrInvalidInput,
			l.ExpiresAt.UTC().Format(time.RFC3339), l.CreatedAt.UTC().Format(time.RFC3339))
	case l.ExpiresAt.Sub(l.CreatedAt) > MaxValidity:
		return fmt.Errorf("%w: validity exceeds %s", ErrInvalidInput, MaxValidity)
	}
	return nil
}

// Shortlink is what a caller gets back after creating a link.
type Shortlink struct {
	Code      string
	URL       string
	ExpiresAt time.Time
}

// CreateOutcome is the result of an attempt to claim a code in a store.
type CreateOutcome int

const (
	Created CreateOutcome = iota
	Conflict
)

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// CreateRequest carries the inputs of a shorten call. Nil fields are absent.
type CreateRequest struct {
	OriginalURL     string
	ValidityMinutes *int
	CustomCode      *string
}
