package domain

import "errors"

var (
	// ErrInvalidInput indicates a bad validity value or custom code format.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCodeInUse indicates a requested custom code is already claimed.
	ErrCodeInUse = errors.New("short code already in use")

	// ErrLinkNotFound indicates no link exists for the code.
	ErrLinkNotFound = errors.New("link not found")

	// ErrLinkExpired indicates the link exists but is past its expiry.
	ErrLinkExpired = errors.New("link has expired")

	// ErrStorage indicates the backing store failed.
	ErrStorage = errors.New("storage failure")

	// ErrClickRecording indicates a click could not be stored. It is logged, never returned to redirect callers.
	ErrClickRecording = errors.New("click recording failed")

	// ErrAllocationExhausted indicates no free code was found within the retry cap.
	ErrAllocationExhausted = errors.New("unable to allocate a unique short code")
)
