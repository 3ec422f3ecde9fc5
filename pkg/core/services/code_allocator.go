package services

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

const (
	charset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength = 7
)

var customCodeRe = regexp.MustCompile(`^[A-Za-z0-9_$-]{3,20}$`)

// reservedCodes are first path segments served by fixed routes. A link
// under one of them could never be reached.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"healthz": {},
}

// IsReservedCode reports whether code collides with a fixed route.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

// RandomAllocator proposes random base62 codes and validates custom ones.
type RandomAllocator struct {
	length int
}

func NewRandomAllocator() *RandomAllocator {
	return &RandomAllocator{length: codeLength}
}

// GenerateCandidate returns a uniformly random code. It does not check uniqueness.
func (a *RandomAllocator) GenerateCandidate() (string, error) {
	for {
		code, err := a.random()
		if err != nil || !IsReservedCode(code) {
			return code, err
		}
	}
}

func (a *RandomAllocator) random() (string, error) {
	b := make([]byte, a.length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

// ValidateCustomFormat reports whether code is usable as a custom short code.
func (a *RandomAllocator) ValidateCustomFormat(code string) bool {
	return customCodeRe.MatchString(code) && !IsReservedCode(code)
}

var _ ports.CodeAllocator = (*RandomAllocator)(nil)
