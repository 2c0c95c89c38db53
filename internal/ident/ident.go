// Package ident issues observation identifiers. One Issuer hands out the
// identifier shared by all six projections of an observation before any
// store is written, so concurrent ingestions cannot interleave ids.
package ident

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Issuer produces monotonically increasing ULID strings. Safe for concurrent use.
type Issuer struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// New creates an Issuer seeded from crypto/rand.
func New() *Issuer {
	return &Issuer{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewWithClock creates an Issuer using the given clock and entropy source.
func NewWithClock(now func() time.Time, entropy io.Reader) *Issuer {
	return &Issuer{
		entropy: ulid.Monotonic(entropy, 0),
		now:     now,
	}
}

// Next returns a new identifier that sorts after every identifier previously
// returned by this Issuer.
func (i *Issuer) Next() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(i.now()), i.entropy)
	if err != nil {
		return "", fmt.Errorf("issuing identifier: %w", err)
	}
	return id.String(), nil
}

// Time returns the issue time encoded in id.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
