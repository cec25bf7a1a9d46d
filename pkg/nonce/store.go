package nonce

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	// DefaultDuration is the nonce validity used when none is requested
	DefaultDuration = 15 * time.Minute

	// Resolution is the clock granularity every backend can store losslessly
	Resolution = time.Millisecond

	// MaxDurationMS is the largest millisecond count a time.Duration can hold
	MaxDurationMS = int64(math.MaxInt64 / int64(time.Millisecond))
)

// Expiration returns the stored expiration for a nonce issued at now.
// Both ends are kept at millisecond resolution.
func Expiration(now time.Time, duration time.Duration) time.Time {
	return now.Truncate(Resolution).Add(duration).Truncate(Resolution)
}

// Record is a persisted nonce entry
type Record struct {
	ID         string    `json:"id"`
	Expiration time.Time `json:"expiration"`
}

// Store defines the interface for nonce storage
// Implementations can use Redis, MySQL, MongoDB or in-memory backends
type Store interface {
	// NewID generates a fresh unique identifier using the backend's own generator
	NewID() string

	// Insert persists a record
	// Returns ErrDuplicate if a record with the same ID already exists
	Insert(ctx context.Context, rec Record) error

	// Consume atomically finds the record by ID and deletes it
	// Returns ErrNotFound if no record exists
	Consume(ctx context.Context, id string) (*Record, error)

	// DeleteExpired removes every record whose expiration is <= now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores that can report backend connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Error definitions
var (
	ErrNotFound  = errors.New("nonce not found")
	ErrDuplicate = errors.New("nonce already exists")
	ErrStorage   = errors.New("nonce storage failure")
)
