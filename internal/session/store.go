package session

import (
	"context"
	"time"

	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// DefaultTTL is how long an idle session survives in the cache. Every write
// renews it.
const DefaultTTL = 30 * time.Minute

// Store is the keyed TTL cache sessions live in between requests. Any keyed
// cache can back it; it is passed to the orchestrator as a constructor
// dependency. Writes are last-write-wins: two concurrent retries on the same
// session id are not guarded, a well-behaved client submits one request per
// session at a time.
type Store interface {
	// Get returns the session, or (nil, nil) when it is absent or expired.
	Get(ctx context.Context, id string) (*entity.Session, error)
	// Put stores the session and (re)starts its TTL.
	Put(ctx context.Context, s *entity.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
