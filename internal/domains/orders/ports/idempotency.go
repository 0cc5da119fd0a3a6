package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrIdempotencyConflict indicates the same key was reused for a different checkout payload.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// ErrIdempotencyInProgress is returned when another request holding the same key has not finished yet.
var ErrIdempotencyInProgress = fmt.Errorf("%w: checkout with this key is still in progress", ErrIdempotencyConflict)

// IdempotencyRecord ties a client supplied key to the order it produced.
// A zero OrderID marks a claim whose checkout has not completed.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     uuid.UUID
	CreatedAt   time.Time
}

// Pending reports whether the record is still a claim without an order.
func (r IdempotencyRecord) Pending() bool {
	return r.OrderID == uuid.Nil
}

// IdempotencyStore lets checkout retries be replayed instead of placing duplicate orders.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Claim stores record atomically when its key is unknown and reports true.
	// When the key is taken the stored record is returned with false.
	Claim(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, bool, error)
	// Complete attaches the placed order to a claimed key.
	Complete(ctx context.Context, key string, orderID uuid.UUID) error
	// Release drops a pending claim so the key can be used again.
	Release(ctx context.Context, key string) error
}
