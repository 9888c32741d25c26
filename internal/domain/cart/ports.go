// internal/domain/cart/ports.go
package cart

import "context"

// Persistence is the local key-value snapshot store for guest carts.
//
// Get returns (value, true, nil) when the key exists and ("", false, nil)
// when it does not; errors are reserved for actual I/O failures.
type Persistence interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// RemoteLine is one persisted cart line in the remote mirror. DocID is the
// store's own record identity, opaque to callers and only used for targeted
// update/delete.
type RemoteLine struct {
	DocID     string
	ProductID string
	Quantity  int
}

// RemoteSnapshot is one full view of a user's remote cart lines. Receiving
// any snapshot, including an empty one, means the initial load has completed;
// "not yet loaded" is expressed by the absence of a snapshot, never by an
// empty one.
type RemoteSnapshot struct {
	Lines []RemoteLine
}

// MergeOp is one write inside an atomic merge batch. An empty DocID creates
// a new line document; a non-empty DocID overwrites that document's quantity.
type MergeOp struct {
	DocID     string
	ProductID string
	Quantity  int
}

// Subscription is a live read of a user's remote cart.
//
// Updates delivers full snapshots until Stop is called or the underlying
// stream fails; after the channel closes, Err reports the terminal error
// (nil on Stop).
type Subscription interface {
	Updates() <-chan RemoteSnapshot
	Err() error
	Stop()
}

// Mirror is the access layer over the per-user persisted cart lines.
//
// Single-record writes resolve the existing line for a productId before
// deciding between create and update; at most one line per productId must
// exist, and implementations use the first match when the store violates
// that. Merge commits all ops in one atomic batch: either every op is
// applied or none is.
type Mirror interface {
	Add(ctx context.Context, uid, productID string, qty int) error
	SetQuantity(ctx context.Context, uid, productID string, qty int) error
	Remove(ctx context.Context, uid, productID string) error
	Clear(ctx context.Context, uid string) error
	Merge(ctx context.Context, uid string, ops []MergeOp) error
	Subscribe(ctx context.Context, uid string) (Subscription, error)
}
