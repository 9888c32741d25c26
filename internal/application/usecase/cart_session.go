// internal/application/usecase/cart_session.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	cartdom "heartwood/internal/domain/cart"
)

var (
	ErrSessionInvalidArgument = errors.New("cart_session: invalid argument")
	ErrSessionClosed          = errors.New("cart_session: closed")
)

// CartSession is the reconciliation engine for one storefront session.
//
// It decides which cart is authoritative from the current authentication
// state (guest: local cart, authenticated: remote mirror) and performs the
// one-time additive merge of the guest cart into the user's mirror on the
// Guest -> Authenticated transition.
//
// All state is serialized behind one mutex; the mirror subscription feeds
// snapshots in on its own goroutine.
type CartSession struct {
	id     string
	local  *cartdom.LocalCart
	mirror cartdom.Mirror

	mu        sync.Mutex
	uid       string
	sub       cartdom.Subscription
	subCancel context.CancelFunc

	remote       []cartdom.RemoteLine
	remoteLoaded bool

	// merged guards the Guest->Authenticated merge: at most once per
	// authentication session. It is set only after the batch commit
	// succeeded (or when there was nothing to merge), so a failed commit
	// stays retryable.
	merged bool
	closed bool
}

// NewCartSession builds the engine for one session. local must already be
// constructed (its snapshot load gates the merge); mirror may not be nil.
func NewCartSession(id string, local *cartdom.LocalCart, mirror cartdom.Mirror) (*CartSession, error) {
	sid := strings.TrimSpace(id)
	if sid == "" || local == nil || mirror == nil {
		return nil, ErrSessionInvalidArgument
	}
	return &CartSession{
		id:     sid,
		local:  local,
		mirror: mirror,
		remote: nil,
	}, nil
}

// ID returns the session identifier.
func (s *CartSession) ID() string { return s.id }

// ObserveIdentity feeds the current authentication state into the engine.
// uid is the signed-in user id, or "" for a guest. The HTTP layer calls this
// on every request; the engine reacts only to actual transitions, so
// repeated observations of the same state are cheap no-ops (apart from
// retrying a previously failed merge).
func (s *CartSession) ObserveIdentity(uid string) {
	u := strings.TrimSpace(uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if u == s.uid {
		if u != "" {
			if s.sub == nil {
				// previous subscribe attempt failed; try again
				s.subscribeLocked()
			}
			s.tryMergeLocked()
		}
		return
	}

	// Any identity change tears down the current mirror read.
	s.stopSubscriptionLocked()
	s.remote = nil
	s.remoteLoaded = false
	s.merged = false
	s.uid = u

	if u == "" {
		// Logout: stop reading the mirror. No reverse merge; the local
		// cart simply becomes authoritative again with whatever it holds.
		log.Printf("[cart_session] %s: signed out, local cart authoritative", s.id)
		return
	}

	log.Printf("[cart_session] %s: signed in uid=%s, subscribing to mirror", s.id, u)
	s.subscribeLocked()
}

// subscribeLocked starts the mirror snapshot stream for the current uid.
// The subscription lives until logout or Close, so it runs on its own
// context rather than any request context.
func (s *CartSession) subscribeLocked() {
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := s.mirror.Subscribe(ctx, s.uid)
	if err != nil {
		cancel()
		log.Printf("[cart_session] %s: WARN mirror subscribe failed uid=%s err=%v", s.id, s.uid, err)
		return
	}

	s.sub = sub
	s.subCancel = cancel
	go s.consume(sub)
}

func (s *CartSession) stopSubscriptionLocked() {
	if s.sub != nil {
		s.sub.Stop()
		s.sub = nil
	}
	if s.subCancel != nil {
		s.subCancel()
		s.subCancel = nil
	}
}

// consume applies mirror snapshots to session state. Each snapshot is a full
// view of the remote cart; the first one flips remoteLoaded and may unlock
// the pending merge.
func (s *CartSession) consume(sub cartdom.Subscription) {
	for snap := range sub.Updates() {
		s.mu.Lock()
		if s.sub != sub {
			// stale subscription after logout/account switch
			s.mu.Unlock()
			return
		}
		s.remote = snap.Lines
		s.remoteLoaded = true
		s.tryMergeLocked()
		s.mu.Unlock()
	}

	if err := sub.Err(); err != nil {
		log.Printf("[cart_session] %s: WARN mirror stream ended err=%v", s.id, err)
	}

	// The stream is dead. Drop it while it is still the current one so the
	// next identity observation opens a fresh stream; the stale cached view
	// must not outlive its source.
	s.mu.Lock()
	if s.sub == sub {
		s.stopSubscriptionLocked()
		s.remoteLoaded = false
	}
	s.mu.Unlock()
}

// tryMergeLocked runs the Guest -> Authenticated merge when every gate is
// open: signed in, not merged yet, local snapshot loaded, and the first
// remote snapshot received.
func (s *CartSession) tryMergeLocked() {
	if s.uid == "" || s.merged || !s.remoteLoaded || !s.local.Loaded() {
		return
	}

	locals := s.local.Lines()
	if len(locals) == 0 {
		// Nothing to contribute; the merge is a completed no-op.
		s.merged = true
		return
	}

	// Additive merge: guest additions are incremental on top of whatever
	// the mirror already holds.
	ops := buildMergeOps(locals, s.remote)

	if err := s.mirror.Merge(context.Background(), s.uid, ops); err != nil {
		// Leave the local cart untouched; the merge retries on the next
		// qualifying observation against whatever remote state resulted.
		log.Printf("[cart_session] %s: WARN merge commit failed uid=%s lines=%d err=%v (will retry)",
			s.id, s.uid, len(ops), err)
		return
	}

	// Only after the batch is confirmed committed is the local cart cleared.
	s.local.Clear()
	s.merged = true
	log.Printf("[cart_session] %s: merged %d guest line(s) into mirror uid=%s", s.id, len(ops), s.uid)
}

// buildMergeOps pairs each local line with its remote counterpart: existing
// remote lines get remote+local quantity, new products get a create op.
func buildMergeOps(locals []cartdom.Line, remote []cartdom.RemoteLine) []cartdom.MergeOp {
	ops := make([]cartdom.MergeOp, 0, len(locals))
	for _, l := range locals {
		op := cartdom.MergeOp{ProductID: l.ProductID, Quantity: l.Quantity}
		for _, r := range remote {
			if r.ProductID == l.ProductID {
				op.DocID = r.DocID
				op.Quantity = r.Quantity + l.Quantity
				break
			}
		}
		ops = append(ops, op)
	}
	return ops
}

// View returns the currently authoritative line set.
// authenticated reports which cart produced it; loading is true while the
// authoritative source has not finished its initial load (distinct from an
// empty cart).
func (s *CartSession) View() (lines []cartdom.Line, authenticated bool, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uid != "" {
		out := make([]cartdom.Line, 0, len(s.remote))
		for _, r := range s.remote {
			if r.Quantity <= 0 {
				continue
			}
			out = append(out, cartdom.Line{ProductID: r.ProductID, Quantity: r.Quantity})
		}
		return out, true, !s.remoteLoaded
	}

	return s.local.Lines(), false, !s.local.Loaded()
}

// AddItem adds qty of productID to the authoritative cart.
func (s *CartSession) AddItem(productID string, qty int) error {
	pid := strings.TrimSpace(productID)
	if pid == "" || qty <= 0 {
		return ErrSessionInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if s.uid != "" {
		s.fireAndForget("add", func(ctx context.Context, uid string) error {
			return s.mirror.Add(ctx, uid, pid, qty)
		})
		return nil
	}
	return s.local.AddLine(pid, qty)
}

// SetItemQuantity sets the exact quantity for productID; qty <= 0 removes.
func (s *CartSession) SetItemQuantity(productID string, qty int) error {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrSessionInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if s.uid != "" {
		s.fireAndForget("set_qty", func(ctx context.Context, uid string) error {
			return s.mirror.SetQuantity(ctx, uid, pid, qty)
		})
		return nil
	}
	return s.local.SetQuantity(pid, qty)
}

// RemoveItem deletes productID from the authoritative cart.
func (s *CartSession) RemoveItem(productID string) error {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrSessionInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if s.uid != "" {
		s.fireAndForget("remove", func(ctx context.Context, uid string) error {
			return s.mirror.Remove(ctx, uid, pid)
		})
		return nil
	}
	s.local.RemoveLine(pid)
	return nil
}

// ClearCart empties the authoritative cart.
func (s *CartSession) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if s.uid != "" {
		s.fireAndForget("clear", func(ctx context.Context, uid string) error {
			return s.mirror.Clear(ctx, uid)
		})
		return nil
	}
	s.local.Clear()
	return nil
}

// fireAndForget issues a mirror write without blocking the caller. The write
// outcome is observed through the snapshot stream; failures are only logged.
// Must be called with s.mu held (uid is captured under the lock).
func (s *CartSession) fireAndForget(op string, write func(ctx context.Context, uid string) error) {
	uid := s.uid
	go func() {
		if err := write(context.Background(), uid); err != nil {
			log.Printf("[cart_session] %s: WARN mirror %s failed uid=%s err=%v", s.id, op, uid, err)
		}
	}()
}

// Close tears the session down: the mirror subscription stops and further
// mutations are rejected.
func (s *CartSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopSubscriptionLocked()
	s.closed = true
}
