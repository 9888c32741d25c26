// internal/adapters/out/firestore/cart_mirror_fs.go
package firestore

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	cartdom "heartwood/internal/domain/cart"
)

// CartMirrorFS implements cart.Mirror on Firestore.
//
// Collection design (mirrors the storefront client):
// - users/{uid}/carts
// - one document per line: {productId, quantity}
// - docId: auto-generated, opaque; targeted update/delete only
//
// At most one document per productId should exist. When the store violates
// that, the first match wins and the violation is logged.
type CartMirrorFS struct {
	Client   *firestore.Client
	UsersCol string
	CartsCol string
}

func NewCartMirrorFS(client *firestore.Client) *CartMirrorFS {
	return &CartMirrorFS{
		Client:   client,
		UsersCol: "users",
		CartsCol: "carts",
	}
}

type lineDoc struct {
	ProductID string `firestore:"productId"`
	Quantity  int    `firestore:"quantity"`
}

func (m *CartMirrorFS) col(uid string) *firestore.CollectionRef {
	users := strings.TrimSpace(m.UsersCol)
	if users == "" {
		users = "users"
	}
	carts := strings.TrimSpace(m.CartsCol)
	if carts == "" {
		carts = "carts"
	}
	return m.Client.Collection(users).Doc(uid).Collection(carts)
}

func (m *CartMirrorFS) ready(uid string) (string, error) {
	if m == nil || m.Client == nil {
		return "", errors.New("cart_mirror_fs: firestore client is nil")
	}
	u := strings.TrimSpace(uid)
	if u == "" {
		return "", errors.New("cart_mirror_fs: uid is empty")
	}
	return u, nil
}

// resolve finds the existing line document for productID.
// Returns (nil, 0, nil) when no line exists.
func (m *CartMirrorFS) resolve(ctx context.Context, uid, productID string) (*firestore.DocumentRef, int, error) {
	iter := m.col(uid).Where("productId", "==", productID).Documents(ctx)
	defer iter.Stop()

	var ref *firestore.DocumentRef
	qty := 0
	matches := 0

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		matches++
		if matches == 1 {
			ref = snap.Ref
			var d lineDoc
			if derr := snap.DataTo(&d); derr == nil {
				qty = d.Quantity
			}
		}
	}

	if matches > 1 {
		// data-integrity violation; first match used
		log.Printf("[cart_mirror] WARN: %d line docs for uid=%s productId=%s, using first", matches, uid, productID)
	}
	return ref, qty, nil
}

// Add increments quantity for productID, creating the line doc when absent.
func (m *CartMirrorFS) Add(ctx context.Context, uid, productID string, qty int) error {
	u, err := m.ready(uid)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" || qty <= 0 {
		return cartdom.ErrInvalidLine
	}

	ref, existing, err := m.resolve(ctx, u, pid)
	if err != nil {
		return err
	}

	if ref != nil {
		_, err = ref.Update(ctx, []firestore.Update{
			{Path: "quantity", Value: existing + qty},
		})
		return err
	}

	_, err = m.col(u).NewDoc().Set(ctx, lineDoc{ProductID: pid, Quantity: qty})
	return err
}

// SetQuantity sets the exact quantity; qty <= 0 deletes the line.
func (m *CartMirrorFS) SetQuantity(ctx context.Context, uid, productID string, qty int) error {
	u, err := m.ready(uid)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return cartdom.ErrInvalidLine
	}

	if qty <= 0 {
		return m.Remove(ctx, u, pid)
	}

	ref, _, err := m.resolve(ctx, u, pid)
	if err != nil {
		return err
	}

	if ref != nil {
		_, err = ref.Update(ctx, []firestore.Update{
			{Path: "quantity", Value: qty},
		})
		return err
	}

	_, err = m.col(u).NewDoc().Set(ctx, lineDoc{ProductID: pid, Quantity: qty})
	return err
}

// Remove deletes the line for productID. Absent lines are a no-op.
func (m *CartMirrorFS) Remove(ctx context.Context, uid, productID string) error {
	u, err := m.ready(uid)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return cartdom.ErrInvalidLine
	}

	ref, _, err := m.resolve(ctx, u, pid)
	if err != nil {
		return err
	}
	if ref == nil {
		return nil
	}

	_, err = ref.Delete(ctx)
	return err
}

// Clear deletes every line doc of the user in one batch.
func (m *CartMirrorFS) Clear(ctx context.Context, uid string) error {
	u, err := m.ready(uid)
	if err != nil {
		return err
	}

	iter := m.col(u).Documents(ctx)
	defer iter.Stop()

	batch := m.Client.Batch()
	n := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		batch.Delete(snap.Ref)
		n++
	}
	if n == 0 {
		return nil
	}

	_, err = batch.Commit(ctx)
	return err
}

// Merge applies all ops in one atomic WriteBatch: either every line is
// written or none is.
func (m *CartMirrorFS) Merge(ctx context.Context, uid string, ops []cartdom.MergeOp) error {
	u, err := m.ready(uid)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	batch := m.Client.Batch()
	for _, op := range ops {
		pid := strings.TrimSpace(op.ProductID)
		if pid == "" || op.Quantity <= 0 {
			return cartdom.ErrInvalidLine
		}

		if docID := strings.TrimSpace(op.DocID); docID != "" {
			batch.Update(m.col(u).Doc(docID), []firestore.Update{
				{Path: "quantity", Value: op.Quantity},
			})
			continue
		}
		batch.Set(m.col(u).NewDoc(), lineDoc{ProductID: pid, Quantity: op.Quantity})
	}

	_, err = batch.Commit(ctx)
	return err
}

// Subscribe opens a live snapshot stream over the user's cart lines.
// Every delivered element is the full current line set; the first element,
// empty or not, marks the initial load as complete.
func (m *CartMirrorFS) Subscribe(ctx context.Context, uid string) (cartdom.Subscription, error) {
	u, err := m.ready(uid)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := &mirrorSubscription{
		updates: make(chan cartdom.RemoteSnapshot, 1),
		cancel:  cancel,
	}

	go sub.run(streamCtx, m.col(u).Snapshots(streamCtx), u)
	return sub, nil
}

type mirrorSubscription struct {
	updates chan cartdom.RemoteSnapshot
	cancel  context.CancelFunc

	mu  sync.Mutex
	err error

	stopOnce sync.Once
}

func (s *mirrorSubscription) run(ctx context.Context, it *firestore.QuerySnapshotIterator, uid string) {
	defer close(s.updates)
	defer it.Stop()

	for {
		qsnap, err := it.Next()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[cart_mirror] WARN: snapshot stream failed uid=%s err=%v", uid, err)
				s.setErr(err)
			}
			return
		}

		lines, err := linesFromQuerySnapshot(qsnap)
		if err != nil {
			log.Printf("[cart_mirror] WARN: snapshot parse failed uid=%s err=%v", uid, err)
			s.setErr(err)
			return
		}

		s.push(cartdom.RemoteSnapshot{Lines: lines})
	}
}

// push delivers snap, replacing an undelivered older snapshot. Only the
// latest full view matters to the consumer.
func (s *mirrorSubscription) push(snap cartdom.RemoteSnapshot) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *mirrorSubscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *mirrorSubscription) Updates() <-chan cartdom.RemoteSnapshot {
	return s.updates
}

func (s *mirrorSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *mirrorSubscription) Stop() {
	s.stopOnce.Do(s.cancel)
}

func linesFromQuerySnapshot(qsnap *firestore.QuerySnapshot) ([]cartdom.RemoteLine, error) {
	if qsnap == nil {
		return nil, errors.New("cart_mirror_fs: query snapshot is nil")
	}

	out := []cartdom.RemoteLine{}
	iter := qsnap.Documents
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var d lineDoc
		if err := snap.DataTo(&d); err != nil {
			// malformed line doc: skip, keep the rest of the snapshot
			log.Printf("[cart_mirror] WARN: malformed line doc id=%s err=%v", snap.Ref.ID, err)
			continue
		}
		if strings.TrimSpace(d.ProductID) == "" || d.Quantity <= 0 {
			continue
		}

		out = append(out, cartdom.RemoteLine{
			DocID:     snap.Ref.ID,
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
		})
	}
	return out, nil
}
