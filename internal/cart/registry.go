package cart

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/docstore"
)

// registry shares one document watch per owner among any number of
// subscribers. Each subscriber detaches independently; the underlying watch
// is released when the refcount for its owner reaches zero.
type registry struct {
	docs docstore.Store

	mu     sync.Mutex
	owners map[string]*ownerWatch
	closed bool
}

type ownerWatch struct {
	detach      func()
	done        chan struct{}
	subscribers map[int]chan *Cart
	nextID      int
}

func newRegistry(docs docstore.Store) *registry {
	return &registry{
		docs:   docs,
		owners: make(map[string]*ownerWatch),
	}
}

func (r *registry) subscribe(ctx context.Context, ownerID string) (<-chan *Cart, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ow, ok := r.owners[ownerID]
	if !ok {
		snaps, detachWatch, err := r.docs.Watch(context.WithoutCancel(ctx), cartPath(ownerID))
		if err != nil {
			return nil, nil, err
		}
		ow = &ownerWatch{
			detach:      detachWatch,
			done:        make(chan struct{}),
			subscribers: make(map[int]chan *Cart),
		}
		r.owners[ownerID] = ow
		go r.fanOut(ownerID, ow, snaps)
	}

	ch := make(chan *Cart, 1)
	id := ow.nextID
	ow.nextID++
	ow.subscribers[id] = ch

	detach := func() { r.unsubscribe(ownerID, id) }
	return ch, detach, nil
}

func (r *registry) unsubscribe(ownerID string, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ow, ok := r.owners[ownerID]
	if !ok {
		return
	}
	ch, ok := ow.subscribers[id]
	if !ok {
		return
	}
	delete(ow.subscribers, id)
	close(ch)

	// Last consumer gone: release the remote watch.
	if len(ow.subscribers) == 0 {
		delete(r.owners, ownerID)
		close(ow.done)
		ow.detach()
	}
}

// fanOut relays decoded snapshots from the shared watch to every
// subscriber. A slow subscriber only ever misses intermediate states; the
// single-slot channel always holds the latest one.
func (r *registry) fanOut(ownerID string, ow *ownerWatch, snaps <-chan docstore.Snapshot) {
	for {
		select {
		case <-ow.done:
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			cart := decodeCartSnapshot(snap)
			r.mu.Lock()
			for _, ch := range ow.subscribers {
				select {
				case ch <- cart:
				default:
					select {
					case <-ch:
					default:
					}
					ch <- cart
				}
			}
			r.mu.Unlock()
		}
	}
}

func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for ownerID, ow := range r.owners {
		for id, ch := range ow.subscribers {
			delete(ow.subscribers, id)
			close(ch)
		}
		close(ow.done)
		ow.detach()
		delete(r.owners, ownerID)
	}
}
