package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory document store with in-process watch fanout.
// Used in tests and single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]json.RawMessage
	watchers map[string]map[int]chan Snapshot
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]json.RawMessage),
		watchers: make(map[string]map[int]chan Snapshot),
	}
}

func (ms *MemoryStore) Get(_ context.Context, path string) (Snapshot, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return NewSnapshot(path, ms.docs[path]), nil
}

func (ms *MemoryStore) Set(_ context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	ms.docs[path] = raw
	ms.notifyLocked(path)
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, path string) error {
	ms.mu.Lock()
	delete(ms.docs, path)
	ms.notifyLocked(path)
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.New().String()
	if err := ms.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (ms *MemoryStore) List(_ context.Context, path string) (map[string]Snapshot, error) {
	prefix := path + "/"

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	children := make(map[string]Snapshot)
	for p, raw := range ms.docs {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		key := strings.TrimPrefix(p, prefix)
		if strings.Contains(key, "/") {
			continue // grandchild, not a direct child
		}
		children[key] = NewSnapshot(p, raw)
	}
	return children, nil
}

func (ms *MemoryStore) Watch(_ context.Context, path string) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)

	ms.mu.Lock()
	id := ms.nextID
	ms.nextID++
	if ms.watchers[path] == nil {
		ms.watchers[path] = make(map[int]chan Snapshot)
	}
	ms.watchers[path][id] = ch
	ch <- NewSnapshot(path, ms.docs[path])
	ms.mu.Unlock()

	detach := func() {
		ms.mu.Lock()
		defer ms.mu.Unlock()
		if _, ok := ms.watchers[path][id]; !ok {
			return
		}
		delete(ms.watchers[path], id)
		close(ch)
	}
	return ch, detach, nil
}

// notifyLocked delivers the current state of path to its watchers. The
// single-slot channel coalesces rapid successive writes into the latest
// snapshot, which the watch contract allows.
func (ms *MemoryStore) notifyLocked(path string) {
	snap := NewSnapshot(path, ms.docs[path])
	for _, ch := range ms.watchers[path] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
