package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrWatchNotSupported = errors.New("backend does not support live watches")
)

// Snapshot is the state of a single document at one point in time.
// A snapshot for a missing document reports Exists() == false.
type Snapshot struct {
	Path string
	data json.RawMessage
}

// NewSnapshot builds a snapshot from raw JSON. A nil raw value means the
// document does not exist.
func NewSnapshot(path string, raw json.RawMessage) Snapshot {
	return Snapshot{Path: path, data: raw}
}

func (s Snapshot) Exists() bool {
	return len(s.data) > 0
}

// Decode unmarshals the document into v. Decoding a missing document is an
// error; callers check Exists() first.
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return errors.New("document does not exist: " + s.Path)
	}
	return json.Unmarshal(s.data, v)
}

// Raw returns the document body as stored, or nil if the document is missing.
func (s Snapshot) Raw() json.RawMessage {
	return s.data
}

// Store is a path-addressed JSON document store. Paths are slash-separated,
// e.g. "products/abc123"; List and Push address a collection ("products").
// Writes replace the whole document; there is no partial update and no
// compare-and-swap, so concurrent writers to the same path race and the
// last write wins.
type Store interface {
	// Get reads the document at path. A missing document is not an error;
	// the returned snapshot reports Exists() == false.
	Get(ctx context.Context, path string) (Snapshot, error)

	// Set writes value (JSON-marshalled) as the whole document at path.
	Set(ctx context.Context, path string, value any) error

	// Delete removes the document at path. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, path string) error

	// Push writes value under path with a store-assigned key and returns
	// that key.
	Push(ctx context.Context, path string, value any) (string, error)

	// List returns the direct children of path keyed by child key.
	List(ctx context.Context, path string) (map[string]Snapshot, error)

	// Watch delivers a snapshot of the document at path on every change,
	// starting with the current state. The returned detach func releases
	// the watcher; the channel is closed afterwards. Rapid successive
	// writes may be observed as a single latest-state snapshot.
	Watch(ctx context.Context, path string) (<-chan Snapshot, func(), error)
}

// Composite pairs a read/write store with a separate store that serves
// watches. Used when the write backend has no change stream of its own and
// watches are served from a mirror kept current by the change feed.
type Composite struct {
	Store
	Watcher Store
}

func (c Composite) Watch(ctx context.Context, path string) (<-chan Snapshot, func(), error) {
	return c.Watcher.Watch(ctx, path)
}
