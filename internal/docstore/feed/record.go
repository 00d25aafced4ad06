package feed

import (
	"encoding/json"
	"time"
)

// Record is one document change on the feed topic. Records are keyed by
// document path, so changes to the same document stay in one partition and
// are observed in write order.
type Record struct {
	Path      string          `json:"path"`
	Doc       json.RawMessage `json:"doc,omitempty"`
	Deleted   bool            `json:"deleted,omitempty"`
	ChangedAt time.Time       `json:"changed_at"`
}
