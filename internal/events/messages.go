package events

import (
	"encoding/json"
	"time"
)

// Kinds of committed mutation announced on the change feed.
const (
	OpCreated  = "created"
	OpUpdated  = "updated"
	OpDeleted  = "deleted"
	OpImported = "imported"
	OpReplaced = "replaced"
	OpCleared  = "cleared"
	OpSettings = "settings_updated"
)

// Change announces a committed mutation. Single-record changes carry the
// record ID; bulk changes carry the number of records affected.
type Change struct {
	Op        string    `json:"op"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChange creates a change message stamped with the current time
func NewChange(op, id string, count int) *Change {
	return &Change{
		Op:        op,
		ID:        id,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (c *Change) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// ChangeFromJSON creates a message from JSON bytes
func ChangeFromJSON(data []byte) (*Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
