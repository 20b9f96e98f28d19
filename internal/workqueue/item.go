package workqueue

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Item is one unit of queued work. Items are never deleted, only
// status-transitioned; Reference is the stable external id used for
// de-duplication.
type Item struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Data      json.RawMessage `json:"data"`
	Status    Status          `json:"status"`
	Message   string          `json:"message,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
