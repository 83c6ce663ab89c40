package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SyncRequest asks a worker to pull the live transactions and replace the
// local snapshot. The worker does the fetching; the message only carries
// identity.
type SyncRequest struct {
	JobID       uuid.UUID `json:"job_id"`
	Source      string    `json:"source"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewSyncRequest creates a request with a fresh job id
func NewSyncRequest(source string) *SyncRequest {
	return &SyncRequest{
		JobID:       uuid.New(),
		Source:      source,
		RequestedAt: time.Now().UTC(),
	}
}

// Validate rejects messages a worker cannot act on.
func (m *SyncRequest) Validate() error {
	if m.JobID == uuid.Nil {
		return errors.New("sync request has no job id")
	}
	if m.Source == "" {
		return errors.New("sync request has no source")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *SyncRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestFromJSON creates a message from JSON bytes
func SyncRequestFromJSON(data []byte) (*SyncRequest, error) {
	var msg SyncRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
