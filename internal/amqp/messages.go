package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartspend/internal/core"

	"github.com/google/uuid"
)

// TransactionSyncMessage asks the worker to push one locally stored
// transaction to the remote ledger. The worker reloads the row by ID and
// skips it when the stored version has moved on.
type TransactionSyncMessage struct {
	EventID   string    `json:"event_id"`
	ID        int64     `json:"id"`
	Kind      core.Kind `json:"kind"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id int64, kind core.Kind, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		EventID:   uuid.NewString(),
		ID:        id,
		Kind:      kind,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionSyncMessage) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("invalid transaction id %d", m.ID)
	}
	if m.Version <= 0 {
		return fmt.Errorf("invalid version %d", m.Version)
	}
	return m.Kind.Validate()
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes and validates a message body.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Join(errors.New("invalid sync message"), err)
	}
	return &msg, nil
}
