package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Actions carried by a TransactionEvent.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// TransactionEvent is a lightweight notification that a ledger transaction
// changed. It carries only identifiers; consumers fetch the full row from the
// database when they need it.
type TransactionEvent struct {
	MessageID     string    `json:"messageId"`
	TransactionID int64     `json:"transactionId"`
	Action        string    `json:"action"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewTransactionEvent(transactionID int64, action string) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		TransactionID: transactionID,
		Action:        action,
		OccurredAt:    time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
