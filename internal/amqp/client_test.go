package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionEvent(t *testing.T) {
	event := NewTransactionEvent(12345, ActionCreate)

	if event.TransactionID != 12345 {
		t.Errorf("NewTransactionEvent() TransactionID = %v, want %v", event.TransactionID, 12345)
	}
	if event.Action != ActionCreate {
		t.Errorf("NewTransactionEvent() Action = %v, want %v", event.Action, ActionCreate)
	}
	if event.MessageID == "" {
		t.Error("NewTransactionEvent() MessageID should not be empty")
	}
	if event.OccurredAt.IsZero() {
		t.Error("NewTransactionEvent() OccurredAt should not be zero")
	}
	if time.Since(event.OccurredAt) > time.Second {
		t.Error("NewTransactionEvent() OccurredAt should be recent")
	}
}

func TestTransactionEvent_JSON(t *testing.T) {
	occurredAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	event := &TransactionEvent{
		MessageID:     "7d4f8b6a-0000-0000-0000-000000000000",
		TransactionID: 12345,
		Action:        ActionUpdate,
		OccurredAt:    occurredAt,
	}

	jsonBytes, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}

	if parsed.MessageID != event.MessageID {
		t.Errorf("Parsed MessageID = %v, want %v", parsed.MessageID, event.MessageID)
	}
	if parsed.TransactionID != event.TransactionID {
		t.Errorf("Parsed TransactionID = %v, want %v", parsed.TransactionID, event.TransactionID)
	}
	if parsed.Action != event.Action {
		t.Errorf("Parsed Action = %v, want %v", parsed.Action, event.Action)
	}
	if !parsed.OccurredAt.Equal(event.OccurredAt) {
		t.Errorf("Parsed OccurredAt = %v, want %v", parsed.OccurredAt, event.OccurredAt)
	}
}

func TestTransactionEvent_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"transactionId": "not_a_number", "action": "create"}`)

	_, err := TransactionEventFromJSON(invalidJSON)
	if err == nil {
		t.Error("TransactionEventFromJSON() should fail with invalid JSON")
	}
}
