package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType doubles as the routing key on the ledger exchange.
type EventType string

const (
	EventTransactionRecorded EventType = "transaction.recorded"
	EventTransactionDeleted  EventType = "transaction.deleted"
	EventTransferCompleted   EventType = "transfer.completed"
	EventHoldCreated         EventType = "hold.created"
	EventHoldResolved        EventType = "hold.resolved"
	EventHoldRemoved         EventType = "hold.removed"
	EventRecurringApplied    EventType = "recurring.applied"
	EventRecurringSkipped    EventType = "recurring.skipped"
	EventBudgetWeeklyReport  EventType = "budget.weekly_report"
)

// LedgerEvent is the envelope published for every ledger change.
type LedgerEvent struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	UserID     int64           `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewLedgerEvent wraps payload in an envelope with a fresh id.
func NewLedgerEvent(typ EventType, userID int64, payload any) (*LedgerEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		raw = b
	}
	return &LedgerEvent{
		ID:         uuid.New(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Decode unmarshals the payload into v.
func (e *LedgerEvent) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	return json.Unmarshal(e.Payload, v)
}

// LedgerEventFromJSON parses an envelope and rejects ones without id or type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil || e.Type == "" {
		return nil, fmt.Errorf("event missing id or type")
	}
	return &e, nil
}
