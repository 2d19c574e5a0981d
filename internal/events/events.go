// Package events publishes ledger change notifications for downstream
// consumers (sync workers, audit trails). Publishing is best-effort:
// services log failures and never fail the originating operation.
package events

import (
	"context"
	"encoding/json"
	"time"
)

type Kind string

const (
	KindTransactionCreated Kind = "transaction.created"
	KindTransactionDeleted Kind = "transaction.deleted"
	KindTransferCompleted  Kind = "transfer.completed"
	KindDebtPaid           Kind = "debt.paid"
	KindRecurringSettled   Kind = "recurring.settled"
	KindRecurringSkipped   Kind = "recurring.skipped"
)

// Message is the lightweight notification payload: ids only, consumers
// fetch full records themselves.
type Message struct {
	Kind        Kind      `json:"kind"`
	EntityID    string    `json:"entity_id"`
	AccountID   string    `json:"account_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage stamps a message with the current time.
func NewMessage(kind Kind, entityID, accountID string, amountCents int64) Message {
	return Message{
		Kind:        kind,
		EntityID:    entityID,
		AccountID:   accountID,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON serializes the message for the wire.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Publisher delivers messages to a broker. Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
	Close() error
}
