// Package events defines the domain events emitted after a balance-moving
// transaction commits, and the publisher abstraction for delivering them.
// Publishing is best-effort: a committed transaction is never failed because
// its event could not be delivered.
package events

import (
	"context"
	"time"
)

// TransactionRecorded is emitted once per committed balance-moving
// transaction. Account and debt references are string UUIDs so consumers
// don't need the domain types.
type TransactionRecorded struct {
	TransactionID      string    `json:"transactionId"`
	Type               string    `json:"type"`
	Amount             float64   `json:"amount"`
	SourceAccount      string    `json:"sourceAccount,omitempty"`
	DestinationAccount string    `json:"destinationAccount,omitempty"`
	Debt               string    `json:"debt,omitempty"`
	RecordedAt         time.Time `json:"recordedAt"`
}

// Publisher delivers domain events to an external broker.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, event *TransactionRecorded) error

	// Close releases broker resources.
	Close() error
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransactionRecorded(context.Context, *TransactionRecorded) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
