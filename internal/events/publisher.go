// Package events announces ledger mutations over AMQP so that mirrors (such
// as the Sheets worker) can follow the primary store.
package events

import "context"

// Publisher delivers ledger events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev *LedgerEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *LedgerEvent) error { return nil }
