// Package worker applies ledger events to a secondary store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"textledger/internal/cache"
	"textledger/internal/core"
	"textledger/internal/events"
	"textledger/internal/ledger"
	"textledger/internal/log"
)

const (
	seenSize = 1024
	seenTTL  = time.Hour
)

// MirrorWorker replays Add and Undo events onto target, so the target ends
// up with the same entries as the primary store. Events are expected in
// publish order, one at a time.
type MirrorWorker struct {
	target ledger.Store
	logger *log.Logger
	// seen holds recently applied event IDs so redeliveries are not applied twice.
	seen *cache.LRUCache[struct{}]
}

func NewMirrorWorker(target ledger.Store, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		target: target,
		logger: logger.WithComponent(log.ComponentWorker),
		seen:   cache.NewLRUCache[struct{}](seenSize, seenTTL),
	}
}

// Seen exposes the dedupe cache for periodic expiry.
func (w *MirrorWorker) Seen() cache.Cleaner {
	return w.seen
}

// HandleEvent applies one event. A returned error requeues it.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *events.LedgerEvent) error {
	if _, ok := w.seen.Get(ev.ID); ok {
		w.logger.DebugContext(ctx, "Skipping already mirrored event", "id", ev.ID)
		return nil
	}

	entry, err := ev.CoreEntry()
	if err != nil {
		// Malformed payloads will never succeed; drop them.
		w.logger.ErrorContext(ctx, "Dropping invalid ledger event", "id", ev.ID, log.FieldError, err)
		return nil
	}
	key := ev.Key()

	switch ev.Type {
	case events.EntryAdded:
		if err := w.target.Append(ctx, key, entry); err != nil {
			return fmt.Errorf("mirror append: %w", err)
		}
	case events.EntryUndone:
		removed, err := w.target.Undo(ctx, key)
		if errors.Is(err, core.ErrUndoUnderflow) {
			w.logger.WarnContext(ctx, "Mirror has nothing to undo",
				log.FieldLedger, key.String(), "id", ev.ID)
			break
		}
		if err != nil {
			return fmt.Errorf("mirror undo: %w", err)
		}
		if !sameEntry(removed, entry) {
			w.logger.WarnContext(ctx, "Mirror removed a different entry than the primary",
				log.FieldLedger, key.String(),
				"expected", entry.Record(),
				"removed", removed.Record())
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	w.seen.Set(ev.ID, struct{}{})
	w.logger.InfoContext(ctx, "Mirrored ledger event",
		log.FieldOperation, log.OpMirror,
		log.FieldEventType, ev.Type,
		log.FieldLedger, key.String())
	return nil
}

func sameEntry(a, b core.Entry) bool {
	return a.Month == b.Month && a.Day == b.Day && a.Amount.Equal(b.Amount) &&
		a.Category == b.Category && a.Description == b.Description
}
