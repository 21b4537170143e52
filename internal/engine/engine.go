// Package engine executes parsed commands against a ledger store and turns
// every outcome, including failures, into a reply.
package engine

import (
	"context"
	"errors"
	"time"

	"textledger/internal/chart"
	"textledger/internal/command"
	"textledger/internal/core"
	"textledger/internal/events"
	"textledger/internal/ledger"
	"textledger/internal/lock"
	"textledger/internal/log"
	"textledger/internal/report"
)

// Message is one inbound text.
type Message struct {
	From string
	Body string
}

// Reply is the outbound text plus an optional media reference.
type Reply struct {
	Text  string
	Media string
}

// Config tunes policy values. Zero values select the defaults.
type Config struct {
	OtherThreshold float64
	Lookback       time.Duration
	Now            func() time.Time
}

type Engine struct {
	store     ledger.Store
	charts    chart.Renderer
	publisher events.Publisher
	logger    *log.Logger

	parser    *command.Parser
	locks     *lock.Keyed
	now       func() time.Time
	threshold float64
}

// New wires an engine. charts and publisher may be nil.
func New(store ledger.Store, charts chart.Renderer, publisher events.Publisher, logger *log.Logger, cfg Config) *Engine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	threshold := cfg.OtherThreshold
	if threshold <= 0 {
		threshold = report.DefaultOtherThreshold
	}
	return &Engine{
		store:     store,
		charts:    charts,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentEngine),
		parser:    &command.Parser{Now: now, Lookback: cfg.Lookback},
		locks:     lock.NewKeyed(),
		now:       now,
		threshold: threshold,
	}
}

// Handle processes msg. It never fails; errors become reply text.
func (e *Engine) Handle(ctx context.Context, msg Message) Reply {
	cmd, err := e.parser.Parse(msg.Body)
	if err != nil {
		e.logger.InfoContext(ctx, "Rejected message",
			log.FieldOperation, log.OpParse,
			log.FieldSender, msg.From,
			log.FieldError, err)
		return Reply{Text: failureText(err)}
	}

	switch cmd.Kind {
	case command.Add:
		return e.add(ctx, msg.From, cmd)
	case command.Undo:
		return e.undo(ctx, msg.From)
	case command.Report:
		return e.report(ctx, msg.From, cmd)
	case command.Help:
		return Reply{Text: helpText}
	default:
		return Reply{Text: unrecognizedText}
	}
}

func (e *Engine) add(ctx context.Context, from string, cmd command.Command) Reply {
	now := e.now()
	key := ledger.NewKey(from, now.Year())
	entry := core.Entry{
		Month:       int(now.Month()),
		Day:         now.Day(),
		Amount:      cmd.Amount,
		Category:    cmd.Category,
		Description: cmd.Description,
	}

	total, err := e.appendEntry(ctx, key, entry)
	if err != nil {
		return e.fail(ctx, log.OpAdd, key, err)
	}

	e.logger.InfoContext(ctx, "Entry added",
		log.FieldLedger, key.String(),
		log.FieldAmount, entry.Amount.String(),
		log.FieldCategory, entry.Category)
	e.publish(ctx, events.NewEntryAdded(key, entry))

	return Reply{Text: addedText(entry.Amount, entry.Category, total)}
}

// appendEntry computes the month's running total for the category and appends
// entry while holding the ledger lock. The returned total includes entry.
func (e *Engine) appendEntry(ctx context.Context, key ledger.Key, entry core.Entry) (core.Amount, error) {
	unlock, err := e.locks.Lock(ctx, key.String())
	if err != nil {
		return core.Amount{}, err
	}
	defer unlock()

	existing, err := e.store.Entries(ctx, key)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Amount{}, err
	}

	var total core.Amount
	for _, x := range existing {
		if x.Month == entry.Month && x.Category == entry.Category {
			total = total.Add(x.Amount)
		}
	}

	if err := e.store.Append(ctx, key, entry); err != nil {
		return core.Amount{}, err
	}
	return total.Add(entry.Amount), nil
}

func (e *Engine) undo(ctx context.Context, from string) Reply {
	key := ledger.NewKey(from, e.now().Year())

	removed, err := e.removeLast(ctx, key)
	if errors.Is(err, core.ErrUndoUnderflow) {
		return Reply{Text: nothingToUndo}
	}
	if err != nil {
		return e.fail(ctx, log.OpUndo, key, err)
	}

	e.logger.InfoContext(ctx, "Entry undone",
		log.FieldLedger, key.String(),
		log.FieldAmount, removed.Amount.String(),
		log.FieldCategory, removed.Category)
	e.publish(ctx, events.NewEntryUndone(key, removed))

	return Reply{Text: undoneText(removed)}
}

func (e *Engine) removeLast(ctx context.Context, key ledger.Key) (core.Entry, error) {
	unlock, err := e.locks.Lock(ctx, key.String())
	if err != nil {
		return core.Entry{}, err
	}
	defer unlock()
	return e.store.Undo(ctx, key)
}

func (e *Engine) report(ctx context.Context, from string, cmd command.Command) Reply {
	key := ledger.NewKey(from, cmd.Year)

	items, err := e.readEntries(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return Reply{Text: noLedgerText}
	}
	if err != nil {
		return e.fail(ctx, log.OpReport, key, err)
	}

	summary, err := report.Aggregate(items, cmd.Month, cmd.Year)
	var empty *core.EmptyResultError
	if errors.As(err, &empty) {
		return Reply{Text: emptyResultText(empty)}
	}
	if err != nil {
		return e.fail(ctx, log.OpReport, key, err)
	}

	reply := Reply{Text: summary.Text()}
	if e.charts != nil {
		ref, err := e.charts.Render(ctx, key.Owner, summary.Series(e.threshold))
		switch {
		case err == nil:
			reply.Media = ref
		case errors.Is(err, chart.ErrNothingToDraw):
		default:
			e.logger.ErrorContext(ctx, "Chart rendering failed",
				log.FieldOperation, log.OpRender,
				log.FieldLedger, key.String(),
				log.FieldError, err)
		}
	}

	e.logger.InfoContext(ctx, "Report generated",
		log.FieldLedger, key.String(),
		log.FieldMonth, int(cmd.Month),
		log.FieldEntries, len(items),
		log.FieldChart, reply.Media)
	return reply
}

func (e *Engine) readEntries(ctx context.Context, key ledger.Key) ([]core.Entry, error) {
	unlock, err := e.locks.Lock(ctx, key.String())
	if err != nil {
		return nil, err
	}
	defer unlock()
	return e.store.Entries(ctx, key)
}

func (e *Engine) publish(ctx context.Context, ev *events.LedgerEvent) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, ev.Type,
			log.FieldLedger, ev.Key().String(),
			log.FieldError, err)
	}
}

func (e *Engine) fail(ctx context.Context, op string, key ledger.Key, err error) Reply {
	e.logger.ErrorContext(ctx, "Command failed",
		log.FieldOperation, op,
		log.FieldLedger, key.String(),
		log.FieldError, err)
	return Reply{Text: failureText(err)}
}
