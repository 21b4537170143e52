package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

// Type names a ledger mutation. It doubles as the AMQP routing key suffix.
type Type string

const (
	EntryAdded  Type = "entry.added"
	EntryUndone Type = "entry.undone"
)

// LedgerEvent describes one Add or Undo applied to a ledger.
type LedgerEvent struct {
	ID        string       `json:"id"`
	Type      Type         `json:"type"`
	Owner     string       `json:"owner"`
	Year      int          `json:"year"`
	Entry     EntryPayload `json:"entry"`
	Timestamp time.Time    `json:"timestamp"`
}

// EntryPayload is the wire form of core.Entry; amounts travel as fixed
// two-decimal strings.
type EntryPayload struct {
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

func newEvent(t Type, key ledger.Key, e core.Entry) *LedgerEvent {
	return &LedgerEvent{
		ID:    uuid.NewString(),
		Type:  t,
		Owner: key.Owner,
		Year:  key.Year,
		Entry: EntryPayload{
			Month:       e.Month,
			Day:         e.Day,
			Amount:      e.Amount.String(),
			Category:    e.Category,
			Description: e.Description,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewEntryAdded builds the event for an appended entry.
func NewEntryAdded(key ledger.Key, e core.Entry) *LedgerEvent {
	return newEvent(EntryAdded, key, e)
}

// NewEntryUndone builds the event for a removed entry.
func NewEntryUndone(key ledger.Key, e core.Entry) *LedgerEvent {
	return newEvent(EntryUndone, key, e)
}

// Key returns the ledger the event applies to.
func (m *LedgerEvent) Key() ledger.Key {
	return ledger.Key{Owner: m.Owner, Year: m.Year}
}

// CoreEntry converts the payload back into a validated entry.
func (m *LedgerEvent) CoreEntry() (core.Entry, error) {
	amt, err := core.ParseAmount(m.Entry.Amount)
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{
		Month:       m.Entry.Month,
		Day:         m.Entry.Day,
		Amount:      amt,
		Category:    m.Entry.Category,
		Description: m.Entry.Description,
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes an event and checks it carries a known type.
func FromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EntryAdded, EntryUndone:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
