// Package ledger defines the append-only ledger store shared by all backends.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"textledger/internal/core"
)

// Store is an append-only sequence of entries per Key.
//
// Implementations must never expose or remove the header record and must
// report a missing ledger from Entries as core.ErrNotFound. Undo on a ledger
// with no data rows (or no ledger at all) returns core.ErrUndoUnderflow.
type Store interface {
	// Append adds e to the ledger, creating it with only the header first if needed.
	Append(ctx context.Context, key Key, e core.Entry) error
	// Entries returns the data rows in append order.
	Entries(ctx context.Context, key Key) ([]core.Entry, error)
	// Undo removes and returns the most recently appended entry.
	Undo(ctx context.Context, key Key) (core.Entry, error)
	// Exists reports whether the ledger has been created.
	Exists(ctx context.Context, key Key) (bool, error)
}

// Key identifies one ledger: a sender and a calendar year.
type Key struct {
	Owner string
	Year  int
}

// NewKey builds a key for sender, sanitizing it for use in file and sheet names.
func NewKey(sender string, year int) Key {
	return Key{Owner: SanitizeOwner(sender), Year: year}
}

// String renders the key as <owner>_<year>.
func (k Key) String() string {
	return k.Owner + "_" + strconv.Itoa(k.Year)
}

// SanitizeOwner makes s safe for file and sheet names. Letters, digits, '+'
// and '-' are kept; every other byte, including '_', becomes "_" followed by
// two lowercase hex digits, so distinct senders never share an owner. An
// empty sender maps to "_", which no escape can produce.
func SanitizeOwner(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '+', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}
