package sheets

import (
	"fmt"
	"strings"

	"textledger/internal/core"
)

// parseRows converts a values matrix into entries. The first row must be the
// header; blank rows are skipped.
func parseRows(values [][]any) ([]core.Entry, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("ledger sheet has no header")
	}
	if !core.IsHeader(toStrings(values[0])) {
		return nil, fmt.Errorf("unexpected ledger header %v", values[0])
	}
	var out []core.Entry
	for i := 1; i < len(values); i++ {
		cols := toStrings(values[i])
		if isBlank(cols) {
			continue
		}
		// Sheets drops trailing empty cells, e.g. an empty description.
		for len(cols) < len(core.Header) {
			cols = append(cols, "")
		}
		e, err := core.EntryFromRecord(cols[:len(core.Header)])
		if err != nil {
			return nil, fmt.Errorf("sheet row %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

// lastFilledRow returns the 1-based sheet row of the last non-blank row.
func lastFilledRow(values [][]any) int {
	for i := len(values) - 1; i >= 0; i-- {
		if !isBlank(toStrings(values[i])) {
			return i + 1
		}
	}
	return 0
}
