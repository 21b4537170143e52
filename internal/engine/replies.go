package engine

import (
	"fmt"

	"textledger/internal/core"
)

const (
	helpText = "Send one of:\n" +
		"<amount> <category> [description] - record spending, e.g. 12.50 food lunch\n" +
		"undo - remove your last entry\n" +
		"report - this month so far\n" +
		"report last - the month four weeks ago\n" +
		"report <year> - a whole year, e.g. report 2025\n" +
		"aid - show this message"

	unrecognizedText = "There was a problem - You probably didn't have enough arguments. Try again or send 'aid' for help."
	nothingToUndo    = "Nothing to undo."
	noLedgerText     = "No entries for that year."
)

func addedText(amount core.Amount, category string, total core.Amount) string {
	return fmt.Sprintf("%s spent on %s\n\n%s spent on %s in total this month",
		amount.Dollars(), category, total.Dollars(), category)
}

func undoneText(e core.Entry) string {
	return fmt.Sprintf("Deleted %s on %s (%d/%d %q). Hopefully you meant to do that.",
		e.Amount.Dollars(), e.Category, e.Month, e.Day, e.Description)
}

func emptyResultText(err *core.EmptyResultError) string {
	return fmt.Sprintf("No entries for that %s, are you sure you meant %d?", err.Selector.Label(), err.Value())
}

func failureText(err error) string {
	return "There was a problem. Try again or send 'aid' for help.\nError: " + err.Error()
}
