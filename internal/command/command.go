// Package command turns an inbound message body into a typed command.
//
// Dispatch looks only at the first whitespace token:
//
//	<amount> <category> [description...]   add an entry
//	undo                                     remove the last entry
//	report|rep [last|<year>]                 summarize spending
//	aid                                      usage help
//
// Anything else is Unrecognized.
package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"textledger/internal/core"
)

// DefaultLookback is how far back "report last" reaches.
const DefaultLookback = 4 * 7 * 24 * time.Hour

type Kind int

const (
	Unrecognized Kind = iota
	Add
	Undo
	Report
	Help
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Undo:
		return "undo"
	case Report:
		return "report"
	case Help:
		return "help"
	default:
		return "unrecognized"
	}
}

// Command is a parsed message. Only the fields relevant to Kind are set.
type Command struct {
	Kind Kind

	// Add
	Amount      core.Amount
	Category    string
	Description string

	// Report
	Month core.MonthSelector
	Year  int
}

// Parser resolves relative report targets against its clock.
type Parser struct {
	Now      func() time.Time
	Lookback time.Duration
}

// NewParser returns a parser on the wall clock with the given lookback.
// A non-positive lookback falls back to DefaultLookback.
func NewParser(lookback time.Duration) *Parser {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Parser{Now: time.Now, Lookback: lookback}
}

// Parse classifies body. Errors wrap core.ErrParse or core.ErrValidation.
func (p *Parser) Parse(body string) (Command, error) {
	tokens := strings.Fields(strings.ToLower(body))
	if len(tokens) == 0 {
		return Command{Kind: Unrecognized}, nil
	}

	first := tokens[0]
	if looksNumeric(first) {
		return parseAdd(tokens)
	}

	switch first {
	case "undo":
		return Command{Kind: Undo}, nil
	case "report", "rep":
		return p.parseReport(tokens[1:])
	case "aid":
		return Command{Kind: Help}, nil
	default:
		return Command{Kind: Unrecognized}, nil
	}
}

func parseAdd(tokens []string) (Command, error) {
	amt, err := core.ParseAmount(strings.TrimPrefix(tokens[0], "$"))
	if err != nil {
		return Command{}, err
	}
	if len(tokens) < 2 {
		return Command{}, fmt.Errorf("%w: missing category", core.ErrParse)
	}
	return Command{
		Kind:        Add,
		Amount:      amt,
		Category:    tokens[1],
		Description: core.TruncateDescription(strings.Join(tokens[2:], " ")),
	}, nil
}

func (p *Parser) parseReport(args []string) (Command, error) {
	now := p.now()
	if len(args) == 0 {
		return Command{Kind: Report, Month: core.MonthSelector(now.Month()), Year: now.Year()}, nil
	}
	if args[0] == "last" {
		then := now.Add(-p.lookback())
		return Command{Kind: Report, Month: core.MonthSelector(then.Month()), Year: then.Year()}, nil
	}
	year, err := strconv.Atoi(args[0])
	if err != nil || year < 1 || year > 9999 {
		return Command{}, fmt.Errorf("%w: report target %q is not a year", core.ErrValidation, args[0])
	}
	return Command{Kind: Report, Month: core.WholeYear, Year: year}, nil
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Parser) lookback() time.Duration {
	if p.Lookback <= 0 {
		return DefaultLookback
	}
	return p.Lookback
}

// looksNumeric reports whether tok should be treated as an amount: it starts
// with a digit, or with a sign or point followed by a digit.
func looksNumeric(tok string) bool {
	for i, r := range tok {
		switch {
		case unicode.IsDigit(r):
			return true
		case i == 0 && (r == '+' || r == '-' || r == '.' || r == '$'):
			continue
		case i == 1 && r == '.' && (tok[0] == '+' || tok[0] == '-' || tok[0] == '$'):
			continue
		default:
			return false
		}
	}
	return false
}
