// Package aitime resolves the date strings produced by the intent classifier
// into concrete timestamps.
package aitime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DatetimeLayout is the contract format the classifier is instructed to emit.
const DatetimeLayout = "2006-01-02 15:04"

// standardLayouts are tried in order before any relative parsing.
var standardLayouts = []string{
	DatetimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// relativePattern matches simple English relative expressions the model
// occasionally emits instead of an absolute datetime, e.g. "in 5 minutes".
var relativePattern = regexp.MustCompile(`(?i)^in\s+(\d+)\s+(minute|hour|day|week)s?$`)

// Parser parses due-date expressions in a fixed location.
type Parser struct {
	location *time.Location
	now      func() time.Time
}

// NewParser creates a parser for the given location. A nil location defaults
// to time.Local.
func NewParser(location *time.Location) *Parser {
	if location == nil {
		location = time.Local
	}
	return &Parser{
		location: location,
		now:      time.Now,
	}
}

// WithNow returns a parser with a fixed clock, for tests.
func (p *Parser) WithNow(now func() time.Time) *Parser {
	return &Parser{location: p.location, now: now}
}

// Parse resolves input to a concrete timestamp. An unresolvable input is an
// error; the caller decides whether that blocks the operation (it does not for
// task creation, which just skips the reminder).
func (p *Parser) Parse(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}

	for _, layout := range standardLayouts {
		if t, err := time.ParseInLocation(layout, input, p.location); err == nil {
			return t, nil
		}
	}

	if m := relativePattern.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable amount %q", m[1])
		}
		now := p.now().In(p.location)
		switch strings.ToLower(m[2]) {
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), nil
		case "day":
			return now.AddDate(0, 0, n), nil
		case "week":
			return now.AddDate(0, 0, 7*n), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time expression %q", input)
}
