package aitime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandardFormats(t *testing.T) {
	p := NewParser(time.UTC)

	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "classifier contract format",
			input:    "2026-09-01 09:30",
			expected: time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "with seconds",
			input:    "2026-09-01 09:30:15",
			expected: time.Date(2026, 9, 1, 9, 30, 15, 0, time.UTC),
		},
		{
			name:     "date only",
			input:    "2026-09-01",
			expected: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "rfc3339",
			input:    "2026-09-01T09:30:00Z",
			expected: time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestParseRelative(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p := NewParser(time.UTC).WithNow(func() time.Time { return now })

	tests := []struct {
		input    string
		expected time.Time
	}{
		{input: "in 5 minutes", expected: now.Add(5 * time.Minute)},
		{input: "in 2 hours", expected: now.Add(2 * time.Hour)},
		{input: "in 1 day", expected: now.AddDate(0, 0, 1)},
		{input: "in 2 weeks", expected: now.AddDate(0, 0, 14)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
		})
	}
}

func TestParseErrors(t *testing.T) {
	p := NewParser(time.UTC)

	for _, input := range []string{"", "  ", "someday", "next time we meet", "tomorrow-ish"} {
		t.Run("input "+input, func(t *testing.T) {
			_, err := p.Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestParseUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	p := NewParser(loc)
	got, err := p.Parse("2026-09-01 09:30")
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
}
