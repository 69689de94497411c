package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"years", "2 years ago", now.AddDate(-2, 0, 0)},
		{"months", "3 months ago", now.AddDate(0, -3, 0)},
		{"weeks", "1 week ago", now.Add(-7 * 24 * time.Hour)},
		{"days", "10 days ago", now.Add(-10 * 24 * time.Hour)},
		{"hours", "6 hours ago", now.Add(-6 * time.Hour)},
		{"minutes", "45 minutes ago", now.Add(-45 * time.Minute)},
		{"singular unit", "1 day ago", now.Add(-24 * time.Hour)},
		{"mixed case", "2 Days Ago", now.Add(-2 * 24 * time.Hour)},
		{"surrounding whitespace", "  5 hours ago  ", now.Add(-5 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRelativeTimeInvalid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"missing ago", "2 days"},
		{"missing value", "days ago"},
		{"unknown unit", "2 fortnights ago"},
		{"negative value", "-2 days ago"},
		{"absolute date", "2025-06-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRelativeTime(tt.input, now)
			assert.Error(t, err)
		})
	}
}

func TestParseLookbackDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		// Go-native formats
		{"go hours", "720h", 720 * time.Hour},
		{"go minutes", "5m", 5 * time.Minute},
		{"go milliseconds", "300ms", 300 * time.Millisecond},
		{"go compound", "1h30m", 90 * time.Minute},

		// Human-readable formats
		{"days", "30 days", 30 * 24 * time.Hour},
		{"weeks", "2 weeks", 14 * 24 * time.Hour},
		{"months", "1 month", 30 * 24 * time.Hour},
		{"years", "1 year", 365 * 24 * time.Hour},
		{"singular day", "1 day", 24 * time.Hour},
		{"mixed case", "2 WEEKS", 14 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLookbackDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLookbackDurationInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"gibberish", "a while"},
		{"zero go duration", "0s"},
		{"zero human duration", "0 days"},
		{"trailing ago", "30 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLookbackDuration(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestCalculateAgeDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"just now", time.Now().Add(-1 * time.Hour), 0},
		{"ten days", time.Now().Add(-10*24*time.Hour - time.Hour), 10},
		{"one year", time.Now().Add(-365 * 24 * time.Hour), 365},

		// Ages between 24h and 36h collapse to 0 to absorb clock skew and
		// the hourly time window truncation.
		{"just over a day", time.Now().Add(-25 * time.Hour), 0},
		{"thirty five hours", time.Now().Add(-35 * time.Hour), 0},
		{"thirty seven hours", time.Now().Add(-37 * time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateAgeDays(tt.start))
		})
	}
}
