package outwriter

import (
	"testing"
	"time"

	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"one decimal", 1, 57.125, "57.1"},
		{"two decimals", 2, 57.125, "57.12"},
		{"zero decimals", 0, 57.125, "57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestFormatTopFactors(t *testing.T) {
	tests := []struct {
		name     string
		factors  map[schema.FactorKey]float64
		expected string
	}{
		{
			name: "top 3 factors ordered by magnitude",
			factors: map[schema.FactorKey]float64{
				schema.FactorStarFork:   7.0,
				schema.FactorEngagement: 18.75,
				schema.FactorRetention:  21.4,
				schema.FactorQuality:    11.25,
			},
			expected: "retention > engagement > quality",
		},
		{
			name: "fewer than 3 factors",
			factors: map[schema.FactorKey]float64{
				schema.FactorStarFork:  12.0,
				schema.FactorRetention: 8.0,
			},
			expected: "starfork > retention",
		},
		{
			name: "single factor",
			factors: map[schema.FactorKey]float64{
				schema.FactorQuality: 15.0,
			},
			expected: "quality",
		},
		{
			name: "all below minimum threshold",
			factors: map[schema.FactorKey]float64{
				schema.FactorStarFork:   0.3,
				schema.FactorEngagement: 0.2,
			},
			expected: "Not applicable",
		},
		{
			name:     "empty factors",
			factors:  map[schema.FactorKey]float64{},
			expected: "Not applicable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTopFactors(tt.factors))
		})
	}
}

func TestFormatByteSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"bytes", 512, "512 B"},
		{"kibibytes", 2048, "2.0 KiB"},
		{"mebibytes", 5 * 1024 * 1024, "5.0 MiB"},
		{"zero", 0, "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatByteSize(tt.size))
		})
	}
}

func TestFormatHitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected string
	}{
		{"no lookups", 0, 0, "n/a"},
		{"mixed", 10, 4, "71.4%"},
		{"all misses", 0, 3, "0.0%"},
		{"all hits", 5, 0, "100.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatHitRate(tt.hits, tt.misses))
		})
	}
}

func TestFormatTimeOrDash(t *testing.T) {
	assert.Equal(t, "-", formatTimeOrDash(time.Time{}))
	assert.Equal(t, "2024-03-02T10:00:00Z", formatTimeOrDash(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)))
}

func TestFormatTimePtr(t *testing.T) {
	assert.Equal(t, "-", formatTimePtr(nil))
	ts := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-02T10:00:00Z", formatTimePtr(&ts))
}

func TestLabelFor(t *testing.T) {
	cfg := &contract.Config{Bands: schema.GetDefaultBands()}

	label := labelFor(cfg)
	assert.Equal(t, "Excellent", label(50.0))
	assert.Equal(t, "Good", label(20.0))
	assert.Equal(t, "Moderate", label(10.0))
	assert.Equal(t, "Low", label(2.0))

	cfg.UseColors = true
	colored := labelFor(cfg)
	assert.Contains(t, colored(50.0), "Excellent")
}
