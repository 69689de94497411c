package schema

// Custom string types for type safety.
type (
	// FactorKey represents keys used in confidence breakdowns.
	FactorKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// EventType represents the type of a GitHub timeline event.
	EventType string

	// AnalysisMode represents the analysis performed on a repository.
	AnalysisMode string

	// DatabaseBackend represents the database backend for the event cache.
	DatabaseBackend string
)

// Factor keys used in the confidence scoring logic.
const (
	FactorStarFork   FactorKey = "starfork"   // stargazer/forker conversion
	FactorEngagement FactorKey = "engagement" // comment and review participation
	FactorRetention  FactorKey = "retention"  // returning contributors
	FactorQuality    FactorKey = "quality"    // merged PR ratio
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All event types kept by the ingest pipeline. Everything else on the
// timeline is discarded before it reaches the event cache.
const (
	WatchEvent             EventType = "WatchEvent"
	StarEvent              EventType = "StarEvent"
	ForkEvent              EventType = "ForkEvent"
	PullRequestEvent       EventType = "PullRequestEvent"
	IssuesEvent            EventType = "IssuesEvent"
	PullRequestReviewEvent EventType = "PullRequestReviewEvent"
	IssueCommentEvent      EventType = "IssueCommentEvent"
)

// All analysis modes supported.
const (
	ConfidenceMode AnalysisMode = "confidence" // default
	InsightsMode   AnalysisMode = "insights"
	HealthMode     AnalysisMode = "health"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllAnalysisModes returns a list of all supported analysis modes.
var AllAnalysisModes = []AnalysisMode{ConfidenceMode, InsightsMode, HealthMode}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidEventTypes lists all event types the ingest pipeline keeps.
var ValidEventTypes = map[EventType]struct{}{
	WatchEvent:             {},
	StarEvent:              {},
	ForkEvent:              {},
	PullRequestEvent:       {},
	IssuesEvent:            {},
	PullRequestReviewEvent: {},
	IssueCommentEvent:      {},
}

// ValidAnalysisModes lists all valid analysis modes.
var ValidAnalysisModes = map[AnalysisMode]struct{}{
	ConfidenceMode: {},
	InsightsMode:   {},
	HealthMode:     {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// GetDefaultWeights returns the default weight map for confidence scoring.
// Weights always sum to 1.0.
func GetDefaultWeights() map[FactorKey]float64 {
	return map[FactorKey]float64{
		FactorStarFork:   0.35,
		FactorEngagement: 0.25,
		FactorRetention:  0.25,
		FactorQuality:    0.15,
	}
}

// ConfidenceBands holds the thresholds separating confidence bands.
// A conversion rate below Low reads as intimidating to newcomers; at or
// above Good the project converts observers into contributors unusually well.
type ConfidenceBands struct {
	Low      float64 // upper bound of the low band
	Moderate float64 // upper bound of the moderate band
	Good     float64 // upper bound of the good band
}

// GetDefaultBands returns the default confidence band thresholds.
func GetDefaultBands() ConfidenceBands {
	return ConfidenceBands{Low: 5, Moderate: 15, Good: 35}
}
