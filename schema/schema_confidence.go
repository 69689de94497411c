package schema

import "time"

// ConfidenceBreakdown holds the contribution confidence score for a
// repository along with its weighted components. Each component is
// normalized to 0-100 before weighting.
type ConfidenceBreakdown struct {
	Repo                 string                `json:"repo"`
	Score                float64               `json:"score"`
	StarForkConfidence   float64               `json:"star_fork_confidence"`
	EngagementConfidence float64               `json:"engagement_confidence"`
	RetentionConfidence  float64               `json:"retention_confidence"`
	QualityConfidence    float64               `json:"quality_confidence"`
	TotalStargazers      int                   `json:"total_stargazers"`
	TotalForkers         int                   `json:"total_forkers"`
	ContributorCount     int                   `json:"contributor_count"`
	ConversionRate       float64               `json:"conversion_rate"`
	Factors              map[FactorKey]float64 `json:"factors,omitempty"` // weighted contribution of each factor
}

// ConfidenceInputs carries the windowed aggregates that feed the
// confidence computation. Stargazer and forker totals come from the
// repository overview when available, otherwise from window events.
type ConfidenceInputs struct {
	Repo                  string `json:"repo"`
	TotalStargazers       int    `json:"total_stargazers"`
	TotalForkers          int    `json:"total_forkers"`
	ContributorCount      int    `json:"contributor_count"`
	ReturningContributors int    `json:"returning_contributors"`
	WindowEvents          int    `json:"window_events"`
	TotalPRs              int    `json:"total_prs"`
	MergedPRs             int    `json:"merged_prs"`
}

// ContributorStat aggregates one contributor's activity within the
// analysis window.
type ContributorStat struct {
	Login        string    `json:"login"`
	PullRequests int       `json:"pull_requests"`
	MergedPRs    int       `json:"merged_prs"`
	Reviews      int       `json:"reviews"`
	Comments     int       `json:"comments"`
	Issues       int       `json:"issues"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	Share        float64   `json:"share"` // fraction of total PR activity (0-1)
}

// InsightsOutput is the contributor-level analysis result for a repository.
type InsightsOutput struct {
	Repo          string            `json:"repo"`
	WindowDays    int               `json:"window_days"`
	TotalEvents   int               `json:"total_events"`
	Contributors  []ContributorStat `json:"contributors"`
	LotteryFactor float64           `json:"lottery_factor"` // top-two contributor share of PR activity (0-1)
	HealthScore   float64           `json:"health_score"`   // composite repository health (0-100)
	Gini          float64           `json:"gini"`           // contribution concentration (0-1, lower is more even)
}

// GetPlainLabel returns a plain text label for a confidence score
// given the configured band thresholds.
func GetPlainLabel(score float64, bands ConfidenceBands) string {
	switch {
	case score >= bands.Good:
		return "Excellent"
	case score >= bands.Moderate:
		return "Good"
	case score >= bands.Low:
		return "Moderate"
	default:
		return "Low"
	}
}

// EnrichedContributorStat adds presentation data to a ContributorStat.
type EnrichedContributorStat struct {
	Rank int `json:"rank"`
	ContributorStat
}

// EnrichContributors adds rank to a list of contributor stats.
func EnrichContributors(stats []ContributorStat) []EnrichedContributorStat {
	output := make([]EnrichedContributorStat, len(stats))
	for i, s := range stats {
		output[i] = EnrichedContributorStat{
			Rank:            i + 1,
			ContributorStat: s,
		}
	}
	return output
}
