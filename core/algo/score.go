// Package algo holds the pure scoring functions. Everything in here is
// deterministic arithmetic over aggregates; no I/O, no clocks, no caches.
package algo

import (
	"math"

	"github.com/repopulse/repopulse/schema"
)

// ComputeConfidence calculates a repository's contributor confidence
// breakdown from windowed aggregates. Each component is normalized to
// 0-100, then combined with the given weights into the final score:
// - starfork: how many stargazers/forkers come back to contribute
// - engagement: how much activity each contributor generates
// - retention: how many contributors return after their first touch
// - quality: how many opened pull requests end up merged
// A nil weights map falls back to the defaults (35/25/25/15).
func ComputeConfidence(in schema.ConfidenceInputs, weights map[schema.FactorKey]float64) schema.ConfidenceBreakdown {
	if weights == nil {
		weights = schema.GetDefaultWeights()
	}

	// Tunable maxima to normalize metrics.
	const (
		fullConversion = 35.0 // conversion rate (%) beyond this saturates
		fullEngagement = 4.0  // mean events per contributor beyond this saturate
		fullRetention  = 0.5  // half the contributors returning saturates
		fullMergeRatio = 0.8  // merged share beyond this saturates
	)

	clamp01 := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	observers := in.TotalStargazers + in.TotalForkers

	var conversionRate float64
	if observers > 0 {
		conversionRate = 100.0 * float64(in.ContributorCount) / float64(observers)
	}

	var engagementRate float64
	if in.ContributorCount > 0 {
		engagementRate = float64(in.WindowEvents) / float64(in.ContributorCount)
	}

	var retentionRatio float64
	if in.ContributorCount > 0 {
		retentionRatio = float64(in.ReturningContributors) / float64(in.ContributorCount)
	}

	var mergeRatio float64
	if in.TotalPRs > 0 {
		mergeRatio = float64(in.MergedPRs) / float64(in.TotalPRs)
	}

	// --- Normalized components [0,100] ---
	starFork := clamp01(conversionRate/fullConversion) * 100.0
	engagement := clamp01(engagementRate/fullEngagement) * 100.0
	retention := clamp01(retentionRatio/fullRetention) * 100.0
	quality := clamp01(mergeRatio/fullMergeRatio) * 100.0

	factors := map[schema.FactorKey]float64{
		schema.FactorStarFork:   weights[schema.FactorStarFork] * starFork,
		schema.FactorEngagement: weights[schema.FactorEngagement] * engagement,
		schema.FactorRetention:  weights[schema.FactorRetention] * retention,
		schema.FactorQuality:    weights[schema.FactorQuality] * quality,
	}

	var score float64
	for _, value := range factors {
		score += value
	}

	return schema.ConfidenceBreakdown{
		Repo:                 in.Repo,
		Score:                score,
		StarForkConfidence:   starFork,
		EngagementConfidence: engagement,
		RetentionConfidence:  retention,
		QualityConfidence:    quality,
		TotalStargazers:      in.TotalStargazers,
		TotalForkers:         in.TotalForkers,
		ContributorCount:     in.ContributorCount,
		ConversionRate:       conversionRate,
		Factors:              factors,
	}
}

// Gini calculates the Gini coefficient for a set of values.
// The Gini coefficient measures inequality in a distribution, ranging from 0 (perfect equality)
// to 1 (perfect inequality). It's used here to measure how evenly distributed contributions are
// among contributors.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	var diffSum float64
	for i := range n {
		for j := range n {
			diffSum += math.Abs(values[i] - values[j])
		}
	}

	g := diffSum / (2 * float64(n*n) * mean)
	return math.Min(math.Max(g, 0), 1) // clamp to [0,1]
}

// LotteryFactor returns the combined pull-request share of the two most
// active contributors (0-1). High values mean the project would stall
// if its top people won the lottery and left.
func LotteryFactor(stats []schema.ContributorStat) float64 {
	var top1, top2 float64
	for _, s := range stats {
		switch {
		case s.Share > top1:
			top1, top2 = s.Share, top1
		case s.Share > top2:
			top2 = s.Share
		}
	}
	return math.Min(top1+top2, 1.0)
}

// HealthScore combines team size, contribution spread, activity volume
// and bus-factor risk into a single 0-100 composite.
func HealthScore(contributors, totalEvents int, gini, lotteryFactor float64) float64 {
	// Tunable maxima to normalize metrics.
	const (
		fullTeam   = 10.0  // contributors beyond this saturate
		fullEvents = 200.0 // window events beyond this saturate
	)

	// Component weights.
	const (
		wTeam     = 0.30 // more hands is the strongest health signal
		wSpread   = 0.25 // even contribution spread (inverse Gini)
		wActivity = 0.25
		wBus      = 0.20 // inverse lottery factor
	)

	clamp01 := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	nTeam := clamp01(float64(contributors) / fullTeam)
	nActivity := clamp01(float64(totalEvents) / fullEvents)
	nSpread := clamp01(1.0 - gini)
	nBus := clamp01(1.0 - lotteryFactor)

	raw := wTeam*nTeam + wSpread*nSpread + wActivity*nActivity + wBus*nBus
	return raw * 100.0
}
