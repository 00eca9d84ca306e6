package matcher

import (
	"math"

	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
)

// Risk-factor tags appended to a match. Detection is independent of the
// confidence score: a numerically strong match can still carry risk.
const (
	RiskDifferentResolutionSources = "different_resolution_sources"
	RiskDeadlineMismatchGtWeek     = "deadline_mismatch_gt_week"
	RiskDifferentMarketTypes       = "different_market_types"
)

// detectRiskFactors returns the risk tags for a pair.
func detectRiskFactors(a, b *events.Event) []string {
	var risks []string

	if a.ResolutionSourceURL != "" && b.ResolutionSourceURL != "" &&
		a.ResolutionSourceURL != b.ResolutionSourceURL {
		risks = append(risks, RiskDifferentResolutionSources)
	}

	if deadlineGapDays(a, b) > 7 {
		risks = append(risks, RiskDeadlineMismatchGtWeek)
	}

	if a.MarketType != b.MarketType {
		risks = append(risks, RiskDifferentMarketTypes)
	}

	return risks
}

// deadlineGapDays returns the absolute deadline difference in whole days.
func deadlineGapDays(a, b *events.Event) float64 {
	return math.Abs(a.Deadline.Sub(b.Deadline).Hours()) / 24
}
