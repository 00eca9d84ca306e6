package arb

import (
	"fmt"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
)

// Type classifies an opportunity.
type Type string

const (
	// TypePure marks a risk-free combination: both legs bought for less
	// than the guaranteed payout.
	TypePure Type = "pure"
	// TypeStatistical marks an edge that is not risk-free.
	TypeStatistical Type = "statistical"
)

// Leg is one side of a two-venue trade.
type Leg struct {
	Venue     events.Venue `json:"venue"`
	Side      string       `json:"side"` // contract side name, e.g. YES
	Price     float64      `json:"price"`
	TotalCost float64      `json:"total_cost"` // price plus venue fees
}

// Opportunity is a candidate trade produced by the detector. Its slippage
// and sizing numbers come from the liquidity heuristic and are superseded
// by the depth-based feasibility check whenever live depth is available.
type Opportunity struct {
	Match matcher.MatchResult `json:"match"`
	Type  Type                `json:"type"`

	LegA Leg `json:"leg_a"`
	LegB Leg `json:"leg_b"`

	GrossEdge       float64 `json:"gross_edge"`
	NetEdge         float64 `json:"net_edge"`
	MaxPositionSize float64 `json:"max_position_size"`
	ExpectedProfit  float64 `json:"expected_profit"`

	SlippageEstimate float64 `json:"slippage_estimate"`
	TimingRisk       float64 `json:"timing_risk"`
	ResolutionRisk   float64 `json:"resolution_risk"`

	Confidence float64    `json:"confidence"`
	DetectedAt time.Time  `json:"detected_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Direction names the leg combination, e.g. "YES@polymarket+NO@predyx".
func (o *Opportunity) Direction() string {
	return fmt.Sprintf("%s@%s+%s@%s", o.LegA.Side, o.LegA.Venue, o.LegB.Side, o.LegB.Venue)
}
