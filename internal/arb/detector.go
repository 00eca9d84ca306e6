package arb

import (
	"math"
	"sort"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
)

// Detector turns matched event pairs into fee-adjusted opportunities. It
// holds no mutable state, so concurrent scans are safe.
type Detector struct {
	cfg  config.DetectorConfig
	fees map[events.Venue]events.FeeSchedule
}

// NewDetector builds a detector from config and the validated per-venue
// fee schedules.
func NewDetector(cfg config.DetectorConfig, fees map[events.Venue]events.FeeSchedule) (*Detector, error) {
	if cfg.ConfidenceFloor <= 0 || cfg.ConfidenceFloor > 1 {
		cfg.ConfidenceFloor = 0.70
	}
	if cfg.MinEdgeThreshold <= 0 {
		cfg.MinEdgeThreshold = 0.02
	}
	if cfg.MaxSlippageTolerance <= 0 {
		cfg.MaxSlippageTolerance = 0.01
	}
	if cfg.LiquidityFraction <= 0 || cfg.LiquidityFraction > 1 {
		cfg.LiquidityFraction = 0.10
	}
	if cfg.PositionCap <= 0 {
		cfg.PositionCap = 10000
	}
	if fees == nil {
		fees = config.DefaultVenueFees()
	}
	return &Detector{cfg: cfg, fees: fees}, nil
}

// MaxSlippageTolerance returns the per-leg slippage cap in effect.
func (d *Detector) MaxSlippageTolerance() float64 {
	return d.cfg.MaxSlippageTolerance
}

// ScanForArbitrage evaluates every match at or above the confidence floor
// and returns the surviving opportunities sorted by net edge, best first.
// For binary pairs both leg combinations are checked independently: fee
// asymmetry can make one direction profitable and the mirror not.
func (d *Detector) ScanForArbitrage(matches []matcher.MatchResult) []Opportunity {
	var opportunities []Opportunity

	for i := range matches {
		match := &matches[i]
		if match.Confidence < d.cfg.ConfidenceFloor {
			continue
		}
		if !match.EventA.IsBinary() || !match.EventB.IsBinary() {
			continue
		}
		if opp := d.checkBinaryArbitrage(match, "YES", "NO"); opp != nil {
			opportunities = append(opportunities, *opp)
		}
		if opp := d.checkBinaryArbitrage(match, "NO", "YES"); opp != nil {
			opportunities = append(opportunities, *opp)
		}
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].NetEdge > opportunities[j].NetEdge
	})
	return opportunities
}

// checkBinaryArbitrage prices buying sideA on event A and sideB on event B.
// The pure-arbitrage condition for a binary pair is that the two legs
// together cost less than the 1.0 payout.
func (d *Detector) checkBinaryArbitrage(match *matcher.MatchResult, sideA, sideB string) *Opportunity {
	contractA, okA := match.EventA.Side(sideA)
	contractB, okB := match.EventB.Side(sideB)
	if !okA || !okB {
		return nil
	}

	costA, ok := d.totalCost(contractA.Price, match.EventA.Venue)
	if !ok {
		return nil
	}
	costB, ok := d.totalCost(contractB.Price, match.EventB.Venue)
	if !ok {
		return nil
	}

	totalCost := costA + costB
	if totalCost >= 1 {
		return nil
	}
	grossEdge := 1 - totalCost
	if grossEdge < d.cfg.MinEdgeThreshold {
		return nil
	}

	totalSlippage := FallbackSlippage(contractA) + FallbackSlippage(contractB)
	if totalSlippage > d.cfg.MaxSlippageTolerance {
		return nil
	}
	netEdge := grossEdge - totalSlippage

	maxPosition := math.Min(
		fallbackPositionSize(contractA, d.cfg.LiquidityFraction, d.cfg.PositionCap),
		fallbackPositionSize(contractB, d.cfg.LiquidityFraction, d.cfg.PositionCap),
	)

	return &Opportunity{
		Match: *match,
		Type:  TypePure,
		LegA: Leg{
			Venue:     match.EventA.Venue,
			Side:      sideA,
			Price:     contractA.Price,
			TotalCost: costA,
		},
		LegB: Leg{
			Venue:     match.EventB.Venue,
			Side:      sideB,
			Price:     contractB.Price,
			TotalCost: costB,
		},
		GrossEdge:        grossEdge,
		NetEdge:          netEdge,
		MaxPositionSize:  maxPosition,
		ExpectedProfit:   netEdge * maxPosition,
		SlippageEstimate: totalSlippage,
		TimingRisk:       timingRisk(&match.EventA, &match.EventB),
		ResolutionRisk:   resolutionRisk(match),
		Confidence:       match.Confidence,
		DetectedAt:       time.Now().UTC(),
	}
}

// totalCost is the all-in cost of one leg: price scaled by the trading fee
// plus the venue's fixed gas/network cost. An unknown venue skips the pair
// rather than pricing it with zero fees.
func (d *Detector) totalCost(price float64, venue events.Venue) (float64, bool) {
	fees, ok := d.fees[venue]
	if !ok {
		logging.Errorf("[arb] no fee schedule for venue %q, skipping leg", venue)
		return 0, false
	}
	return price*(1+fees.TradingFeeRate) + fees.FixedCost, true
}

// timingRisk grows linearly with the deadline gap, saturating at a week.
func timingRisk(a, b *events.Event) float64 {
	days := math.Abs(a.Deadline.Sub(b.Deadline).Hours()) / 24
	return math.Min(days/7, 1)
}

// resolutionRisk combines match confidence with a penalty per risk factor.
func resolutionRisk(match *matcher.MatchResult) float64 {
	risk := (1 - match.Confidence) + 0.1*float64(len(match.RiskFactors))
	return math.Min(risk, 1)
}
