package arb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
)

func feeFreeVenues() map[events.Venue]events.FeeSchedule {
	return map[events.Venue]events.FeeSchedule{
		events.VenuePolymarket: {},
		events.VenueKalshi:     {},
	}
}

func binaryEvent(id string, venue events.Venue, yes, no float64, liquidity *float64) events.Event {
	return events.Event{
		ID:         id,
		Venue:      venue,
		MarketType: events.MarketBinary,
		Deadline:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ContractSides: []events.ContractSide{
			{Name: "YES", Price: yes, Liquidity: liquidity},
			{Name: "NO", Price: no, Liquidity: liquidity},
		},
	}
}

func matchFor(a, b events.Event, confidence float64) matcher.MatchResult {
	return matcher.MatchResult{
		PairID:     matcher.PairID(&a, &b),
		EventA:     a,
		EventB:     b,
		Confidence: confidence,
		MatchedAt:  time.Now().UTC(),
	}
}

func TestScanFindsPureArbitrage(t *testing.T) {
	liq := 5000.0
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.55, 0.45, &liq)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.60, 0.40, &liq)

	d, err := NewDetector(config.DetectorConfig{}, feeFreeVenues())
	require.NoError(t, err)

	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.85)})
	require.Len(t, opps, 1)

	opp := opps[0]
	// YES at 0.55 plus NO at 0.40 costs 0.95 for a guaranteed 1.00 payout.
	assert.Equal(t, TypePure, opp.Type)
	assert.InDelta(t, 0.05, opp.GrossEdge, 1e-9)
	// Liquidity 5000 puts both legs in the 0.003 slippage bucket.
	assert.InDelta(t, 0.006, opp.SlippageEstimate, 1e-9)
	assert.InDelta(t, 0.044, opp.NetEdge, 1e-9)
	assert.Equal(t, "YES@polymarket+NO@kalshi", opp.Direction())
	// 10% of 5000 liquidity caps each leg at 500.
	assert.InDelta(t, 500, opp.MaxPositionSize, 1e-9)
	assert.InDelta(t, 0.044*500, opp.ExpectedProfit, 1e-9)
	assert.InDelta(t, 0, opp.TimingRisk, 1e-9)
	assert.InDelta(t, 0.15, opp.ResolutionRisk, 1e-9)
}

func TestScanRejectsThinEdge(t *testing.T) {
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.60, 0.41, nil)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.59, 0.42, nil)

	d, err := NewDetector(config.DetectorConfig{}, feeFreeVenues())
	require.NoError(t, err)

	// Both directions cost at least 1.00; nothing survives.
	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.85)})
	assert.Empty(t, opps)
}

func TestScanRespectsConfidenceFloor(t *testing.T) {
	liq := 5000.0
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.55, 0.45, &liq)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.60, 0.40, &liq)

	d, err := NewDetector(config.DetectorConfig{}, feeFreeVenues())
	require.NoError(t, err)

	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.65)})
	assert.Empty(t, opps)
}

func TestScanSkipsNonBinaryMarkets(t *testing.T) {
	liq := 5000.0
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.55, 0.45, &liq)
	a.MarketType = events.MarketMultiOutcome
	b := binaryEvent("ks-1", events.VenueKalshi, 0.60, 0.40, &liq)

	d, err := NewDetector(config.DetectorConfig{}, feeFreeVenues())
	require.NoError(t, err)

	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.85)})
	assert.Empty(t, opps)
}

func TestScanRejectsExcessiveHeuristicSlippage(t *testing.T) {
	// Unknown liquidity costs 0.005 per leg; a 0.005 tolerance rejects it.
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.50, 0.50, nil)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.55, 0.40, nil)

	d, err := NewDetector(config.DetectorConfig{MaxSlippageTolerance: 0.005}, feeFreeVenues())
	require.NoError(t, err)

	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.85)})
	assert.Empty(t, opps)
}

func TestScanAppliesVenueFees(t *testing.T) {
	liq := 50000.0
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.55, 0.45, &liq)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.60, 0.40, &liq)

	fees := map[events.Venue]events.FeeSchedule{
		events.VenuePolymarket: {TradingFeeRate: 0.02, FixedCost: 0.005},
		events.VenueKalshi:     {TradingFeeRate: 0.07},
	}
	d, err := NewDetector(config.DetectorConfig{}, fees)
	require.NoError(t, err)

	// Gross edge is 0.05 before fees but the fee drag exceeds it:
	// 0.55*1.02+0.005 + 0.40*1.07 = 0.989, edge 0.011 < 0.02 floor.
	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.85)})
	assert.Empty(t, opps)
}

func TestScanSkipsUnknownVenue(t *testing.T) {
	liq := 5000.0
	a := binaryEvent("pm-1", "unlisted", 0.55, 0.45, &liq)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.60, 0.40, &liq)

	d, err := NewDetector(config.DetectorConfig{}, feeFreeVenues())
	require.NoError(t, err)

	opps := d.ScanForArbitrage([]matcher.MatchResult{matchFor(a, b, 0.85)})
	assert.Empty(t, opps, "a venue without a fee schedule must never be priced at zero fees")
}

func TestScanSortsByNetEdge(t *testing.T) {
	liq := 50000.0
	thin := matchFor(
		binaryEvent("pm-1", events.VenuePolymarket, 0.55, 0.45, &liq),
		binaryEvent("ks-1", events.VenueKalshi, 0.60, 0.42, &liq),
		0.85,
	)
	wide := matchFor(
		binaryEvent("pm-2", events.VenuePolymarket, 0.50, 0.50, &liq),
		binaryEvent("ks-2", events.VenueKalshi, 0.60, 0.40, &liq),
		0.85,
	)

	d, err := NewDetector(config.DetectorConfig{}, feeFreeVenues())
	require.NoError(t, err)

	opps := d.ScanForArbitrage([]matcher.MatchResult{thin, wide})
	require.NotEmpty(t, opps)
	for i := 1; i < len(opps); i++ {
		assert.GreaterOrEqual(t, opps[i-1].NetEdge, opps[i].NetEdge)
	}
	assert.Equal(t, "pm-2", opps[0].Match.EventA.ID)
}

func TestTimingRiskSaturates(t *testing.T) {
	a := binaryEvent("pm-1", events.VenuePolymarket, 0.5, 0.5, nil)
	b := binaryEvent("ks-1", events.VenueKalshi, 0.5, 0.5, nil)

	b.Deadline = a.Deadline.Add(3*24*time.Hour + 12*time.Hour)
	assert.InDelta(t, 0.5, timingRisk(&a, &b), 1e-9)

	b.Deadline = a.Deadline.Add(30 * 24 * time.Hour)
	assert.InDelta(t, 1.0, timingRisk(&a, &b), 1e-9)
}

func TestResolutionRiskCapped(t *testing.T) {
	m := matcher.MatchResult{Confidence: 0.75, RiskFactors: []string{"a", "b"}}
	assert.InDelta(t, 0.45, resolutionRisk(&m), 1e-9)

	m = matcher.MatchResult{Confidence: 0.1, RiskFactors: []string{"a", "b", "c"}}
	assert.InDelta(t, 1.0, resolutionRisk(&m), 1e-9)
}

func TestFallbackSlippageBuckets(t *testing.T) {
	assert.InDelta(t, 0.005, FallbackSlippage(nil), 1e-9)
	assert.InDelta(t, 0.005, FallbackSlippage(&events.ContractSide{}), 1e-9)

	side := func(liq float64) *events.ContractSide {
		return &events.ContractSide{Liquidity: &liq}
	}
	assert.InDelta(t, 0.001, FallbackSlippage(side(20000)), 1e-9)
	assert.InDelta(t, 0.003, FallbackSlippage(side(5000)), 1e-9)
	assert.InDelta(t, 0.01, FallbackSlippage(side(500)), 1e-9)
	assert.InDelta(t, 0.01, FallbackSlippage(side(0)), 1e-9)
}

func TestFallbackPositionSize(t *testing.T) {
	assert.InDelta(t, 100, fallbackPositionSize(nil, 0.1, 10000), 1e-9)

	liq := 5000.0
	side := &events.ContractSide{Liquidity: &liq}
	assert.InDelta(t, 500, fallbackPositionSize(side, 0.1, 10000), 1e-9)

	huge := 500000.0
	side = &events.ContractSide{Liquidity: &huge}
	assert.InDelta(t, 10000, fallbackPositionSize(side, 0.1, 10000), 1e-9)
}
