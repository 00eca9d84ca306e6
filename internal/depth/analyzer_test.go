package depth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
)

func depthCfg() config.DepthConfig {
	return config.DepthConfig{
		MaxPriceLevels:   20,
		MinLevelSize:     10,
		DepthPercentages: []float64{0.01, 0.05, 0.10},
	}
}

func TestBuildDepthOrdersAndAccumulates(t *testing.T) {
	raw := []RawLevel{
		{Price: 0.48, Size: 100, Side: SideBuy},
		{Price: 0.50, Size: 200, Side: SideBuy},
		{Price: 0.49, Size: 150, Side: SideBuy},
		{Price: 0.52, Size: 100, Side: SideSell},
		{Price: 0.55, Size: 300, Side: SideSell},
		{Price: 0.53, Size: 50, Side: SideSell},
	}

	d := BuildDepth("mkt-1", raw, depthCfg())

	require.Len(t, d.BidLevels, 3)
	require.Len(t, d.AskLevels, 3)
	assert.Equal(t, 0.50, d.BidLevels[0].Price, "bids descend")
	assert.Equal(t, 0.52, d.AskLevels[0].Price, "asks ascend")

	assert.Equal(t, 200.0, d.BidLevels[0].CumulativeSize)
	assert.Equal(t, 350.0, d.BidLevels[1].CumulativeSize)
	assert.Equal(t, 450.0, d.BidLevels[2].CumulativeSize)

	assert.Equal(t, 450.0, d.TotalBidDepth)
	assert.Equal(t, 450.0, d.TotalAskDepth)

	require.NotNil(t, d.BestBid)
	require.NotNil(t, d.BestAsk)
	require.NotNil(t, d.MidPrice)
	assert.InDelta(t, 0.50, *d.BestBid, 1e-9)
	assert.InDelta(t, 0.52, *d.BestAsk, 1e-9)
	assert.InDelta(t, 0.51, *d.MidPrice, 1e-9)
	assert.InDelta(t, 0.02, *d.Spread, 1e-9)
	assert.InDelta(t, 0.02/0.51, *d.SpreadPct, 1e-9)

	require.NotNil(t, d.DepthImbalance)
	assert.InDelta(t, 0, *d.DepthImbalance, 1e-9)
	assert.GreaterOrEqual(t, *d.DepthImbalance, -1.0)
	assert.LessOrEqual(t, *d.DepthImbalance, 1.0)
}

func TestBuildDepthFiltersDust(t *testing.T) {
	raw := []RawLevel{
		{Price: 0.50, Size: 5, Side: SideBuy},   // below the 10 floor
		{Price: 0.49, Size: 100, Side: SideBuy},
		{Price: 0, Size: 100, Side: SideSell},   // non-positive price
		{Price: 0.52, Size: 100, Side: SideSell},
	}

	d := BuildDepth("mkt-1", raw, depthCfg())
	require.Len(t, d.BidLevels, 1)
	require.Len(t, d.AskLevels, 1)
	assert.Equal(t, 0.49, d.BidLevels[0].Price)
}

func TestBuildDepthTruncatesLevels(t *testing.T) {
	cfg := depthCfg()
	cfg.MaxPriceLevels = 2
	raw := []RawLevel{
		{Price: 0.50, Size: 100, Side: SideBuy},
		{Price: 0.49, Size: 100, Side: SideBuy},
		{Price: 0.48, Size: 100, Side: SideBuy},
	}

	d := BuildDepth("mkt-1", raw, cfg)
	assert.Len(t, d.BidLevels, 2)
	assert.Equal(t, 200.0, d.TotalBidDepth)
}

func TestBuildDepthEmptyBook(t *testing.T) {
	d := BuildDepth("mkt-1", nil, depthCfg())
	assert.Nil(t, d.BestBid)
	assert.Nil(t, d.BestAsk)
	assert.Nil(t, d.MidPrice)
	assert.Nil(t, d.DepthImbalance, "imbalance is absent, not zero, for an empty book")
	assert.Nil(t, d.DepthWithinPct)
}

func TestBuildDepthOneSidedBook(t *testing.T) {
	raw := []RawLevel{{Price: 0.50, Size: 100, Side: SideBuy}}
	d := BuildDepth("mkt-1", raw, depthCfg())
	require.NotNil(t, d.BestBid)
	assert.Nil(t, d.BestAsk)
	assert.Nil(t, d.MidPrice, "mid needs both sides")
	require.NotNil(t, d.DepthImbalance)
	assert.InDelta(t, 1.0, *d.DepthImbalance, 1e-9)
}

func TestBuildDepthBucketsAroundMid(t *testing.T) {
	raw := []RawLevel{
		{Price: 0.50, Size: 100, Side: SideBuy},
		{Price: 0.30, Size: 400, Side: SideBuy}, // far outside every band
		{Price: 0.52, Size: 100, Side: SideSell},
	}

	d := BuildDepth("mkt-1", raw, depthCfg())
	require.NotNil(t, d.MidPrice)
	require.NotNil(t, d.DepthWithinPct)

	// mid 0.51; the 1% band spans ~0.0051 either side and holds nothing,
	// while 5% and 10% pick up the touch levels but not the 0.30 bid.
	assert.InDelta(t, 0, d.DepthWithinPct[0.01], 1e-9)
	assert.InDelta(t, 200, d.DepthWithinPct[0.05], 1e-9)
	assert.InDelta(t, 200, d.DepthWithinPct[0.10], 1e-9)
}

func TestBuildDepthDoesNotMutateInput(t *testing.T) {
	raw := []RawLevel{
		{Price: 0.48, Size: 100, Side: SideBuy},
		{Price: 0.50, Size: 200, Side: SideBuy},
	}
	BuildDepth("mkt-1", raw, depthCfg())
	assert.Equal(t, 0.48, raw[0].Price)
	assert.Equal(t, 0.50, raw[1].Price)
}

type stubLevelSource struct {
	levels map[string][]RawLevel
	err    error
}

func (s stubLevelSource) GetPriceLevels(_ context.Context, marketID string) ([]RawLevel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.levels[marketID], nil
}

func TestGetMarketDepthPropagatesFetchError(t *testing.T) {
	a, err := NewAnalyzer(stubLevelSource{err: fmt.Errorf("venue down")}, depthCfg())
	require.NoError(t, err)

	_, err = a.GetMarketDepth(context.Background(), "mkt-1")
	assert.ErrorContains(t, err, "venue down")
}

func TestGetMarketDepthEmptyBookIsNeutral(t *testing.T) {
	a, err := NewAnalyzer(stubLevelSource{}, depthCfg())
	require.NoError(t, err)

	d, err := a.GetMarketDepth(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, "mkt-1", d.MarketID)
	assert.Nil(t, d.MidPrice)
}

func TestNewAnalyzerRequiresSource(t *testing.T) {
	_, err := NewAnalyzer(nil, depthCfg())
	assert.Error(t, err)
}
