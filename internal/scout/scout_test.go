package scout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnukaus/Polymarket-arbitrage/internal/arb"
	"github.com/cnukaus/Polymarket-arbitrage/internal/cache"
	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/depth"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
	"github.com/cnukaus/Polymarket-arbitrage/internal/review"
)

type stubSource struct {
	events []events.Event
	err    error
}

func (s stubSource) ListEvents(context.Context, events.Venue) ([]events.Event, error) {
	return s.events, s.err
}

type stubLevels struct {
	books map[string][]depth.RawLevel
}

func (s stubLevels) GetPriceLevels(_ context.Context, bookID string) ([]depth.RawLevel, error) {
	levels, ok := s.books[bookID]
	if !ok {
		return nil, fmt.Errorf("no book %q", bookID)
	}
	return levels, nil
}

type stubOppCache struct {
	records map[string]cache.OpportunityRecord
	stored  []string
}

func (c *stubOppCache) Get(_ context.Context, pairID string) (*cache.OpportunityRecord, bool, error) {
	record, ok := c.records[pairID]
	if !ok {
		return nil, false, nil
	}
	return &record, true, nil
}

func (c *stubOppCache) Set(_ context.Context, pairID string, record cache.OpportunityRecord) error {
	if c.records == nil {
		c.records = make(map[string]cache.OpportunityRecord)
	}
	c.records[pairID] = record
	c.stored = append(c.stored, pairID)
	return nil
}

func (c *stubOppCache) Close() error { return nil }

func arbEvent(id string, venue events.Venue, yes, no float64) events.Event {
	liq := 5000.0
	return events.Event{
		ID:                 id,
		Venue:              venue,
		Title:              "Will BTC reach $100k in 2026?",
		Entities:           []string{"BTC", "2026"},
		ResolutionCriteria: "resolves yes if btc closes above 100k on coinbase",
		Deadline:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		MarketType:         events.MarketBinary,
		ContractSides: []events.ContractSide{
			{Name: "YES", Price: yes, Liquidity: &liq},
			{Name: "NO", Price: no, Liquidity: &liq},
		},
	}
}

func testDeps(t *testing.T, sources map[events.Venue]events.Source) Deps {
	t.Helper()
	m, err := matcher.New(config.MatcherConfig{Workers: 2}, nil)
	require.NoError(t, err)

	fees := map[events.Venue]events.FeeSchedule{
		events.VenuePolymarket: {},
		events.VenueKalshi:     {},
	}
	d, err := arb.NewDetector(config.DetectorConfig{}, fees)
	require.NoError(t, err)

	return Deps{
		Matcher:     m,
		Detector:    d,
		Sources:     sources,
		ReviewQueue: review.NewMemoryQueue(),
	}
}

func arbSources() map[events.Venue]events.Source {
	return map[events.Venue]events.Source{
		events.VenuePolymarket: stubSource{events: []events.Event{
			arbEvent("pm-1", events.VenuePolymarket, 0.55, 0.45),
		}},
		events.VenueKalshi: stubSource{events: []events.Event{
			arbEvent("ks-1", events.VenueKalshi, 0.60, 0.40),
		}},
	}
}

func TestRunOnceFindsAlert(t *testing.T) {
	deps := testDeps(t, arbSources())
	reviewQueue := deps.ReviewQueue.(*review.MemoryQueue)

	s, err := New(config.ScoutConfig{}, deps)
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.EventsFetched)
	assert.Equal(t, 1, result.Matches)
	assert.Equal(t, 1, result.Opportunities)
	require.Len(t, result.Alerts, 1)

	alert := result.Alerts[0]
	// Venues scan in lexical order, so kalshi is event A of the pair.
	assert.Equal(t, "NO@kalshi+YES@polymarket", alert.Direction())
	assert.GreaterOrEqual(t, alert.NetEdge, 0.03)

	// 0.85 confidence is under the 0.90 review threshold.
	assert.Equal(t, 1, reviewQueue.Len())
}

func TestRunOnceFailsWithSingleVenue(t *testing.T) {
	sources := arbSources()
	sources[events.VenueKalshi] = stubSource{err: fmt.Errorf("api down")}

	deps := testDeps(t, sources)
	s, err := New(config.ScoutConfig{}, deps)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.Error(t, err, "one healthy venue is not enough to match")
}

func TestRunOnceIsolatesVenueFailure(t *testing.T) {
	sources := arbSources()
	sources[events.VenuePredyx] = stubSource{err: fmt.Errorf("api down")}

	deps := testDeps(t, sources)
	s, err := New(config.ScoutConfig{}, deps)
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err, "the two healthy venues still scan")
	assert.Equal(t, 1, result.Matches)
}

func TestRunOnceDepthSupersedesHeuristic(t *testing.T) {
	deps := testDeps(t, arbSources())

	books := stubLevels{books: map[string][]depth.RawLevel{
		// The opportunity holds NO on kalshi and YES on polymarket.
		"polymarket:pm-1/yes": {
			{Price: 0.55, Size: 2000, Side: depth.SideSell},
			{Price: 0.54, Size: 2000, Side: depth.SideBuy},
		},
		"kalshi:ks-1/no": {
			{Price: 0.41, Size: 2000, Side: depth.SideSell},
			{Price: 0.40, Size: 2000, Side: depth.SideBuy},
		},
	}}
	analyzer, err := depth.NewAnalyzer(books, config.DepthConfig{MinLevelSize: 10})
	require.NoError(t, err)
	deps.Depth = analyzer

	s, err := New(config.ScoutConfig{ProbeSize: 50}, deps)
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)

	alert := result.Alerts[0]
	// Depth-verified numbers replace the heuristic ones: buy fills at
	// 0.41 on the cheap book, sell at 0.54 on the dear one, no slippage.
	assert.InDelta(t, (0.54-0.41)/0.41, alert.NetEdge, 1e-9)
	assert.InDelta(t, 50, alert.MaxPositionSize, 1e-9)
	assert.InDelta(t, 0, alert.SlippageEstimate, 1e-9)
}

func TestRunOnceDeduplicatesAlerts(t *testing.T) {
	deps := testDeps(t, arbSources())
	oppCache := &stubOppCache{}
	deps.OppCache = oppCache

	s, err := New(config.ScoutConfig{}, deps)
	require.NoError(t, err)

	first, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Alerts, 1)
	assert.Len(t, oppCache.stored, 1)

	// Same scan again: the cached record has an equal edge, so the
	// repeat alert is suppressed.
	second, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Alerts)
}

func TestRunOnceRespectsAlertThreshold(t *testing.T) {
	deps := testDeps(t, arbSources())
	s, err := New(config.ScoutConfig{AlertThreshold: 0.10}, deps)
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Opportunities)
	assert.Empty(t, result.Alerts, "net edge under the alert threshold stays quiet")
}

func TestRunContinuousStopsOnCancel(t *testing.T) {
	deps := testDeps(t, arbSources())
	s, err := New(config.ScoutConfig{PollInterval: time.Millisecond, MaxPollInterval: 2 * time.Millisecond}, deps)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = s.RunContinuous(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRequiresCore(t *testing.T) {
	_, err := New(config.ScoutConfig{}, Deps{})
	assert.Error(t, err)

	deps := testDeps(t, arbSources())
	deps.Sources = map[events.Venue]events.Source{
		events.VenuePolymarket: stubSource{},
	}
	_, err = New(config.ScoutConfig{}, deps)
	assert.Error(t, err, "two sources required")
}
