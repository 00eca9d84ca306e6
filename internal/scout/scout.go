package scout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cnukaus/Polymarket-arbitrage/internal/arb"
	"github.com/cnukaus/Polymarket-arbitrage/internal/cache"
	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/depth"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
	"github.com/cnukaus/Polymarket-arbitrage/internal/queue"
	"github.com/cnukaus/Polymarket-arbitrage/internal/review"
	"github.com/cnukaus/Polymarket-arbitrage/internal/storage/sqlite"
)

// Deps carries the optional sinks around the core pipeline. Any nil field
// simply disables that sink; the scan itself still runs.
type Deps struct {
	Matcher  *matcher.Matcher
	Detector *arb.Detector
	Sources  map[events.Venue]events.Source

	Depth       *depth.Analyzer
	ReviewQueue review.Queue
	OppCache    cache.OpportunityCache
	Store       *sqlite.Store
	Writer      *kafka.Writer
}

// Scout runs the discovery loop: fetch, match, detect, verify against live
// depth, then alert.
type Scout struct {
	cfg  config.ScoutConfig
	deps Deps
}

// New builds a scout. Matcher, detector, and at least two sources are
// required; everything else is optional.
func New(cfg config.ScoutConfig, deps Deps) (*Scout, error) {
	if deps.Matcher == nil {
		return nil, fmt.Errorf("scout: matcher is required")
	}
	if deps.Detector == nil {
		return nil, fmt.Errorf("scout: detector is required")
	}
	if len(deps.Sources) < 2 {
		return nil, fmt.Errorf("scout: need at least two venue sources, got %d", len(deps.Sources))
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.MaxPollInterval <= 0 {
		cfg.MaxPollInterval = 600 * time.Second
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = 3
	}
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = 0.03
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.ProbeSize <= 0 {
		cfg.ProbeSize = 100
	}
	return &Scout{cfg: cfg, deps: deps}, nil
}

// CycleResult summarizes one scan for logging and tests.
type CycleResult struct {
	EventsFetched int
	Matches       int
	Opportunities int
	Alerts        []arb.Opportunity
}

// RunOnce executes a single scan cycle. Per-venue fetch failures are
// isolated: a venue that errors out is skipped for this cycle and the rest
// still run. The cycle itself only errors when fewer than two venues
// produced events.
func (s *Scout) RunOnce(ctx context.Context) (CycleResult, error) {
	result := CycleResult{}

	fetched := s.fetchAll(ctx)
	if len(fetched) < 2 {
		return result, fmt.Errorf("scout: only %d venue(s) fetched, nothing to match", len(fetched))
	}
	for _, evs := range fetched {
		result.EventsFetched += len(evs)
	}

	matches := s.matchAll(ctx, fetched)
	result.Matches = len(matches)

	s.enqueueReviews(ctx, matches)

	opportunities := s.deps.Detector.ScanForArbitrage(matches)
	result.Opportunities = len(opportunities)

	for i := range opportunities {
		opp := &opportunities[i]
		feas := s.verifyDepth(ctx, opp)
		if feas != nil && !feas.Feasible {
			logging.Debugf("[scout] %s not feasible at live depth: %s",
				opp.Match.PairID, strings.Join(feas.Constraints, "; "))
			s.persist(ctx, opp, feas)
			continue
		}
		s.persist(ctx, opp, feas)

		if opp.NetEdge < s.cfg.AlertThreshold {
			continue
		}
		if s.alreadyAlerted(ctx, opp) {
			continue
		}
		result.Alerts = append(result.Alerts, *opp)
	}

	if len(result.Alerts) > 0 {
		if err := queue.PublishOpportunities(ctx, s.deps.Writer, result.Alerts); err != nil {
			logging.Errorf("[scout] publish alerts: %v", err)
		}
		s.recordAlerts(ctx, result.Alerts)
	}

	logging.Infof("[scout] cycle done: %d events, %d matches, %d opportunities, %d alerts",
		result.EventsFetched, result.Matches, result.Opportunities, len(result.Alerts))
	return result, nil
}

// RunContinuous loops RunOnce until the context is cancelled. After
// MaxConsecutiveErrors failed cycles the interval doubles, up to the
// ceiling; one good cycle resets both the counter and the interval.
func (s *Scout) RunContinuous(ctx context.Context) error {
	interval := s.cfg.PollInterval
	consecutiveErrors := 0

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			consecutiveErrors++
			logging.Errorf("[scout] cycle failed (%d consecutive): %v", consecutiveErrors, err)
			if consecutiveErrors >= s.cfg.MaxConsecutiveErrors {
				interval = minDuration(interval*2, s.cfg.MaxPollInterval)
				consecutiveErrors = 0
				logging.Infof("[scout] backing off, poll interval now %s", interval)
			}
		} else {
			consecutiveErrors = 0
			interval = s.cfg.PollInterval
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// fetchAll pulls each venue's events concurrently under the fetch timeout.
func (s *Scout) fetchAll(ctx context.Context) map[events.Venue][]events.Event {
	var mu sync.Mutex
	fetched := make(map[events.Venue][]events.Event)

	var wg sync.WaitGroup
	for venue, source := range s.deps.Sources {
		wg.Add(1)
		go func(venue events.Venue, source events.Source) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()

			evs, err := source.ListEvents(fetchCtx, venue)
			if err != nil {
				logging.Errorf("[scout] fetch %s: %v", venue, err)
				return
			}
			mu.Lock()
			fetched[venue] = evs
			mu.Unlock()
		}(venue, source)
	}
	wg.Wait()
	return fetched
}

// matchAll runs the matcher over every unordered venue pair.
func (s *Scout) matchAll(ctx context.Context, fetched map[events.Venue][]events.Event) []matcher.MatchResult {
	venues := make([]events.Venue, 0, len(fetched))
	for v := range fetched {
		venues = append(venues, v)
	}
	sortVenues(venues)

	var matches []matcher.MatchResult
	for i := 0; i < len(venues); i++ {
		for j := i + 1; j < len(venues); j++ {
			matches = append(matches,
				s.deps.Matcher.FindMatches(ctx, fetched[venues[i]], fetched[venues[j]])...)
		}
	}
	return matches
}

func (s *Scout) enqueueReviews(ctx context.Context, matches []matcher.MatchResult) {
	if s.deps.ReviewQueue == nil {
		return
	}
	for i := range matches {
		if !matches[i].HumanReviewRequired {
			continue
		}
		if err := s.deps.ReviewQueue.Enqueue(ctx, matches[i]); err != nil {
			logging.Errorf("[scout] enqueue review %s: %v", matches[i].PairID, err)
		}
	}
}

// verifyDepth re-prices the opportunity against live books. When depth is
// available its numbers supersede the detector's liquidity heuristic. A
// depth fetch failure falls back to the heuristic rather than killing the
// opportunity.
func (s *Scout) verifyDepth(ctx context.Context, opp *arb.Opportunity) *depth.FeasibilityAssessment {
	if s.deps.Depth == nil {
		return nil
	}

	depthA, err := s.deps.Depth.GetMarketDepth(ctx, legBookID(&opp.Match.EventA, opp.LegA.Side))
	if err != nil {
		logging.Errorf("[scout] depth for %s: %v", opp.Match.EventA.ID, err)
		return nil
	}
	depthB, err := s.deps.Depth.GetMarketDepth(ctx, legBookID(&opp.Match.EventB, opp.LegB.Side))
	if err != nil {
		logging.Errorf("[scout] depth for %s: %v", opp.Match.EventB.ID, err)
		return nil
	}

	size := s.cfg.ProbeSize
	if opp.MaxPositionSize > 0 && opp.MaxPositionSize < size {
		size = opp.MaxPositionSize
	}

	legs, err := depth.CalculateArbitrageSlippage(depthA, depthB, size)
	if err != nil {
		logging.Debugf("[scout] %s: %v", opp.Match.PairID, err)
		return nil
	}

	feas := depth.AssessArbitrageFeasibility(legs, s.cfg.AlertThreshold, s.deps.Detector.MaxSlippageTolerance())
	if feas.Feasible {
		opp.NetEdge = feas.NetEdgeAfterSlippage
		opp.MaxPositionSize = feas.MaxSize
		opp.ExpectedProfit = feas.NetEdgeAfterSlippage * feas.MaxSize
		opp.SlippageEstimate = feas.TotalSlippage
	}
	return &feas
}

func (s *Scout) persist(ctx context.Context, opp *arb.Opportunity, feas *depth.FeasibilityAssessment) {
	if s.deps.Store == nil {
		return
	}
	if err := s.deps.Store.InsertOpportunity(ctx, opp, feas); err != nil {
		logging.Errorf("[scout] store opportunity %s: %v", opp.Match.PairID, err)
	}
}

// alreadyAlerted suppresses repeat alerts for a pair unless the edge
// improved since the cached record.
func (s *Scout) alreadyAlerted(ctx context.Context, opp *arb.Opportunity) bool {
	if s.deps.OppCache == nil {
		return false
	}
	record, found, err := s.deps.OppCache.Get(ctx, opp.Match.PairID)
	if err != nil {
		logging.Errorf("[scout] dedup lookup %s: %v", opp.Match.PairID, err)
		return false
	}
	return found && record.NetEdge >= opp.NetEdge
}

func (s *Scout) recordAlerts(ctx context.Context, alerts []arb.Opportunity) {
	if s.deps.OppCache == nil {
		return
	}
	for i := range alerts {
		record := cache.OpportunityRecord{
			NetEdge:   alerts[i].NetEdge,
			Direction: alerts[i].Direction(),
			MaxSize:   alerts[i].MaxPositionSize,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.deps.OppCache.Set(ctx, alerts[i].Match.PairID, record); err != nil {
			logging.Errorf("[scout] dedup store %s: %v", alerts[i].Match.PairID, err)
		}
	}
}

// legBookID names the order book for one contract side of an event, in the
// form the venue router resolves: "<venue>:<marketID>/<side>".
func legBookID(e *events.Event, side string) string {
	return fmt.Sprintf("%s:%s/%s", e.Venue, e.ID, strings.ToLower(side))
}

func sortVenues(venues []events.Venue) {
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
