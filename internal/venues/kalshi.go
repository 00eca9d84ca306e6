package venues

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/depth"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
)

const (
	kalshiEventsURL  = "https://api.elections.kalshi.com/trade-api/v2/events"
	kalshiMarketsURL = "https://api.elections.kalshi.com/trade-api/v2/markets"
)

// Kalshi fetches the Trade API and normalizes open binary markets. Pages
// with the API cursor the same way the Polymarket connector pages with an
// offset: one page per ListEvents call.
type Kalshi struct {
	baseURL    string
	bookURL    string
	pageSize   int
	httpClient *http.Client

	mu         sync.Mutex
	nextCursor string
}

// KalshiConfig provides optional overrides.
type KalshiConfig struct {
	BaseURL  string
	BookURL  string
	PageSize int
	Timeout  time.Duration
}

// NewKalshi builds a connector with sane defaults.
func NewKalshi(cfg KalshiConfig) *Kalshi {
	if cfg.BaseURL == "" {
		cfg.BaseURL = kalshiEventsURL
	}
	if cfg.BookURL == "" {
		cfg.BookURL = kalshiMarketsURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.PageSize > 200 {
		cfg.PageSize = 200 // API limit
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Kalshi{
		baseURL:    cfg.BaseURL,
		bookURL:    cfg.BookURL,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ListEvents returns one page of open markets as canonical events and
// advances the cursor.
func (k *Kalshi) ListEvents(ctx context.Context, venue events.Venue) ([]events.Event, error) {
	k.mu.Lock()
	cursor := k.nextCursor
	k.mu.Unlock()

	resp, err := k.listEvents(ctx, k.pageSize, cursor)
	if err != nil {
		return nil, fmt.Errorf("kalshi list events: %w", err)
	}

	var out []events.Event
	for _, ev := range resp.Events {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		detail, err := k.fetchEvent(ctx, ev.Ticker)
		if err != nil {
			logging.Debugf("[kalshi] skip event %s: %v", ev.Ticker, err)
			continue
		}
		out = append(out, normalizeKalshi(venue, detail)...)
	}

	k.mu.Lock()
	k.nextCursor = resp.Cursor
	k.mu.Unlock()

	return out, nil
}

// GetPriceLevels fetches the order book behind a "<ticker>/<side>" id.
// Kalshi publishes resting YES and NO bids; the asks for one side are the
// mirrored bids of the other.
func (k *Kalshi) GetPriceLevels(ctx context.Context, bookID string) ([]depth.RawLevel, error) {
	ticker, side := splitBookID(bookID)

	u := fmt.Sprintf("%s/%s/orderbook?depth=20", strings.TrimRight(k.bookURL, "/"), ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var book kalshiBookResponse
	if err := doJSON(k.httpClient, req, &book); err != nil {
		return nil, fmt.Errorf("kalshi book %s: %w", bookID, err)
	}

	own, opposite := book.Orderbook.Yes, book.Orderbook.No
	if side == "no" {
		own, opposite = book.Orderbook.No, book.Orderbook.Yes
	}

	var levels []depth.RawLevel
	for _, lvl := range own {
		if len(lvl) < 2 {
			continue
		}
		levels = append(levels, depth.RawLevel{
			Price: centsToProb(lvl[0]),
			Size:  float64(lvl[1]),
			Side:  depth.SideBuy,
		})
	}
	for _, lvl := range opposite {
		if len(lvl) < 2 {
			continue
		}
		levels = append(levels, depth.RawLevel{
			Price: clamp01(1 - centsToProb(lvl[0])),
			Size:  float64(lvl[1]),
			Side:  depth.SideSell,
		})
	}
	return levels, nil
}

func (k *Kalshi) listEvents(ctx context.Context, limit int, cursor string) (*kalshiEventsResponse, error) {
	u, err := url.Parse(k.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", "open")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	var out kalshiEventsResponse
	if err := doJSON(k.httpClient, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (k *Kalshi) fetchEvent(ctx context.Context, ticker string) (*kalshiEventDetail, error) {
	u := fmt.Sprintf("%s/%s?with_nested_markets=true", strings.TrimRight(k.baseURL, "/"), ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out kalshiEventDetail
	if err := doJSON(k.httpClient, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func normalizeKalshi(venue events.Venue, detail *kalshiEventDetail) []events.Event {
	ev := detail.Event
	now := time.Now().UTC()

	markets := detail.Markets
	if len(markets) == 0 {
		markets = ev.Markets
	}

	var out []events.Event
	for _, m := range markets {
		if m.Status != "active" {
			continue
		}

		deadline := parseRFC3339(m.CloseTime)
		if deadline.IsZero() {
			deadline = parseRFC3339(ev.CloseTime)
		}

		title := m.Title
		if title == "" {
			title = ev.Title
		}

		yesPrice := centsToProb(m.YesAsk)
		noPrice := centsToProb(m.NoAsk)
		criteria := strings.TrimSpace(m.RulesPrimary + "\n" + m.RulesSecondary)
		if criteria == "" {
			criteria = strings.TrimSpace(ev.RulesPrimary + "\n" + ev.RulesSecondary)
		}

		resolutionURL := ""
		if len(ev.SettlementSources) > 0 {
			resolutionURL = ev.SettlementSources[0]
		}

		out = append(out, events.Event{
			ID:                  m.Ticker,
			SourceIDs:           map[events.Venue]string{venue: m.Ticker},
			Title:               title,
			Entities:            extractEntities(title),
			Category:            ev.Category,
			ResolutionCriteria:  criteria,
			ResolutionSourceURL: resolutionURL,
			Deadline:            deadline,
			Venue:               venue,
			MarketType:          events.MarketBinary,
			MinTick:             float64(m.TickSize) / 100,
			TotalVolume:         fptr(float64(m.Volume)),
			CreatedAt:           now,
			UpdatedAt:           now,
			ContractSides: []events.ContractSide{
				{
					SideID:             m.Ticker + "/yes",
					Name:               "YES",
					Price:              yesPrice,
					ImpliedProbability: yesPrice,
					Volume24h:          fptr(float64(m.Volume24h)),
					Liquidity:          fptr(float64(m.OpenInterest)),
				},
				{
					SideID:             m.Ticker + "/no",
					Name:               "NO",
					Price:              noPrice,
					ImpliedProbability: noPrice,
					Volume24h:          fptr(float64(m.Volume24h)),
					Liquidity:          fptr(float64(m.OpenInterest)),
				},
			},
		})
	}
	return out
}

func centsToProb(v int64) float64 {
	return float64(v) / 100
}

type kalshiEventsResponse struct {
	Events []kalshiEvent `json:"events"`
	Cursor string        `json:"cursor"`
}

type kalshiEvent struct {
	Ticker            string         `json:"event_ticker"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	Category          string         `json:"category"`
	CloseTime         string         `json:"close_time"`
	SettlementSources []string       `json:"settlement_sources"`
	RulesPrimary      string         `json:"rules_primary"`
	RulesSecondary    string         `json:"rules_secondary"`
	Markets           []kalshiMarket `json:"markets"`
}

type kalshiEventDetail struct {
	Event   kalshiEvent    `json:"event"`
	Markets []kalshiMarket `json:"markets"`
}

type kalshiMarket struct {
	Ticker         string `json:"ticker"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	YesAsk         int64  `json:"yes_ask"`
	YesBid         int64  `json:"yes_bid"`
	NoAsk          int64  `json:"no_ask"`
	NoBid          int64  `json:"no_bid"`
	Volume         int64  `json:"volume"`
	Volume24h      int64  `json:"volume_24h"`
	OpenInterest   int64  `json:"open_interest"`
	RulesPrimary   string `json:"rules_primary"`
	RulesSecondary string `json:"rules_secondary"`
	CloseTime      string `json:"close_time"`
	TickSize       int64  `json:"tick_size"`
}

type kalshiBookResponse struct {
	Orderbook kalshiOrderbook `json:"orderbook"`
}

type kalshiOrderbook struct {
	Yes [][]int64 `json:"yes"`
	No  [][]int64 `json:"no"`
}
