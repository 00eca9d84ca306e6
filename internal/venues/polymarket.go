package venues

import (
	"context"
	"encoding/json"
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
	polymarketEventsURL = "https://gamma-api.polymarket.com/events"
	polymarketBookURL   = "https://clob.polymarket.com/book"
)

// Polymarket fetches Gamma events and CLOB books and normalizes them into
// canonical binary events. It pages with a rolling offset: each ListEvents
// call returns one page and advances, resetting at the end of results.
type Polymarket struct {
	baseURL    string
	bookURL    string
	pageSize   int
	httpClient *http.Client

	mu         sync.Mutex
	nextOffset int
	tokens     map[string]string // "<marketID>/<side>" -> clob token
}

// PolymarketConfig provides optional overrides.
type PolymarketConfig struct {
	BaseURL  string
	BookURL  string
	PageSize int
	Timeout  time.Duration
}

// NewPolymarket builds a connector with sane defaults.
func NewPolymarket(cfg PolymarketConfig) *Polymarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = polymarketEventsURL
	}
	if cfg.BookURL == "" {
		cfg.BookURL = polymarketBookURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Polymarket{
		baseURL:    cfg.BaseURL,
		bookURL:    cfg.BookURL,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     make(map[string]string),
	}
}

// ListEvents returns one page of open binary markets as canonical events.
func (p *Polymarket) ListEvents(ctx context.Context, venue events.Venue) ([]events.Event, error) {
	p.mu.Lock()
	offset := p.nextOffset
	p.mu.Unlock()

	list, err := p.listSummaries(ctx, p.pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("polymarket list events: %w", err)
	}

	var out []events.Event
	for _, summary := range list {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if summary.Closed {
			continue
		}
		detail, err := p.fetchEvent(ctx, summary.ID)
		if err != nil {
			logging.Debugf("[polymarket] skip event %s: %v", summary.ID, err)
			continue
		}
		out = append(out, p.normalize(venue, detail)...)
	}

	p.mu.Lock()
	if len(list) < p.pageSize {
		p.nextOffset = 0
	} else {
		p.nextOffset = offset + p.pageSize
	}
	p.mu.Unlock()

	return out, nil
}

// GetPriceLevels fetches the CLOB book behind a "<marketID>/<side>" id.
func (p *Polymarket) GetPriceLevels(ctx context.Context, bookID string) ([]depth.RawLevel, error) {
	p.mu.Lock()
	token, ok := p.tokens[strings.ToLower(bookID)]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("polymarket: unknown book %q", bookID)
	}

	u, err := url.Parse(p.bookURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token_id", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	var book clobBook
	if err := doJSON(p.httpClient, req, &book); err != nil {
		return nil, fmt.Errorf("polymarket book %s: %w", bookID, err)
	}

	levels := make([]depth.RawLevel, 0, len(book.Bids)+len(book.Asks))
	for _, lvl := range book.Bids {
		levels = append(levels, depth.RawLevel{
			Price: parseDecimal(lvl.Price),
			Size:  parseDecimal(lvl.Size),
			Side:  depth.SideBuy,
		})
	}
	for _, lvl := range book.Asks {
		levels = append(levels, depth.RawLevel{
			Price: parseDecimal(lvl.Price),
			Size:  parseDecimal(lvl.Size),
			Side:  depth.SideSell,
		})
	}
	return levels, nil
}

func (p *Polymarket) listSummaries(ctx context.Context, limit, offset int) ([]gammaSummary, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("closed", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	var list []gammaSummary
	if err := doJSON(p.httpClient, req, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Polymarket) fetchEvent(ctx context.Context, id string) (*gammaEvent, error) {
	u := fmt.Sprintf("%s/%s", strings.TrimRight(p.baseURL, "/"), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var ev gammaEvent
	if err := doJSON(p.httpClient, req, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// normalize flattens a Gamma event into one canonical event per binary
// market, remembering the clob tokens for later book lookups.
func (p *Polymarket) normalize(venue events.Venue, ev *gammaEvent) []events.Event {
	now := time.Now().UTC()
	var out []events.Event

	for _, m := range ev.Markets {
		if m.Closed || !m.Active {
			continue
		}
		tokens := parseTokenIDs(m.ClobTokenIds)
		if len(tokens) != 2 {
			continue
		}

		deadline := parseRFC3339(m.EndDate)
		if deadline.IsZero() {
			deadline = parseRFC3339(ev.EndDate)
		}

		yesPrice := m.LastTradePrice
		title := m.Question
		if title == "" {
			title = ev.Title
		}

		p.mu.Lock()
		p.tokens[strings.ToLower(m.ID+"/yes")] = tokens[0]
		p.tokens[strings.ToLower(m.ID+"/no")] = tokens[1]
		p.mu.Unlock()

		canonical := events.Event{
			ID:                  m.ID,
			SourceIDs:           map[events.Venue]string{venue: m.ID},
			Title:               title,
			Entities:            extractEntities(title),
			Category:            ev.Category,
			ResolutionCriteria:  strings.TrimSpace(ev.Description + "\n" + m.Description),
			ResolutionSourceURL: ev.ResolutionSource,
			Deadline:            deadline,
			Venue:               venue,
			MarketType:          events.MarketBinary,
			MinTick:             m.MinTickSize,
			TotalVolume:         fptr(m.VolumeNum),
			CreatedAt:           now,
			UpdatedAt:           now,
			ContractSides: []events.ContractSide{
				{
					SideID:             tokens[0],
					Name:               "YES",
					Price:              yesPrice,
					ImpliedProbability: yesPrice,
					Volume24h:          fptr(m.Volume24h),
					Liquidity:          fptr(m.LiquidityNum),
				},
				{
					SideID:             tokens[1],
					Name:               "NO",
					Price:              clamp01(1 - yesPrice),
					ImpliedProbability: clamp01(1 - yesPrice),
					Volume24h:          fptr(m.Volume24h),
					Liquidity:          fptr(m.LiquidityNum),
				},
			},
		}
		out = append(out, canonical)
	}
	return out
}

func parseTokenIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func parseDecimal(val string) float64 {
	f, _ := strconv.ParseFloat(val, 64)
	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type gammaSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Closed bool   `json:"closed"`
}

type gammaEvent struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	ResolutionSource string        `json:"resolutionSource"`
	Category         string        `json:"category"`
	EndDate          string        `json:"endDate"`
	Markets          []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	ID             string  `json:"id"`
	Question       string  `json:"question"`
	Description    string  `json:"description"`
	LastTradePrice float64 `json:"lastTradePrice"`
	VolumeNum      float64 `json:"volumeNum"`
	Volume24h      float64 `json:"volume24hr"`
	LiquidityNum   float64 `json:"liquidityNum"`
	ClobTokenIds   string  `json:"clobTokenIds"`
	MinTickSize    float64 `json:"orderPriceMinTickSize"`
	EndDate        string  `json:"endDate"`
	Active         bool    `json:"active"`
	Closed         bool    `json:"closed"`
}

type clobBook struct {
	Bids []clobLevel `json:"bids"`
	Asks []clobLevel `json:"asks"`
}

type clobLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
