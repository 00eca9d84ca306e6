package venues

import (
	"context"
	"fmt"
	"strings"

	"github.com/cnukaus/Polymarket-arbitrage/internal/depth"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
)

// Router fans book lookups out to the right venue connector. Book ids are
// "<venue>:<marketID>/<side>"; the venue prefix is stripped before the
// lookup is forwarded.
type Router struct {
	sources map[events.Venue]depth.LevelSource
}

// NewRouter builds a router over the per-venue level sources.
func NewRouter(sources map[events.Venue]depth.LevelSource) *Router {
	return &Router{sources: sources}
}

// GetPriceLevels forwards to the connector named by the book id prefix.
func (r *Router) GetPriceLevels(ctx context.Context, bookID string) ([]depth.RawLevel, error) {
	idx := strings.Index(bookID, ":")
	if idx < 0 {
		return nil, fmt.Errorf("venues: book id %q missing venue prefix", bookID)
	}
	venue := events.Venue(bookID[:idx])
	source, ok := r.sources[venue]
	if !ok {
		return nil, fmt.Errorf("venues: no level source for venue %q", venue)
	}
	return source.GetPriceLevels(ctx, bookID[idx+1:])
}
