package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/cnukaus/Polymarket-arbitrage/internal/arb"
	"github.com/cnukaus/Polymarket-arbitrage/internal/cache"
	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/depth"
	"github.com/cnukaus/Polymarket-arbitrage/internal/embed"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/kafka"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
	"github.com/cnukaus/Polymarket-arbitrage/internal/review"
	"github.com/cnukaus/Polymarket-arbitrage/internal/scout"
	sqlstore "github.com/cnukaus/Polymarket-arbitrage/internal/storage/sqlite"
	"github.com/cnukaus/Polymarket-arbitrage/internal/venues"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()
	logging.InitFromEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.Fatalf("[scout] config: %v", err)
	}

	polymarket := venues.NewPolymarket(venues.PolymarketConfig{})
	kalshi := venues.NewKalshi(venues.KalshiConfig{})

	sources := map[events.Venue]events.Source{
		events.VenuePolymarket: polymarket,
		events.VenueKalshi:     kalshi,
	}
	router := venues.NewRouter(map[events.Venue]depth.LevelSource{
		events.VenuePolymarket: polymarket,
		events.VenueKalshi:     kalshi,
	})

	analyzer, err := depth.NewAnalyzer(router, cfg.Depth)
	if err != nil {
		logging.Fatalf("[scout] depth analyzer: %v", err)
	}

	m, err := matcher.New(cfg.Matcher, buildScorer())
	if err != nil {
		logging.Fatalf("[scout] matcher: %v", err)
	}

	detector, err := arb.NewDetector(cfg.Detector, cfg.VenueFees)
	if err != nil {
		logging.Fatalf("[scout] detector: %v", err)
	}

	deps := scout.Deps{
		Matcher:     m,
		Detector:    detector,
		Sources:     sources,
		Depth:       analyzer,
		ReviewQueue: review.NewMemoryQueue(),
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		opts := cache.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       config.Int("REDIS_DB", 0),
		}
		oppCache, err := cache.NewRedisOpportunityCache(opts)
		if err != nil {
			logging.Fatalf("[scout] opportunity cache: %v", err)
		}
		defer oppCache.Close()
		deps.OppCache = oppCache

		reviewQueue, err := review.NewRedisQueue(addr, opts.Password, opts.DB, "")
		if err != nil {
			logging.Fatalf("[scout] review queue: %v", err)
		}
		defer reviewQueue.Close()
		deps.ReviewQueue = reviewQueue
	}

	store, err := sqlstore.Open(os.Getenv("SQLITE_PATH"))
	if err != nil {
		logging.Fatalf("[scout] open sqlite: %v", err)
	}
	defer store.Close()
	if err := store.CreateTables(ctx); err != nil {
		logging.Fatalf("[scout] create tables: %v", err)
	}
	deps.Store = store

	if os.Getenv("KAFKA_BROKERS") != "" {
		brokers := kafka.Brokers()
		topic := kafka.TopicFromEnv("OPPORTUNITY_KAFKA_TOPIC", kafka.DefaultOpportunityTopic)

		waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
		if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
			logging.Fatalf("[scout] wait for broker: %v", err)
		}
		cancel()

		ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
		if err := kafka.EnsureTopic(ensureCtx, brokers, topic); err != nil {
			logging.Errorf("[scout] ensure topic warning: %v", err)
		}
		cancelEnsure()

		writer := kafka.NewWriter(brokers, topic)
		defer writer.Close()
		deps.Writer = writer
	}

	s, err := scout.New(cfg.Scout, deps)
	if err != nil {
		logging.Fatalf("[scout] %v", err)
	}

	logging.Infof("[scout] starting, poll interval %s, alert threshold %.2f%%",
		cfg.Scout.PollInterval, cfg.Scout.AlertThreshold*100)
	if err := s.RunContinuous(ctx); err != nil && ctx.Err() == nil {
		logging.Fatalf("[scout] %v", err)
	}
}

// buildScorer wires the embedding-based similarity scorer when an API key
// is configured. Without one the matcher runs on the lexical strategies.
func buildScorer() matcher.SimilarityScorer {
	apiKey := os.Getenv("EMBED_API_KEY")
	if apiKey == "" {
		logging.Infof("[scout] EMBED_API_KEY not set, semantic strategy disabled")
		return nil
	}

	client, err := embed.New(embed.Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("EMBED_BASE_URL"),
		Model:   os.Getenv("EMBED_MODEL"),
	})
	if err != nil {
		logging.Fatalf("[scout] embed client: %v", err)
	}

	var embCache cache.EmbeddingCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		embCache, err = cache.NewRedisEmbeddingCache(cache.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       config.Int("REDIS_DB", 0),
		})
		if err != nil {
			logging.Fatalf("[scout] embedding cache: %v", err)
		}
	}
	scorer, err := embed.NewScorer(client, embCache)
	if err != nil {
		logging.Fatalf("[scout] similarity scorer: %v", err)
	}
	return scorer
}
