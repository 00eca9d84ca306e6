package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
	sqlstore "github.com/cnukaus/Polymarket-arbitrage/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()
	logging.InitFromEnv()

	store, err := sqlstore.Open(os.Getenv("SQLITE_PATH"))
	if err != nil {
		logging.Fatalf("[sqlite-migrate] open: %v", err)
	}
	defer store.Close()

	if err := store.CreateTables(ctx); err != nil {
		logging.Fatalf("[sqlite-migrate] create tables: %v", err)
	}
	logging.Infof("[sqlite-migrate] schema ready at %s", store.Path())
}
