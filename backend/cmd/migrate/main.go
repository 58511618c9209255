package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"tempstream/backend/libs/db"
	"tempstream/backend/libs/logging"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("TEMPSTREAM_POSTGRES_DSN"), "postgres connection string")
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	logger, err := logging.NewLogger("migrate")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := db.Migrate(*dsn, *direction); err != nil {
		logger.Fatal("migration failed", zap.String("direction", *direction), zap.Error(err))
	}
	logger.Info("migrations applied", zap.String("direction", *direction))
}
