// migrate applies the embedded schema migrations: go run ./cmd/migrate -direction up
package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/internal/db/migrate"
	"github.com/sean-huni/store-sub000/pkg/config"
	"github.com/sean-huni/store-sub000/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	appLog, err := logger.New(&logger.Config{Level: "info", ServiceName: "store-auth-migrate"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if err := run(*direction, config.Load, appLog); err != nil {
		appLog.Error("Migration failed", zap.String("direction", *direction), zap.Error(err))
		_ = appLog.Sync()
		os.Exit(1)
	}
}

// run parses the direction before loading config so a typo never touches the database
func run(direction string, load func() (*config.Config, error), appLog *logger.Logger) error {
	dir, err := migrate.ParseDirection(direction)
	if err != nil {
		return err
	}

	cfg, err := load()
	if err != nil {
		return err
	}

	appLog.Info("Applying migrations",
		zap.String("direction", string(dir)),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)
	if err := migrate.Run(cfg.Database.URL(), dir); err != nil {
		return err
	}
	appLog.Info("Migrations applied", zap.String("direction", string(dir)))
	return nil
}
