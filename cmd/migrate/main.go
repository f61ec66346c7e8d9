package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/config"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/migration"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  up          apply all pending migrations
  down        roll back all migrations
  steps N     apply N migrations (negative rolls back)
  version     print the current version`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.MustInit(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "auth-migrate",
	})
	defer logger.Sync()

	m := migration.NewMigrator(cfg.DBUrl)

	switch flag.Arg(0) {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		n, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			logger.Fatal("steps requires an integer argument", zap.String("arg", flag.Arg(1)))
		}
		err = m.Steps(n)
	case "version":
		version, dirty, verr := m.Version()
		if verr == nil {
			logger.Info("Migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		err = verr
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatal("Migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
	logger.Info("Migration command completed", zap.String("command", flag.Arg(0)))
}
