package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"labreserve/internal/config"
	"labreserve/internal/database"
	"labreserve/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		filePath string
		dsn      string
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "seed.yaml", "path to the YAML seed file")
	flagSet.StringVar(&dsn, "dsn", "", "database DSN (default: DATABASE_URL)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dsn = cfg.DatabaseURL
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	seed, err := parseSeed(file)
	if err != nil {
		return err
	}

	db, err := database.Connect(dsn, log)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	s := &seeder{store: repository.NewStore(db), log: log}
	if err := s.apply(context.Background(), seed); err != nil {
		return err
	}
	log.Info("seed applied", zap.Int("users", len(seed.Users)), zap.Int("labs", len(seed.Labs)))
	return nil
}
