package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"InterestBot/internal/app"
	"InterestBot/internal/config"
	"InterestBot/internal/domain"
	"InterestBot/internal/logging"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "interestbot:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		mode       string
		configPath string
		userID     int64
		userName   string
	)
	flagSet := pflag.NewFlagSet("interestbot", pflag.ContinueOnError)
	flagSet.StringVar(&mode, "mode", app.ModeTelegram, "transport: telegram or console")
	flagSet.StringVar(&configPath, "config", os.Getenv("INTERESTBOT_CONFIG"), "path to YAML config")
	flagSet.Int64Var(&userID, "user-id", 1, "user id for console mode")
	flagSet.StringVar(&userName, "user-name", "Гость", "first name for console mode")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadFile(configPath)
	logger, logFile := logging.NewWithFile(cfg.Logging.Level, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logFile.Close()

	application, err := app.New(ctx, cfg, app.Options{
		Mode:        mode,
		ConsoleUser: domain.User{ID: userID, FirstName: userName, Language: cfg.Matching.PrimaryLanguage},
	}, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
