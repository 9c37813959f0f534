package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"InterestBot/internal/catalog"
	"InterestBot/internal/config"
	"InterestBot/internal/dialog"
	"InterestBot/internal/domain"
	"InterestBot/internal/infrastructure/console"
	"InterestBot/internal/infrastructure/session"
	"InterestBot/internal/infrastructure/storage"
	"InterestBot/internal/infrastructure/telegram"
	"InterestBot/internal/logging"
	"InterestBot/internal/matcher"
	"InterestBot/internal/ports"
	"InterestBot/internal/textnorm"
)

// Transport modes.
const (
	ModeTelegram = "telegram"
	ModeConsole  = "console"
)

// Options select the transport. Console fields are used in console mode only.
type Options struct {
	Mode        string
	ConsoleUser domain.User
	In          io.Reader
	Out         io.Writer
}

// Application wires configs to the dialog and its transport.
type Application struct {
	cfg     config.Config
	opts    Options
	logger  *slog.Logger
	dialog  *dialog.Service
	client  *telegram.Client
	closers []io.Closer
}

// New builds every component. The catalog and the similarity index are ready
// before New returns, so no message is handled against a partial index.
func New(ctx context.Context, cfg config.Config, opts Options, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if opts.Mode == "" {
		opts.Mode = ModeTelegram
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Mode != ModeTelegram && opts.Mode != ModeConsole {
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if err := cfg.Validate(opts.Mode == ModeTelegram); err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, opts: opts, logger: baseLogger}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	normalizer := textnorm.New(cfg.Matching.PrimaryLanguage)
	index, err := matcher.BuildIndex(cat, normalizer, cfg.Matching.MaxFeatures)
	if err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}
	engine := matcher.New(cat, index, normalizer, matcher.Options{
		KeywordThreshold: cfg.Matching.KeywordThreshold,
		VectorThreshold:  cfg.Matching.VectorThreshold,
		FallbackScore:    cfg.Matching.FallbackScore,
	}, baseLogger.With("component", "matcher"))
	baseLogger.Info("matching engine ready", "topics", cat.Len(), "features", index.Features())

	repo, err := storage.Open(ctx, storage.Dialect(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, repo)
	if err := repo.SyncTopics(ctx, cat.All()); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("sync topics: %w", err)
	}

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var (
		inviter  ports.Inviter
		notifier ports.AdminNotifier
	)
	if cfg.Telegram.BotToken != "" {
		a.client = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL, cfg.Telegram.PollTimeout+10*time.Second)
		inviter = a.client
		if cfg.Telegram.AdminChatID != 0 {
			notifier = telegram.NewAdminNotifier(a.client, cfg.Telegram.AdminChatID)
		}
	} else {
		inviter = console.OfflineInviter{}
	}
	if notifier == nil && opts.Mode == ModeConsole {
		notifier = console.LogNotifier{Out: opts.Out}
	}
	if notifier == nil {
		baseLogger.Warn("admin chat id not set, support requests are stored only")
	}

	a.dialog, err = dialog.New(dialog.Deps{
		Catalog:  cat,
		Matcher:  engine,
		Store:    repo,
		Sessions: sessions,
		Inviter:  inviter,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "dialog"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) sessionStore(ctx context.Context) (ports.SessionStore, error) {
	switch a.cfg.Session.Backend {
	case "redis":
		client, err := session.DialRedis(ctx, a.cfg.Session.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		a.closers = append(a.closers, client)
		return session.NewRedisStore(client, "", a.cfg.Session.TTL), nil
	default:
		return session.NewMemoryStore(a.cfg.Session.TTL), nil
	}
}

// Run serves until ctx is cancelled or console input ends.
func (a *Application) Run(ctx context.Context) error {
	if a.opts.Mode == ModeConsole {
		user := a.opts.ConsoleUser
		if user.ID == 0 {
			user.ID = 1
		}
		a.logger.Info("console mode", "user_id", user.ID)
		return console.NewRunner(a.dialog, user, a.opts.In, a.opts.Out).Run(ctx)
	}

	poller := telegram.NewPoller(a.client, a.dialog, telegram.PollerOptions{
		Workers:     a.cfg.Telegram.Workers,
		PollTimeout: a.cfg.Telegram.PollTimeout,
	}, a.logger.With("component", "telegram"))
	return poller.Run(ctx)
}

// Close releases storage and session connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
