// Package main is the entrypoint for the ipowatch notifier CLI.
//
// One invocation performs one notification pass:
//  1. Load and validate configuration (missing required values exit 2
//     before any network or ledger activity).
//  2. Scrape the public listings page for currently open offerings.
//  3. Fetch the mailing-list recipients.
//  4. For each offering x recipient, send a final-day invite unless the
//     dedupe ledger says it was already sent.
//  5. Persist the ledger once at the end.
//
// Flags override the corresponding environment configuration, so a cron
// deployment can be driven entirely by env while ad-hoc runs use flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"ipowatch/internal/config"
	"ipowatch/internal/contacts"
	"ipowatch/internal/ledger"
	"ipowatch/internal/mailer"
	"ipowatch/internal/notifier"
	"ipowatch/internal/scraper"
	"ipowatch/internal/types"
)

const (
	exitOK            = 0
	exitFailure       = 1
	exitConfigMissing = 2
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies the level methods but With returns *slog.Logger,
// not types.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

func main() {
	os.Exit(run())
}

func run() int {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	forceSend := flag.Bool("force-send", false, "send even if already recorded in the ledger")
	devMode := flag.Bool("dev", false, "dev mode: send only to the test address, never touch the ledger")
	dumpICS := flag.Bool("dump-ics", false, "write the last generated calendar invite to the debug path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			return exitConfigMissing
		}
		return exitFailure
	}

	// CLI flags override env-provided modes.
	if *verbose {
		cfg.Modes.Verbose = true
	}
	if *forceSend {
		cfg.Modes.ForceSend = true
	}
	if *devMode {
		cfg.Modes.DevMode = true
	}
	if *dumpICS {
		cfg.Modes.DumpICS = true
	}

	level := slog.LevelInfo
	if cfg.Modes.Verbose {
		level = slog.LevelDebug
	}
	logger := types.Logger(&slogAdapter{logger: slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)})

	smtpMailer, err := mailer.New(cfg.SMTP, cfg.Sender, logger)
	if err != nil {
		logger.Error("mailer initialization failed", "error", err.Error())
		return exitFailure
	}

	orch, err := notifier.New(cfg, notifier.Deps{
		Offerings: scraper.New(logger),
		Contacts:  contacts.NewClient(cfg.Contacts, logger),
		Mailer:    smtpMailer,
		Store:     ledger.NewStore(cfg.Ledger.Path, logger),
		Clock:     types.RealClock{},
		Logger:    logger,
	})
	if err != nil {
		logger.Error("orchestrator initialization failed", "error", err.Error())
		return exitFailure
	}

	sent, err := orch.Run(context.Background())
	if err != nil {
		logger.Error("run failed", "sent", sent, "error", err.Error())
		return exitFailure
	}
	logger.Info("sent emails", "count", sent)
	return exitOK
}
