// Package main is the entry point for the crypto transaction monitor.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chainwatch/monitor/internal/config"
	"github.com/chainwatch/monitor/internal/ingest"
	"github.com/chainwatch/monitor/internal/matcher"
	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/notify"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/server"
	"github.com/chainwatch/monitor/internal/store"
	"github.com/chainwatch/monitor/internal/ui"
)

const (
	// TxChannelBuffer is the size of each chain's buffered transaction channel
	TxChannelBuffer = 1000
	// AlertFeedBuffer is the size of the TUI alert feed channel
	AlertFeedBuffer = 100
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("monitor starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"telegram_token", cfg.MaskedTelegramToken(),
		"chat_id", cfg.ChatID,
		"btc_addresses", len(cfg.Addresses[store.ChainBTC]),
		"eth_addresses", len(cfg.Addresses[store.ChainETH]),
		"btc_ws_url", cfg.BTCWSURL,
		"eth_ws_url", cfg.ETHWSURL,
		"minimum_usd_value", cfg.MinimumUSDValue,
		"ignore_dust", cfg.IgnoreDust,
		"price_update_interval", cfg.PriceUpdateInterval,
		"report_interval", cfg.ReportInterval,
		"port", cfg.Port,
		"enable_tui", cfg.EnableTUI,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Shared state
	book := store.NewAddressBook(cfg.Addresses, cfg.Labels)
	tracker := metrics.NewTracker(book)
	oracle := price.NewOracle()
	dedup := store.NewDedupStore()

	// Price refresh loop
	fetcher := price.NewFetcher(cfg.PriceEndpoint, cfg.PriceUpdateInterval, oracle, tracker)
	go fetcher.Run(ctx)

	// Telegram notifier
	notifier, err := notify.NewService(cfg.TelegramToken, notify.Settings{
		ChatID:       cfg.ChatID,
		MinimumUSD:   cfg.MinimumUSDValue,
		IgnoreDust:   cfg.IgnoreDust,
		MaxPerChain:  cfg.MaxAddressesPerMessage,
		PublicDomain: cfg.PublicDomain,
	}, book, oracle, tracker)
	if err != nil {
		slog.Error("failed to create notifier", "error", err)
		os.Exit(1)
	}
	go notifier.Start(ctx)

	// Tee alerts into the TUI feed when enabled
	var sender matcher.AlertSender = notifier
	var alertFeed chan store.Classification
	if cfg.EnableTUI {
		alertFeed = make(chan store.Classification, AlertFeedBuffer)
		sender = &teeSender{next: notifier, feed: alertFeed}
	}

	// Chain feeds: one connector plus one engine goroutine per chain
	var connectors []*ingest.Connector

	btcChan := make(chan store.Tx, TxChannelBuffer)
	btcConn := ingest.NewConnector(cfg.BTCWSURL, ingest.BTCCodec{}, btcChan, tracker)
	btcConn.Start(ctx)
	connectors = append(connectors, btcConn)
	go matcher.NewEngine(book, oracle, dedup, tracker, sender, cfg.MinimumUSDValue).Run(ctx, btcChan)

	if book.Count(store.ChainETH) > 0 && cfg.ETHWSURL != "" {
		ethChan := make(chan store.Tx, TxChannelBuffer)
		ethConn := ingest.NewConnector(cfg.ETHWSURL, ingest.ETHCodec{}, ethChan, tracker)
		ethConn.Start(ctx)
		connectors = append(connectors, ethConn)
		go matcher.NewEngine(book, oracle, dedup, tracker, sender, cfg.MinimumUSDValue).Run(ctx, ethChan)
	} else {
		slog.Info("eth_feed_disabled",
			"eth_addresses", book.Count(store.ChainETH),
			"eth_ws_url", cfg.ETHWSURL,
		)
	}

	// Scheduled maintenance: dedup clear, daily stats reset, periodic report
	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every 24h", func() {
		cleared := dedup.Len()
		dedup.Clear()
		slog.Info("dedup_cleared", "cleared_hashes", cleared)
	})
	if err != nil {
		slog.Error("failed to schedule dedup clear", "error", err)
		os.Exit(1)
	}
	_, err = scheduler.AddFunc("@every 24h", func() {
		tracker.DailyReset()
		slog.Info("daily_reset")
		notifier.SendResetNotice(ctx)
	})
	if err != nil {
		slog.Error("failed to schedule daily reset", "error", err)
		os.Exit(1)
	}
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.ReportInterval), func() {
		notifier.SendDailyReport(ctx)
	})
	if err != nil {
		slog.Error("failed to schedule report", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Read-only HTTP surface
	srv := server.New(book, oracle, tracker, cfg.MinimumUSDValue, cfg.IgnoreDust)
	go func() {
		slog.Info("http_server_started", "port", cfg.Port)
		if err := srv.Run(cfg.Port); err != nil {
			slog.Error("http_server_failed", "error", err)
			cancel()
		}
	}()

	notifier.SendStartupSummary(ctx)

	slog.Info("monitor_started",
		"btc_addresses", book.Count(store.ChainBTC),
		"eth_addresses", book.Count(store.ChainETH),
		"tui_enabled", cfg.EnableTUI,
	)

	// Start TUI or run in background mode
	if cfg.EnableTUI {
		slog.Info("starting_tui")
		app := ui.NewApp(alertFeed, book, oracle, tracker)

		go func() {
			if err := app.Run(); err != nil {
				slog.Error("tui_error", "error", err)
				cancel()
			}
		}()

		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
			app.Stop()
		case <-ctx.Done():
			app.Stop()
		}
	} else {
		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
		case <-ctx.Done():
		}
	}

	cancel()
	scheduler.Stop()

	slog.Info("shutting_down", "status", "stopping feeds")
	for _, conn := range connectors {
		conn.Wait()
	}

	slog.Info("shutdown_complete")
}

// teeSender forwards alerts to the notifier and mirrors them into the
// TUI feed without blocking the matching pipeline.
type teeSender struct {
	next matcher.AlertSender
	feed chan<- store.Classification
}

func (t *teeSender) SendAlert(ctx context.Context, c store.Classification, ordinal int) error {
	select {
	case t.feed <- c:
	default:
		slog.Warn("alert_feed_full", "tx_hash", store.TruncateHash(c.TxHash))
	}
	return t.next.SendAlert(ctx, c, ordinal)
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
