package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// Settings is the slice of configuration the notifier needs for
// messages and command replies.
type Settings struct {
	ChatID       string
	MinimumUSD   float64
	IgnoreDust   bool
	MaxPerChain  int
	PublicDomain string
}

// Service sends monitor messages to the destination chat and answers
// read-only bot commands.
type Service struct {
	bot      *tgbot.Bot
	settings Settings
	book     *store.AddressBook
	oracle   *price.Oracle
	tracker  *metrics.Tracker
}

// NewService wires the Telegram service and registers its command
// handlers.
func NewService(token string, settings Settings, book *store.AddressBook,
	oracle *price.Oracle, tracker *metrics.Tracker) (*Service, error) {

	b, err := tgbot.New(token, tgbot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	s := &Service{
		bot:      b,
		settings: settings,
		book:     book,
		oracle:   oracle,
		tracker:  tracker,
	}
	s.registerHandlers()
	return s, nil
}

func (s *Service) registerHandlers() {
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, s.onHelp)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, s.onHelp)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/status", tgbot.MatchTypeExact, s.onStatus)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/addresses", tgbot.MatchTypeExact, s.onAddresses)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/stats", tgbot.MatchTypeExact, s.onStats)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/prices", tgbot.MatchTypeExact, s.onPrices)
}

// Start long-polls for bot commands until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.bot.Start(ctx)
}

// send delivers HTML text to the destination chat.
func (s *Service) send(ctx context.Context, text string) error {
	_, err := s.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    s.settings.ChatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
		LinkPreviewOptions: &tgmodels.LinkPreviewOptions{
			IsDisabled: tgbot.True(),
		},
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendAlert delivers a formatted incoming-transfer alert. Implements
// the matcher's AlertSender.
func (s *Service) SendAlert(ctx context.Context, c store.Classification, ordinal int) error {
	label := s.book.Label(c.Chain, c.MatchedAddress)
	return s.send(ctx, FormatAlert(c, label, ordinal, time.Now()))
}

// SendStartupSummary announces configuration at startup. Best effort.
func (s *Service) SendStartupSummary(ctx context.Context) {
	text := FormatStartup(StartupInfo{
		Book:         s.book,
		Oracle:       s.oracle,
		MinimumUSD:   s.settings.MinimumUSD,
		IgnoreDust:   s.settings.IgnoreDust,
		MaxPerChain:  s.settings.MaxPerChain,
		PublicDomain: s.settings.PublicDomain,
	})
	if err := s.send(ctx, text); err != nil {
		slog.Error("startup_summary_failed", "error", err)
		s.tracker.RecordError()
		return
	}
	slog.Info("startup_summary_sent")
}

// SendDailyReport delivers the periodic summary report. Best effort.
func (s *Service) SendDailyReport(ctx context.Context) {
	text := FormatReport(ReportInfo{
		Snapshot:   s.tracker.Snapshot(),
		Book:       s.book,
		Oracle:     s.oracle,
		Tracker:    s.tracker,
		MinimumUSD: s.settings.MinimumUSD,
		IgnoreDust: s.settings.IgnoreDust,
		Now:        time.Now(),
	})
	if err := s.send(ctx, text); err != nil {
		slog.Error("daily_report_failed", "error", err)
		s.tracker.RecordError()
		return
	}
	slog.Info("daily_report_sent")
}

// SendResetNotice announces the daily counter reset. Failure is
// logged, never rolls the reset back.
func (s *Service) SendResetNotice(ctx context.Context) {
	if err := s.send(ctx, FormatResetNotice(s.settings.MinimumUSD)); err != nil {
		slog.Error("reset_notice_failed", "error", err)
		s.tracker.RecordError()
	}
}

// reply answers the chat a command came from.
func (s *Service) reply(ctx context.Context, b *tgbot.Bot, upd *tgmodels.Update, text string) {
	if upd.Message == nil {
		return
	}
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    upd.Message.Chat.ID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		slog.Warn("command_reply_failed", "error", err)
	}
}

func (s *Service) onHelp(ctx context.Context, b *tgbot.Bot, upd *tgmodels.Update) {
	var sb strings.Builder
	sb.WriteString("🤖 <b>Crypto Monitor Bot</b>\n\n")
	sb.WriteString("📊 <b>Currently Monitoring:</b>\n")
	for _, chain := range store.Chains {
		fmt.Fprintf(&sb, "%s %d %s addresses\n", chainEmoji(chain), s.book.Count(chain), chain.AssetSymbol())
	}
	fmt.Fprintf(&sb, "\n⚙️ <b>Alert Settings:</b>\n")
	sb.WriteString("📥 Type: Incoming Transfers Only\n")
	fmt.Fprintf(&sb, "💰 Minimum: $%.2f USD\n", s.settings.MinimumUSD)
	fmt.Fprintf(&sb, "🗑️ Dust Filter: %s\n", enabledWord(s.settings.IgnoreDust))
	sb.WriteString("\n🔧 <b>Commands:</b>\n")
	sb.WriteString("/status - Current status &amp; filter stats\n")
	sb.WriteString("/addresses - List monitored addresses\n")
	sb.WriteString("/stats - Top addresses by value\n")
	sb.WriteString("/prices - Current crypto prices\n")
	if s.settings.PublicDomain != "" {
		fmt.Fprintf(&sb, "\n🌐 <b>Web Interface:</b>\n%s/health\n%s/addresses\n%s/stats\n",
			s.settings.PublicDomain, s.settings.PublicDomain, s.settings.PublicDomain)
	}
	s.reply(ctx, b, upd, sb.String())
}

func (s *Service) onStatus(ctx context.Context, b *tgbot.Bot, upd *tgmodels.Update) {
	snap := s.tracker.Snapshot()

	var sb strings.Builder
	sb.WriteString("📊 <b>Bot Status</b>\n\n")
	fmt.Fprintf(&sb, "⏱️ <b>Uptime:</b> %.1f hours\n", snap.Uptime.Hours())
	fmt.Fprintf(&sb, "🔔 <b>Alerts Today:</b> %d\n", snap.TotalAlerts)
	fmt.Fprintf(&sb, "🔇 <b>Filtered (&lt; $%.2f):</b> %d\n", s.settings.MinimumUSD, snap.TotalFiltered)
	for _, chain := range store.Chains {
		fmt.Fprintf(&sb, "🔌 <b>Feed %s:</b> %s\n", chain.AssetSymbol(), snap.ConnStates[chain])
	}
	fmt.Fprintf(&sb, "❌ <b>Errors:</b> %d\n\n", snap.ErrorCount)
	sb.WriteString("💰 <b>Prices:</b>\n")
	writePrices(&sb, s.oracle)
	s.reply(ctx, b, upd, sb.String())
}

func (s *Service) onAddresses(ctx context.Context, b *tgbot.Bot, upd *tgmodels.Update) {
	snap := s.tracker.Snapshot()

	var sb strings.Builder
	sb.WriteString("📍 <b>Monitored Addresses</b>\n")
	fmt.Fprintf(&sb, "💰 <b>Filter:</b> Incoming ≥ $%.2f USD\n", s.settings.MinimumUSD)
	for _, chain := range store.Chains {
		addrs := s.book.Addresses(chain)
		if len(addrs) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s <b>%s Addresses:</b>\n", chainEmoji(chain), chain.AssetSymbol())
		shown := addrs
		if len(shown) > s.settings.MaxPerChain {
			shown = shown[:s.settings.MaxPerChain]
		}
		for i, addr := range shown {
			stats := snap.AddressStats[chain][addr]
			fmt.Fprintf(&sb, "%d. <code>%s</code> — %d alerts, %d filtered\n",
				i+1, s.book.Label(chain, addr), stats.Alerts, stats.Filtered)
		}
		if hidden := len(addrs) - len(shown); hidden > 0 {
			fmt.Fprintf(&sb, "<i>... and %d more</i>\n", hidden)
		}
	}
	s.reply(ctx, b, upd, sb.String())
}

func (s *Service) onStats(ctx context.Context, b *tgbot.Bot, upd *tgmodels.Update) {
	var sb strings.Builder
	sb.WriteString("🏆 <b>Top Addresses by Value</b>\n")
	for _, chain := range store.Chains {
		top := s.tracker.TopByValue(chain, 5)
		if len(top) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s <b>%s:</b>\n", chainEmoji(chain), chain.AssetSymbol())
		for i, entry := range top {
			fmt.Fprintf(&sb, "%d. %s — $%.2f (%d alerts)\n",
				i+1, s.book.Label(chain, entry.Address), entry.Stats.TotalValueUSD, entry.Stats.Alerts)
		}
	}
	s.reply(ctx, b, upd, sb.String())
}

func (s *Service) onPrices(ctx context.Context, b *tgbot.Bot, upd *tgmodels.Update) {
	var sb strings.Builder
	sb.WriteString("💰 <b>Current Prices:</b>\n")
	writePrices(&sb, s.oracle)
	s.reply(ctx, b, upd, sb.String())
}
