// Package notify formats monitor messages and delivers them to the
// Telegram destination chat.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// chainEmoji is the per-chain marker used throughout the messages.
func chainEmoji(c store.Chain) string {
	switch c {
	case store.ChainBTC:
		return "₿"
	case store.ChainETH:
		return "⟠"
	}
	return "•"
}

// amountFormat returns the fixed-point layout for a chain's coin
// amounts (8 decimals for BTC, 6 for ETH).
func amountFormat(c store.Chain) string {
	if c == store.ChainBTC {
		return "%.8f"
	}
	return "%.6f"
}

// FormatAlert renders the incoming-transfer alert in HTML parse mode.
// ordinal is the address's alert count including this one; label is
// the resolved display name of the matched address.
func FormatAlert(c store.Classification, label string, ordinal int, now time.Time) string {
	from := "Unknown"
	if c.FromAddress != "" {
		from = store.TruncateAddress(c.FromAddress)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>%s Incoming Transaction</b>\n\n", c.Chain.AssetSymbol())
	fmt.Fprintf(&b, "📥 <b>To:</b> %s\n", label)
	fmt.Fprintf(&b, "💰 <b>Amount:</b> "+amountFormat(c.Chain)+" %s\n", c.AmountCoins, c.Chain.AssetSymbol())
	fmt.Fprintf(&b, "💵 <b>USD Value:</b> $%.2f\n\n", c.ValueUSD)
	fmt.Fprintf(&b, "📤 <b>From:</b> <code>%s</code>\n", from)
	fmt.Fprintf(&b, "📍 <b>Address:</b> <code>%s</code>\n\n", store.TruncateAddress(c.MatchedAddress))
	fmt.Fprintf(&b, "🔗 <b>Hash:</b> <code>%s</code>\n", store.TruncateHash(c.TxHash))
	fmt.Fprintf(&b, "⏰ <b>Time:</b> %s\n", now.Format("15:04:05"))
	fmt.Fprintf(&b, "📊 <b>Alert #:</b> %d\n\n", ordinal)
	fmt.Fprintf(&b, "<a href=\"%s\">View Transaction</a>", c.Chain.ExplorerTxURL(c.TxHash))
	return b.String()
}

// StartupInfo carries everything the startup summary needs.
type StartupInfo struct {
	Book         *store.AddressBook
	Oracle       *price.Oracle
	MinimumUSD   float64
	IgnoreDust   bool
	MaxPerChain  int
	PublicDomain string
}

// FormatStartup renders the startup summary message.
func FormatStartup(info StartupInfo) string {
	var b strings.Builder
	b.WriteString("🚀 <b>Crypto Monitor Started</b>\n\n")
	b.WriteString("📊 <b>Monitoring Summary:</b>\n")
	for _, chain := range store.Chains {
		fmt.Fprintf(&b, "%s <b>%s:</b> %d addresses\n", chainEmoji(chain), chain.AssetSymbol(), info.Book.Count(chain))
	}

	fmt.Fprintf(&b, "\n⚡ <b>Alert Settings:</b>\n")
	b.WriteString("📥 Type: Incoming Transfers Only\n")
	fmt.Fprintf(&b, "💰 Minimum: $%.2f USD\n", info.MinimumUSD)
	fmt.Fprintf(&b, "🗑️ Dust Filter: %s\n", enabledWord(info.IgnoreDust))

	for _, chain := range store.Chains {
		addrs := info.Book.Addresses(chain)
		if len(addrs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s <b>%s Addresses:</b>\n", chainEmoji(chain), chain.AssetSymbol())
		shown := addrs
		if len(shown) > info.MaxPerChain {
			shown = shown[:info.MaxPerChain]
		}
		for _, addr := range shown {
			fmt.Fprintf(&b, "• <code>%s</code>\n", info.Book.Label(chain, addr))
		}
		if hidden := len(addrs) - len(shown); hidden > 0 {
			fmt.Fprintf(&b, "<i>... and %d more</i>\n", hidden)
		}
	}

	b.WriteString("\n💰 <b>Current Prices:</b>\n")
	writePrices(&b, info.Oracle)

	if info.PublicDomain != "" {
		fmt.Fprintf(&b, "\n🌐 <b>Endpoints:</b>\n")
		fmt.Fprintf(&b, "• Health: %s/health\n", info.PublicDomain)
		fmt.Fprintf(&b, "• Addresses: %s/addresses\n", info.PublicDomain)
		fmt.Fprintf(&b, "• Stats: %s/stats\n", info.PublicDomain)
	}

	fmt.Fprintf(&b, "\n📥 <b>Ready to monitor incoming transfers ≥ $%.2f USD</b>", info.MinimumUSD)
	return b.String()
}

// ReportInfo carries the inputs of the periodic report message.
type ReportInfo struct {
	Snapshot   metrics.Snapshot
	Book       *store.AddressBook
	Oracle     *price.Oracle
	Tracker    *metrics.Tracker
	MinimumUSD float64
	IgnoreDust bool
	Now        time.Time
}

// FormatReport renders the periodic summary report.
func FormatReport(info ReportInfo) string {
	snap := info.Snapshot

	var b strings.Builder
	b.WriteString("📊 <b>Daily Report - Incoming Transfers</b>\n")
	fmt.Fprintf(&b, "📅 <b>Date:</b> %s\n\n", info.Now.Format("2006-01-02"))
	fmt.Fprintf(&b, "⏱️ <b>Uptime:</b> %.1f hours\n", snap.Uptime.Hours())
	fmt.Fprintf(&b, "🔔 <b>Total Alerts:</b> %d\n", snap.TotalAlerts)
	fmt.Fprintf(&b, "🔇 <b>Filtered (&lt; $%.2f):</b> %d\n", info.MinimumUSD, snap.TotalFiltered)

	for _, chain := range store.Chains {
		alerts, filtered, value := 0, 0, 0.0
		for _, stats := range snap.AddressStats[chain] {
			alerts += stats.Alerts
			filtered += stats.Filtered
			value += stats.TotalValueUSD
		}
		fmt.Fprintf(&b, "\n%s <b>%s Summary:</b>\n", chainEmoji(chain), chain.AssetSymbol())
		fmt.Fprintf(&b, "• Transfers ≥ $%.2f: %d\n", info.MinimumUSD, alerts)
		fmt.Fprintf(&b, "• Filtered: %d\n", filtered)
		fmt.Fprintf(&b, "• Total Value: $%.2f\n", value)
		fmt.Fprintf(&b, "• Monitoring: %d addresses\n", info.Book.Count(chain))
	}

	wroteHeader := false
	for _, chain := range store.Chains {
		best, ok := info.Tracker.MostActive(chain)
		if !ok {
			continue
		}
		if !wroteHeader {
			fmt.Fprintf(&b, "\n🏆 <b>Most Active (Incoming ≥ $%.2f):</b>\n", info.MinimumUSD)
			wroteHeader = true
		}
		fmt.Fprintf(&b, "%s %s: %d transfers\n", chainEmoji(chain),
			info.Book.Label(chain, best.Address), best.Stats.Alerts)
	}

	b.WriteString("\n💰 <b>Current Prices:</b>\n")
	writePrices(&b, info.Oracle)

	b.WriteString("\n⚙️ <b>Filter Settings:</b>\n")
	fmt.Fprintf(&b, "💰 Minimum: $%.2f USD\n", info.MinimumUSD)
	b.WriteString("📥 Type: Incoming Only\n")
	fmt.Fprintf(&b, "🗑️ Dust Filter: %s\n", enabledWord(info.IgnoreDust))

	b.WriteString("\n🟢 <b>Status:</b> All systems operational")
	return b.String()
}

// FormatResetNotice renders the message sent after the daily counter
// reset.
func FormatResetNotice(minimumUSD float64) string {
	var b strings.Builder
	b.WriteString("🔄 <b>Daily Reset Complete</b>\n\n")
	b.WriteString("📊 <b>New day started!</b>\n")
	b.WriteString("⚙️ Alert counters reset to 0\n")
	b.WriteString("🔇 Filter counters reset to 0\n")
	b.WriteString("💰 Value tracking continues\n\n")
	fmt.Fprintf(&b, "📥 <b>Ready for incoming transfers ≥ $%.2f USD</b>", minimumUSD)
	return b.String()
}

func writePrices(b *strings.Builder, oracle *price.Oracle) {
	for _, chain := range store.Chains {
		fmt.Fprintf(b, "%s %s: $%s\n", chainEmoji(chain), chain.AssetSymbol(),
			formatUSD(oracle.Price(chain)))
	}
}

// formatUSD renders a dollar amount with thousands separators, the
// way prices read in chat.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]

	var out strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	out.WriteString(frac)
	return out.String()
}

func enabledWord(on bool) string {
	if on {
		return "Enabled"
	}
	return "Disabled"
}
