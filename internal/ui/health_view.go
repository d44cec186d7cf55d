package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/store"
)

// HealthView displays connection health and totals.
type HealthView struct {
	textView *tview.TextView
}

// NewHealthView creates a new health view.
func NewHealthView() *HealthView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)

	textView.SetTitle(" Health ").SetBorder(true)

	return &HealthView{
		textView: textView,
	}
}

// Widget returns the tview primitive.
func (v *HealthView) Widget() tview.Primitive {
	return v.textView
}

// Update refreshes the health display.
func (v *HealthView) Update(snapshot metrics.Snapshot, prices map[store.Chain]float64) {
	v.textView.Clear()

	uptime := formatDuration(snapshot.Uptime)

	priceStatus := "never"
	if !snapshot.LastPriceUpdate.IsZero() {
		priceStatus = formatTimeAgo(snapshot.LastPriceUpdate)
	}

	text := fmt.Sprintf(`[yellow]System[-]
Uptime: %s
BTC Feed: %s
ETH Feed: %s
Prices Updated: %s

[yellow]Prices[-]
BTC: $%.2f
ETH: $%.2f

[yellow]Activity[-]
Alerts: %d
Filtered: %d
Errors: %d
`,
		uptime,
		connMarkup(snapshot.ConnStates[store.ChainBTC]),
		connMarkup(snapshot.ConnStates[store.ChainETH]),
		priceStatus,
		prices[store.ChainBTC],
		prices[store.ChainETH],
		snapshot.TotalAlerts,
		snapshot.TotalFiltered,
		snapshot.ErrorCount,
	)

	fmt.Fprint(v.textView, text)
}

// connMarkup colors a connection state for tview markup.
func connMarkup(state metrics.ConnState) string {
	color := "red"
	switch state {
	case metrics.ConnConnected:
		color = "green"
	case metrics.ConnConnecting:
		color = "yellow"
	}
	return fmt.Sprintf("[%s]%s[-]", color, state)
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// formatTimeAgo formats a time as "X ago".
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	elapsed := time.Since(t)

	if elapsed < time.Minute {
		return fmt.Sprintf("%.0fs ago", elapsed.Seconds())
	}
	if elapsed < time.Hour {
		return fmt.Sprintf("%.0fm ago", elapsed.Minutes())
	}
	return fmt.Sprintf("%.0fh ago", elapsed.Hours())
}
