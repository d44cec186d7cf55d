package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/chainwatch/monitor/internal/store"
)

// feedEntry pairs a classification with its arrival time.
type feedEntry struct {
	c  store.Classification
	at time.Time
}

// AlertFeedView displays the live stream of alertable transactions.
type AlertFeedView struct {
	list     *tview.List
	book     *store.AddressBook
	entries  []feedEntry
	maxItems int
}

// NewAlertFeedView creates a new alert feed view.
func NewAlertFeedView(book *store.AddressBook) *AlertFeedView {
	list := tview.NewList().
		ShowSecondaryText(true)

	list.SetTitle(" 🔔 Alerts ").SetBorder(true)
	list.SetMainTextColor(tcell.ColorWhite)

	return &AlertFeedView{
		list:     list,
		book:     book,
		entries:  make([]feedEntry, 0, 50),
		maxItems: 50,
	}
}

// Widget returns the tview primitive.
func (v *AlertFeedView) Widget() tview.Primitive {
	return v.list
}

// AddAlert adds a new classification to the front of the feed.
func (v *AlertFeedView) AddAlert(c store.Classification) {
	v.entries = append([]feedEntry{{c: c, at: time.Now()}}, v.entries...)

	if len(v.entries) > v.maxItems {
		v.entries = v.entries[:v.maxItems]
	}

	v.rebuildList()
}

// Refresh redraws the list.
func (v *AlertFeedView) Refresh() {
	v.rebuildList()
}

// rebuildList rebuilds the entire list from entries.
func (v *AlertFeedView) rebuildList() {
	v.list.Clear()

	if len(v.entries) == 0 {
		v.list.AddItem("No alerts yet", "", 0, nil)
		return
	}

	for _, entry := range v.entries {
		mainText, secondaryText := v.formatEntry(entry)
		v.list.AddItem(mainText, secondaryText, 0, nil)
	}

	v.list.SetTitle(fmt.Sprintf(" 🔔 Alerts (%d) ", len(v.entries)))
}

// formatEntry formats a classification for display.
func (v *AlertFeedView) formatEntry(entry feedEntry) (string, string) {
	c := entry.c

	icon := "₿"
	if c.Chain == store.ChainETH {
		icon = "⟠"
	}

	timeStr := entry.at.Format("15:04:05")
	label := v.book.Label(c.Chain, c.MatchedAddress)

	amount := fmt.Sprintf("%.8f", c.AmountCoins)
	if c.Chain == store.ChainETH {
		amount = fmt.Sprintf("%.6f", c.AmountCoins)
	}

	mainText := fmt.Sprintf("%s %s %s $%.2f", timeStr, icon, label, c.ValueUSD)
	secondaryText := fmt.Sprintf("%s %s | tx %s",
		amount, c.Chain.AssetSymbol(), store.TruncateHash(c.TxHash))

	return mainText, secondaryText
}
