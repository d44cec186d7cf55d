package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/store"
)

// WatchListView displays per-address statistics for the watch-list.
type WatchListView struct {
	table *tview.Table
	book  *store.AddressBook
}

// NewWatchListView creates a new watch-list view.
func NewWatchListView(book *store.AddressBook) *WatchListView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)

	table.SetTitle(" Watch List ").SetBorder(true)

	return &WatchListView{
		table: table,
		book:  book,
	}
}

// Widget returns the tview primitive.
func (v *WatchListView) Widget() tview.Primitive {
	return v.table
}

// Update refreshes the per-address rows from the snapshot.
func (v *WatchListView) Update(snapshot metrics.Snapshot) {
	v.table.Clear()

	headers := []string{"Chain", "Address", "Alerts", "Filtered", "Value USD"}
	for col, h := range headers {
		v.table.SetCell(0, col, tview.NewTableCell("[yellow]"+h+"[-]").SetSelectable(false))
	}

	row := 1
	for _, chain := range store.Chains {
		for _, addr := range v.book.Addresses(chain) {
			stats := snapshot.AddressStats[chain][addr]

			v.table.SetCell(row, 0, tview.NewTableCell(chain.AssetSymbol()))
			v.table.SetCell(row, 1, tview.NewTableCell(v.book.Label(chain, addr)))
			v.table.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", stats.Alerts)))
			v.table.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%d", stats.Filtered)))
			v.table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("$%.2f", stats.TotalValueUSD)))
			row++
		}
	}
}
