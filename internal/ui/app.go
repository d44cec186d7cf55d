// Package ui provides terminal user interface components.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// App is the main TUI application.
type App struct {
	app    *tview.Application
	layout *tview.Flex

	// Views
	health    *HealthView
	alertFeed *AlertFeedView
	watchList *WatchListView

	// Data sources
	alertChan <-chan store.Classification
	oracle    *price.Oracle
	tracker   *metrics.Tracker
	book      *store.AddressBook

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates a new TUI application.
func NewApp(alertChan <-chan store.Classification, book *store.AddressBook,
	oracle *price.Oracle, tracker *metrics.Tracker) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		alertChan: alertChan,
		oracle:    oracle,
		tracker:   tracker,
		book:      book,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.health = NewHealthView()
	a.alertFeed = NewAlertFeedView(book)
	a.watchList = NewWatchListView(book)

	a.setupLayout()
	a.setupKeyboard()

	return a
}

// setupLayout creates the 3-panel layout.
func (a *App) setupLayout() {
	// Left column: health (top) | watch-list stats (bottom)
	leftCol := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.health.Widget(), 0, 1, false).
		AddItem(a.watchList.Widget(), 0, 2, false)

	// Right column: live alert feed
	a.layout = tview.NewFlex().
		AddItem(leftCol, 0, 1, false).
		AddItem(a.alertFeed.Widget(), 0, 2, false)

	a.app.SetRoot(a.layout, true)
}

// setupKeyboard configures keyboard shortcuts.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				a.Stop()
				return nil
			case 'r', 'R':
				a.refresh()
				return nil
			}
		}
		return event
	})
}

// Run starts the TUI application (blocking).
func (a *App) Run() error {
	go a.processAlerts()
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// processAlerts reads from the alert channel and updates the feed.
func (a *App) processAlerts() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case c, ok := <-a.alertChan:
			if !ok {
				return
			}

			a.app.QueueUpdateDraw(func() {
				a.alertFeed.AddAlert(c)
			})
		}
	}
}

// updateLoop periodically refreshes views with tracker data.
func (a *App) updateLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			snapshot := a.tracker.Snapshot()
			prices := a.oracle.All()

			a.app.QueueUpdateDraw(func() {
				a.health.Update(snapshot, prices)
				a.watchList.Update(snapshot)
			})
		}
	}
}

// refresh manually refreshes all views.
func (a *App) refresh() {
	snapshot := a.tracker.Snapshot()
	prices := a.oracle.All()

	a.app.QueueUpdateDraw(func() {
		a.health.Update(snapshot, prices)
		a.watchList.Update(snapshot)
		a.alertFeed.Refresh()
	})
}
