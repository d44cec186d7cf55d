// Package server exposes the read-only HTTP reporting surface.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// topN is how many addresses per chain the /stats listing shows.
const topN = 5

// Server serves read-only snapshots of the monitor state. It never
// mutates the tracker, oracle, or address book.
type Server struct {
	book       *store.AddressBook
	oracle     *price.Oracle
	tracker    *metrics.Tracker
	minimumUSD float64
	ignoreDust bool
}

// New creates the reporting server.
func New(book *store.AddressBook, oracle *price.Oracle, tracker *metrics.Tracker,
	minimumUSD float64, ignoreDust bool) *Server {
	return &Server{
		book:       book,
		oracle:     oracle,
		tracker:    tracker,
		minimumUSD: minimumUSD,
		ignoreDust: ignoreDust,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)
	r.GET("/addresses", s.handleAddresses)
	r.GET("/stats", s.handleStats)
	r.GET("/ping", s.handlePing)
	return r
}

// Run serves the router on the port, blocking until failure.
func (s *Server) Run(port int) error {
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Crypto Transaction Monitor",
		"version": "1.0.0",
		"monitoring": gin.H{
			"btc_addresses": s.book.Count(store.ChainBTC),
			"eth_addresses": s.book.Count(store.ChainETH),
		},
		"filtering": gin.H{
			"minimum_usd_value": s.minimumUSD,
			"alert_type":        "incoming_only",
		},
		"endpoints": gin.H{
			"health":    "/health",
			"addresses": "/addresses",
			"stats":     "/stats",
			"ping":      "/ping",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.tracker.Snapshot()

	perChain := gin.H{}
	values := gin.H{}
	for _, chain := range store.Chains {
		perChain[string(chain)] = string(snap.ConnStates[chain])

		total := 0.0
		for _, stats := range snap.AddressStats[chain] {
			total += stats.TotalValueUSD
		}
		values["total_"+string(chain)+"_value_usd"] = total
	}

	lastPrice := ""
	if !snap.LastPriceUpdate.IsZero() {
		lastPrice = snap.LastPriceUpdate.Format("2006-01-02T15:04:05Z07:00")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"uptime_hours":     round2(snap.Uptime.Hours()),
		"total_alerts":     snap.TotalAlerts,
		"total_filtered":   snap.TotalFiltered,
		"errors_count":     snap.ErrorCount,
		"websocket_status": perChain,
		"btc_price":        s.oracle.Price(store.ChainBTC),
		"eth_price":        s.oracle.Price(store.ChainETH),
		"monitored_addresses": gin.H{
			"btc_count": s.book.Count(store.ChainBTC),
			"eth_count": s.book.Count(store.ChainETH),
		},
		"statistics": values,
		"filtering": gin.H{
			"minimum_usd_value": s.minimumUSD,
			"ignore_dust":       s.ignoreDust,
			"alert_type":        "incoming_only",
		},
		"last_price_update": lastPrice,
	})
}

// addressRow is one entry of the /addresses listing.
type addressRow struct {
	Address       string  `json:"address"`
	Label         string  `json:"label"`
	Alerts        int     `json:"alerts"`
	FilteredCount int     `json:"filtered_count"`
	TotalValueUSD float64 `json:"total_value_usd"`
}

func (s *Server) handleAddresses(c *gin.Context) {
	snap := s.tracker.Snapshot()

	body := gin.H{
		"filtering": gin.H{
			"minimum_usd_value": s.minimumUSD,
			"alert_type":        "incoming_only",
		},
	}
	totals := gin.H{}
	for _, chain := range store.Chains {
		rows := make([]addressRow, 0, s.book.Count(chain))
		for _, addr := range s.book.Addresses(chain) {
			stats := snap.AddressStats[chain][addr]
			rows = append(rows, addressRow{
				Address:       addr,
				Label:         s.book.Label(chain, addr),
				Alerts:        stats.Alerts,
				FilteredCount: stats.Filtered,
				TotalValueUSD: stats.TotalValueUSD,
			})
		}
		body[string(chain)+"_addresses"] = rows
		totals[string(chain)+"_count"] = len(rows)
	}
	body["totals"] = totals

	c.JSON(http.StatusOK, body)
}

func (s *Server) handleStats(c *gin.Context) {
	body := gin.H{
		"filtering": gin.H{
			"minimum_usd_value": s.minimumUSD,
			"ignore_dust":       s.ignoreDust,
		},
	}
	for _, chain := range store.Chains {
		top := s.tracker.TopByValue(chain, topN)
		rows := make([]addressRow, 0, len(top))
		for _, entry := range top {
			rows = append(rows, addressRow{
				Address:       entry.Address,
				Label:         s.book.Label(chain, entry.Address),
				Alerts:        entry.Stats.Alerts,
				FilteredCount: entry.Stats.Filtered,
				TotalValueUSD: round2(entry.Stats.TotalValueUSD),
			})
		}
		body["top_"+string(chain)+"_addresses"] = rows
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
