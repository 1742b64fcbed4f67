package engine

import (
	"sync"
	"time"

	"mirror_trading/internal/models"

	"github.com/shopspring/decimal"
)

// StatsAggregator keeps running trade counters. Writes only happen from
// inside a reconciliation cycle; the mutex exists because Snapshot is also
// read from the Telegram listener goroutine.
type StatsAggregator struct {
	mu    sync.RWMutex
	stats models.Stats
}

// NewStats builds an aggregator from a (possibly persisted) starting state.
func NewStats(initial models.Stats) *StatsAggregator {
	if initial.TotalVolume.IsZero() {
		initial.TotalVolume = decimal.Zero
	}
	return &StatsAggregator{stats: initial}
}

// RecordExecuted counts one successful trade. Fill quantity and price
// arrive as strings from the gateway; anything non-numeric contributes
// zero volume rather than failing the cycle.
func (s *StatsAggregator) RecordExecuted(filledQty, filledPrice string) {
	qty := parseDecimalOrZero(filledQty)
	price := parseDecimalOrZero(filledPrice)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalTradesExecuted++
	s.stats.TotalVolume = s.stats.TotalVolume.Add(qty.Mul(price))
	s.stats.LastTradeTime = &now
}

// RecordFailed counts one failed trade.
func (s *StatsAggregator) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalTradesFailed++
}

// Snapshot returns a defensive copy; callers cannot mutate engine state
// through it.
func (s *StatsAggregator) Snapshot() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := s.stats
	if s.stats.LastTradeTime != nil {
		t := *s.stats.LastTradeTime
		copied.LastTradeTime = &t
	}
	return copied
}

func parseDecimalOrZero(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
