package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"mirror_trading/internal/config"
	"mirror_trading/internal/dataapi"
	"mirror_trading/internal/gateway"
	"mirror_trading/internal/models"
	"mirror_trading/internal/storage"
	"mirror_trading/internal/telegram"
)

var startTime = time.Now()

// Engine is the reconciliation core. Each delivered snapshot is diffed
// against the previous completed one; newly opened positions are mirrored
// with buys, newly closed ones with sells.
//
// A compare-and-set guard serializes cycles: a snapshot arriving while a
// cycle is still running is dropped entirely, never queued. The next cycle
// then diffs against the last *completed* snapshot, which may be several
// poll intervals stale. Deliberate trade-off; it keeps every trade
// sequential against one wallet's balance.
type Engine struct {
	cfg     *config.Config
	gateway gateway.TradeGateway
	data    *dataapi.Client // for the /trades command; may be nil in tests

	inFlight atomic.Bool
	enabled  atomic.Bool

	// Mutated only inside the guarded cycle body.
	previous  map[string]models.Position
	prevOrder []string
	tracker   *ExecutionTracker

	stats *StatsAggregator

	// Read by the Telegram listener; updated at cycle end.
	mu            sync.RWMutex
	mirroredCount int
	lastCycleAt   time.Time
}

// New builds an engine, restoring the executed-position set and lifetime
// stats from disk.
func New(cfg *config.Config, gw gateway.TradeGateway, data *dataapi.Client) *Engine {
	state, err := storage.LoadState()
	if err != nil {
		log.Printf("CRITICAL: Could not load initial state: %v", err)
	}

	initial := state.Stats
	initial.Enabled = cfg.Enabled
	initial.DryRun = cfg.DryRun

	e := &Engine{
		cfg:      cfg,
		gateway:  gw,
		data:     data,
		previous: make(map[string]models.Position),
		tracker:  NewExecutionTracker(state.ExecutedIDs...),
		stats:    NewStats(initial),
	}
	e.enabled.Store(cfg.Enabled)

	if e.tracker.Len() > 0 {
		log.Printf("Restored %d mirrored position(s) from state file", e.tracker.Len())
	}
	return e
}

// OnSnapshot is the status-source callback. One invocation per delivered
// snapshot; overlapping invocations are dropped.
func (e *Engine) OnSnapshot(update models.StatusUpdate) {
	if !e.inFlight.CompareAndSwap(false, true) {
		log.Printf("Reconcile cycle in progress, dropping snapshot (%d positions)", len(update.Positions))
		return
	}
	defer e.inFlight.Store(false)

	e.reconcile(update)
}

// OnError receives transport-level failures from the status source.
// They are logged and otherwise ignored; the next poll retries anyway.
func (e *Engine) OnError(err error) {
	log.Printf("Status source error: %v", err)
}

// reconcile runs one full cycle. Only ever called with the single-flight
// guard held.
func (e *Engine) reconcile(update models.StatusUpdate) {
	// Key the snapshot by position ID, last write wins on duplicates,
	// preserving first-seen order for deterministic processing.
	current := make(map[string]models.Position, len(update.Positions))
	order := make([]string, 0, len(update.Positions))
	for _, p := range update.Positions {
		if _, seen := current[p.ID]; !seen {
			order = append(order, p.ID)
		}
		current[p.ID] = p
	}

	var opened, closed []models.Position
	for _, id := range order {
		if _, ok := e.previous[id]; !ok {
			opened = append(opened, current[id])
		}
	}
	for _, id := range e.prevOrder {
		if _, ok := current[id]; !ok {
			closed = append(closed, e.previous[id])
		}
	}

	if len(opened) > 0 || len(closed) > 0 {
		log.Printf("Snapshot delta: %d opened, %d closed (target holds %d)",
			len(opened), len(closed), len(current))
	}

	if e.enabled.Load() {
		// All opens before any closes, strictly sequential, so two orders
		// never race the same wallet balance.
		for _, pos := range opened {
			e.mirrorOpen(pos)
		}
		for _, pos := range closed {
			e.mirrorClose(pos)
		}
	} else if len(opened) > 0 || len(closed) > 0 {
		log.Printf("Mirroring disabled, observed delta without trading")
	}

	// The previous snapshot is replaced whether or not individual trades
	// succeeded. A close whose sell failed is therefore not retried on the
	// next cycle; the executed set still remembers the position.
	e.previous = current
	e.prevOrder = order

	e.mu.Lock()
	e.mirroredCount = e.tracker.Len()
	e.lastCycleAt = time.Now()
	e.mu.Unlock()

	e.persist()
}

// mirrorOpen replays a newly opened target position as a buy.
func (e *Engine) mirrorOpen(pos models.Position) {
	if e.tracker.IsExecuted(pos.ID) {
		log.Printf("Skipping buy for %s: already mirrored", pos.ID)
		return
	}

	result, err := e.gateway.ExecuteBuy(context.Background(), pos)
	if err != nil || result == nil || !result.Success {
		e.stats.RecordFailed()
		reason := failReason(result, err)
		log.Printf("Buy failed for %s (%s): %s", pos.ID, pos.Market.Question, reason)
		telegram.Notify(fmt.Sprintf("❌ *MIRROR BUY FAILED*\n%s\nReason: %s", describePosition(pos), reason))
		return
	}

	e.tracker.MarkExecuted(pos.ID)
	e.stats.RecordExecuted(result.ExecutedQuantity, result.ExecutedPrice)
	log.Printf("Mirrored open of %s: %s shares @ %s", pos.ID, result.ExecutedQuantity, result.ExecutedPrice)
	telegram.Notify(fmt.Sprintf("🟢 *MIRROR BUY*\n%s\nFilled: %s @ %s",
		describePosition(pos), result.ExecutedQuantity, result.ExecutedPrice))
}

// mirrorClose replays a newly closed target position as a sell.
func (e *Engine) mirrorClose(pos models.Position) {
	if !e.tracker.IsExecuted(pos.ID) {
		// We never bought it (duplicate guard fired, buy failed, or the
		// position predates this run), so there is nothing to sell.
		log.Printf("Skipping sell for %s: not mirrored", pos.ID)
		return
	}

	result, err := e.gateway.ExecuteSell(context.Background(), pos)
	if err != nil || result == nil || !result.Success {
		// The position stays in the executed set; see reconcile for why
		// the close itself is still consumed.
		e.stats.RecordFailed()
		reason := failReason(result, err)
		log.Printf("Sell failed for %s (%s): %s", pos.ID, pos.Market.Question, reason)
		telegram.Notify(fmt.Sprintf("❌ *MIRROR SELL FAILED*\n%s\nReason: %s", describePosition(pos), reason))
		return
	}

	e.tracker.ClearExecuted(pos.ID)
	e.stats.RecordExecuted(result.ExecutedQuantity, result.ExecutedPrice)
	log.Printf("Mirrored close of %s: %s shares @ %s", pos.ID, result.ExecutedQuantity, result.ExecutedPrice)
	telegram.Notify(fmt.Sprintf("🔴 *MIRROR SELL*\n%s\nFilled: %s @ %s",
		describePosition(pos), result.ExecutedQuantity, result.ExecutedPrice))
}

// persist writes the executed set and stats to disk at the end of a cycle.
func (e *Engine) persist() {
	storage.SaveState(models.MirrorState{
		Version:     storage.CurrentVersion,
		ExecutedIDs: e.tracker.IDs(),
		Stats:       e.Stats(),
	})
}

// Stats returns a read-only copy of the running counters.
func (e *Engine) Stats() models.Stats {
	s := e.stats.Snapshot()
	s.Enabled = e.enabled.Load()
	return s
}

// Enabled reports whether mirroring is currently active.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// SetEnabled toggles mirroring at runtime (Telegram /pause and /resume).
func (e *Engine) SetEnabled(v bool) {
	e.enabled.Store(v)
}

func failReason(result *models.TradeResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result != nil && result.FailReason != "" {
		return result.FailReason
	}
	return "gateway reported failure"
}

func describePosition(pos models.Position) string {
	label := pos.Market.Question
	if label == "" {
		label = pos.ID
	}
	return fmt.Sprintf("*%s* [%s]\nSize: %s @ %s", label, pos.Outcome, pos.Quantity, pos.Price)
}
