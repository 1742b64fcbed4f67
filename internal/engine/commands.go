package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// CommandDoc describes one Telegram command for /help output.
type CommandDoc struct {
	Command     string
	Description string
	Usage       string
}

var commandDocs = []CommandDoc{
	{"/ping", "Connectivity check", "/ping"},
	{"/status", "Mirroring status and target summary", "/status"},
	{"/stats", "Lifetime trade counters", "/stats"},
	{"/trades", "Recent target trades", "/trades [limit]"},
	{"/pause", "Stop issuing orders (keeps observing)", "/pause"},
	{"/resume", "Re-enable order execution", "/resume"},
	{"/help", "This list", "/help"},
}

// HandleCommand dispatches one Telegram command and returns the reply text.
func (e *Engine) HandleCommand(command string) string {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return ""
	}

	switch parts[0] {
	case "/ping":
		return fmt.Sprintf("🏓 Pong. Uptime: %s", time.Since(startTime).Round(time.Second))

	case "/status":
		return e.getStatus()

	case "/stats":
		return e.getStatsReport()

	case "/trades":
		limit := 10
		if len(parts) > 1 {
			fmt.Sscanf(parts[1], "%d", &limit)
		}
		return e.getRecentTrades(limit)

	case "/pause":
		e.SetEnabled(false)
		log.Println("Mirroring paused via Telegram")
		return "⏸️ Mirroring PAUSED. Snapshots are still observed; no orders will be placed."

	case "/resume":
		e.SetEnabled(true)
		log.Println("Mirroring resumed via Telegram")
		return "▶️ Mirroring RESUMED."

	case "/help":
		var sb strings.Builder
		sb.WriteString("*Commands*\n")
		for _, doc := range commandDocs {
			sb.WriteString(fmt.Sprintf("%s - %s\n  `%s`\n", doc.Command, doc.Description, doc.Usage))
		}
		return sb.String()
	}

	return fmt.Sprintf("Unknown command %s. Try /help.", parts[0])
}

func (e *Engine) getStatus() string {
	e.mu.RLock()
	mirrored := e.mirroredCount
	lastCycle := e.lastCycleAt
	e.mu.RUnlock()

	mode := "⏸️ PAUSED"
	if e.Enabled() {
		mode = "▶️ ACTIVE"
	}
	if e.cfg.DryRun {
		mode += " (DRY RUN)"
	}

	lastCycleStr := "never"
	if !lastCycle.IsZero() {
		lastCycleStr = fmt.Sprintf("%s ago", time.Since(lastCycle).Round(time.Second))
	}

	return fmt.Sprintf("🪞 *MIRROR STATUS*\nMode: %s\nTarget: `%s`\nMirrored positions: %d\nLast cycle: %s\nUptime: %s",
		mode, e.cfg.TargetAddress, mirrored, lastCycleStr, time.Since(startTime).Round(time.Second))
}

func (e *Engine) getStatsReport() string {
	s := e.Stats()

	lastTrade := "never"
	if s.LastTradeTime != nil {
		lastTrade = s.LastTradeTime.Format("2006-01-02 15:04:05 MST")
	}

	return fmt.Sprintf("📊 *LIFETIME STATS*\nExecuted: %d\nFailed: %d\nVolume: $%s\nLast trade: %s",
		s.TotalTradesExecuted, s.TotalTradesFailed, s.TotalVolume.StringFixed(2), lastTrade)
}

func (e *Engine) getRecentTrades(limit int) string {
	if e.data == nil {
		return "⚠️ Trade history unavailable: no data client configured."
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	set, err := e.data.FetchTrades(ctx, e.cfg.TargetAddress, limit)
	if err != nil {
		log.Printf("Error fetching trades: %v", err)
		return "⚠️ Error: Could not fetch target trades."
	}

	if len(set.Trades) == 0 {
		return "📭 No trades found for target."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧾 *LAST %d TARGET TRADES*\n", len(set.Trades)))
	for _, t := range set.Trades {
		label := t.Market.Question
		if label == "" {
			label = t.Market.ID
		}
		arrow := "🔴"
		if t.Side == "buy" {
			arrow = "🟢"
		}
		sb.WriteString(fmt.Sprintf("%s %s %s [%s] %s @ %s\n",
			arrow, strings.ToUpper(t.Side), label, t.Outcome, t.Quantity, t.Price))
	}
	return sb.String()
}
