package engine

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mirror_trading/internal/config"
	"mirror_trading/internal/dataapi"
	"mirror_trading/internal/models"
)

func TestHandleCommand_PauseResume(t *testing.T) {
	e := newTestEngine(t, &SpyGateway{})

	reply := e.HandleCommand("/pause")
	if !strings.Contains(reply, "PAUSED") {
		t.Errorf("Unexpected /pause reply: %s", reply)
	}
	if e.Enabled() {
		t.Error("/pause did not disable mirroring")
	}

	// While paused, snapshots are observed but no orders go out.
	gw := &SpyGateway{}
	e.gateway = gw
	e.OnSnapshot(snapshot(position("P1", "1", "0.5")))
	if len(gw.buys) != 0 {
		t.Error("Paused engine still traded")
	}

	reply = e.HandleCommand("/resume")
	if !strings.Contains(reply, "RESUMED") {
		t.Errorf("Unexpected /resume reply: %s", reply)
	}
	if !e.Enabled() {
		t.Error("/resume did not enable mirroring")
	}
}

func TestHandleCommand_StatusAndStats(t *testing.T) {
	e := newTestEngine(t, &SpyGateway{})
	e.OnSnapshot(snapshot(position("P1", "10", "0.5")))

	status := e.HandleCommand("/status")
	if !strings.Contains(status, "0xtarget") {
		t.Errorf("/status missing target: %s", status)
	}
	if !strings.Contains(status, "Mirrored positions: 1") {
		t.Errorf("/status missing mirrored count: %s", status)
	}

	stats := e.HandleCommand("/stats")
	if !strings.Contains(stats, "Executed: 1") {
		t.Errorf("/stats missing executed count: %s", stats)
	}
	if !strings.Contains(stats, "$5.00") {
		t.Errorf("/stats missing volume: %s", stats)
	}
}

func TestHandleCommand_Trades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"trades":[{"transactionHash":"0x1","side":"buy","size":"4","price":"0.6","title":"Will X happen?"}]}`)
	}))
	defer server.Close()

	e := newTestEngine(t, &SpyGateway{})
	e.data = dataapi.NewClient(server.URL, 5*time.Second)

	reply := e.HandleCommand("/trades 5")
	if !strings.Contains(reply, "Will X happen?") {
		t.Errorf("/trades missing market title: %s", reply)
	}
	if !strings.Contains(reply, "BUY") {
		t.Errorf("/trades missing side: %s", reply)
	}
}

func TestHandleCommand_TradesWithoutDataClient(t *testing.T) {
	cfg := &config.Config{TargetAddress: "0xtarget", Enabled: true, DryRun: true}
	e := &Engine{cfg: cfg, stats: NewStats(models.Stats{})}

	reply := e.HandleCommand("/trades")
	if !strings.Contains(reply, "unavailable") {
		t.Errorf("Expected unavailable notice, got: %s", reply)
	}
}

func TestHandleCommand_UnknownAndHelp(t *testing.T) {
	e := newTestEngine(t, &SpyGateway{})

	if reply := e.HandleCommand("/bogus"); !strings.Contains(reply, "/help") {
		t.Errorf("Unknown command should point at /help: %s", reply)
	}

	help := e.HandleCommand("/help")
	for _, cmd := range []string{"/ping", "/status", "/stats", "/pause", "/resume", "/trades"} {
		if !strings.Contains(help, cmd) {
			t.Errorf("/help missing %s", cmd)
		}
	}
}
