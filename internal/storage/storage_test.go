package storage

import (
	"os"
	"testing"

	"mirror_trading/internal/models"

	"github.com/shopspring/decimal"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalWd) })
}

func TestLoadState_MissingFileCreatesTemplate(t *testing.T) {
	chdirTemp(t)

	s, err := LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if s.Version != CurrentVersion {
		t.Errorf("Expected version %s, got %s", CurrentVersion, s.Version)
	}
	if s.ExecutedIDs == nil {
		t.Error("ExecutedIDs must be initialized")
	}
	if _, err := os.Stat(StateFile); err != nil {
		t.Errorf("Template state file not persisted: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	chdirTemp(t)

	vol, _ := decimal.NewFromString("123.45")
	SaveState(models.MirrorState{
		Version:     CurrentVersion,
		ExecutedIDs: []string{"P1", "P2"},
		Stats: models.Stats{
			TotalTradesExecuted: 7,
			TotalTradesFailed:   2,
			TotalVolume:         vol,
		},
	})

	s, err := LoadState()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(s.ExecutedIDs) != 2 || s.ExecutedIDs[0] != "P1" {
		t.Errorf("ExecutedIDs round-trip failed: %v", s.ExecutedIDs)
	}
	if s.Stats.TotalTradesExecuted != 7 || s.Stats.TotalTradesFailed != 2 {
		t.Errorf("Stats round-trip failed: %+v", s.Stats)
	}
	if !s.Stats.TotalVolume.Equal(vol) {
		t.Errorf("Volume round-trip failed: %s", s.Stats.TotalVolume)
	}
	if s.LastSync == "" {
		t.Error("LastSync not stamped on save")
	}

	// The temp file must be gone after the atomic rename.
	if _, err := os.Stat(StateFile + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp state file left behind after save: %v", err)
	}
}

func TestMigrateState(t *testing.T) {
	chdirTemp(t)

	// Legacy 1.0 state with a null executed set.
	legacyJSON := `{
		"version": "1.0",
		"executed_ids": null,
		"stats": {"total_trades_executed": 3, "total_volume": "1.5"}
	}`

	if err := os.WriteFile(StateFile, []byte(legacyJSON), 0644); err != nil {
		t.Fatalf("Failed to write legacy state: %v", err)
	}

	s, err := LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if s.Version != "1.1" {
		t.Errorf("Expected version 1.1, got %s", s.Version)
	}
	if s.ExecutedIDs == nil {
		t.Error("Migration must backfill ExecutedIDs")
	}
	if s.Stats.TotalTradesExecuted != 3 {
		t.Errorf("Stats lost in migration: %+v", s.Stats)
	}

	// Verify persistence (Load again)
	s2, err := LoadState()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if s2.Version != "1.1" {
		t.Errorf("Persisted version mismatch: got %s", s2.Version)
	}
}
