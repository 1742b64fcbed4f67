package storage

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"mirror_trading/internal/models"
)

// StateFile defines where we save our data on disk.
const StateFile = "mirror_state.json"

// CurrentVersion is the state schema version written by this build.
const CurrentVersion = "1.1"

// LoadState reads the mirror state from disk. A missing file is not an
// error; a fresh default state is created and persisted instead.
func LoadState() (models.MirrorState, error) {
	var s models.MirrorState

	if _, err := os.Stat(StateFile); os.IsNotExist(err) {
		log.Println("State file missing, generating template...")
		s = models.MirrorState{Version: CurrentVersion, ExecutedIDs: []string{}}
		SaveState(s)
		return s, nil
	}

	b, err := os.ReadFile(StateFile)
	if err != nil {
		return s, err
	}

	if err := json.Unmarshal(b, &s); err != nil {
		return s, err
	}

	if migrateState(&s) {
		log.Printf("INFO: State migrated to version %s. Saving...", s.Version)
		SaveState(s)
	}

	return s, nil
}

// migrateState handles schema evolution.
// Returns true if changes were made and the state needs to be saved.
func migrateState(s *models.MirrorState) bool {
	updated := false

	// Migration: 1.0 -> 1.1 (ExecutedIDs moved from nullable to always-set)
	if s.Version < "1.1" {
		log.Println("INFO: Migrating State Schema from 1.0 to 1.1")
		if s.ExecutedIDs == nil {
			s.ExecutedIDs = []string{}
		}
		s.Version = "1.1"
		updated = true
	}

	return updated
}

// SaveState writes the current state to disk using an atomic write pattern:
// write to a temp file, sync, then rename over the destination.
func SaveState(s models.MirrorState) {
	s.LastSync = time.Now().UTC().Format(time.RFC3339)

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Printf("ERROR: Failed to marshal state: %v", err)
		return
	}

	tmpFile := StateFile + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		log.Printf("ERROR: Failed to create temp state file: %v", err)
		return
	}

	if _, err := f.Write(b); err != nil {
		f.Close()
		log.Printf("ERROR: Failed to write to temp state file: %v", err)
		return
	}

	if err := f.Sync(); err != nil {
		f.Close()
		log.Printf("ERROR: Failed to sync temp state file: %v", err)
		return
	}

	// Close before renaming (essential on Windows). A close error means
	// the flush failed, so the old state file must stay in place.
	if err := f.Close(); err != nil {
		log.Printf("ERROR: Failed to close temp state file: %v", err)
		return
	}

	if err := os.Rename(tmpFile, StateFile); err != nil {
		log.Printf("ERROR: Failed to replace state file (atomic rename): %v", err)
	}
}
