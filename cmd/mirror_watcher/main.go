package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mirror_trading/internal/config"
	"mirror_trading/internal/dataapi"
	"mirror_trading/internal/engine"
	"mirror_trading/internal/gateway/relayer"
	"mirror_trading/internal/logger"
	"mirror_trading/internal/status"
	"mirror_trading/internal/telegram"
)

const LogFile = "watcher.log"
const VersionFile = "version.latest"

// main is the entry point of the application.
func main() {
	// 1. Initialization
	cfg := config.Load()
	cfg.Version = readVersion()

	logger.Setup(LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Dependencies
	dataClient := dataapi.NewClient(cfg.DataAPIURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second)

	gw, err := relayer.New(cfg)
	if err != nil {
		// A broken gateway is fatal when orders are real. In dry-run we
		// log and keep going; nothing would have been submitted anyway.
		if !cfg.DryRun {
			log.Fatalf("CRITICAL: Trade gateway init failed: %v", err)
		}
		log.Printf("Warning: Trade gateway init failed (%v), continuing in dry-run", err)
		gw = relayer.NewDry(cfg)
	}

	eng := engine.New(cfg, gw, dataClient)

	// 3. Telegram command listener (background)
	go telegram.StartListener(eng.HandleCommand)

	// 4. Graceful shutdown on SIGINT/SIGTERM
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("⚠️ Mirror Watcher Shutting Down: System signal received.")
		cancel()
	}()

	mode := "LIVE"
	if cfg.DryRun {
		mode = "DRY RUN"
	}
	log.Printf("Mirror Watcher %s Initialized", cfg.Version)
	log.Printf("Target: %s | Mode: %s | Poll interval: %ds", cfg.TargetAddress, mode, cfg.PollIntervalSec)

	telegram.Notify(fmt.Sprintf("🚀 *SYSTEM START: Mirror Watcher %s online*\nTarget: `%s`\nMode: [%s]",
		cfg.Version, cfg.TargetAddress, mode))

	// 5. Main loop: the poller drives the engine until shutdown.
	poller := status.NewPoller(
		dataClient,
		cfg.TargetAddress,
		time.Duration(cfg.PollIntervalSec)*time.Second,
		eng.OnSnapshot,
		eng.OnError,
	)
	poller.Run(ctx)

	telegram.Notify("🛑 SYSTEM SHUTDOWN: Signal received. State saved.")
}

func readVersion() string {
	// read version from VersionFile file
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return string(version)
}
