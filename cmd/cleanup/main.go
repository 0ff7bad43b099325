package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/internal/cleanup"
	"github.com/troikatech/call-router/pkg/env"
	"github.com/troikatech/call-router/pkg/logger"
)

func main() {
	var (
		list   bool
		dryRun bool
		hours  int
		dir    string
	)

	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.BoolVar(&list, "list", false, "list reply files with their age and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")
	flag.IntVar(&hours, "hours", cfg.ReplyRetentionHours, "delete reply files older than this many hours")
	flag.StringVar(&dir, "dir", cfg.AudioDir, "audio directory")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store, err := artifact.NewStore(dir, artifact.Options{}, logger.Named("artifact"))
	if err != nil {
		log.Fatalf("Failed to open audio directory: %v", err)
	}

	if list {
		files, err := store.List()
		if err != nil {
			log.Fatalf("Failed to list reply files: %v", err)
		}
		now := time.Now()
		for _, f := range files {
			fmt.Printf("%-48s %8d bytes  %s old\n", f.Name, f.Size, now.Sub(f.ModTime).Truncate(time.Minute))
		}
		fmt.Printf("%d reply files in %s\n", len(files), dir)
		return
	}

	if hours <= 0 {
		fmt.Fprintln(os.Stderr, "-hours must be positive")
		os.Exit(2)
	}

	sweeper := cleanup.NewSweeper(store, time.Duration(hours)*time.Hour, logger.Named("cleanup"))
	report, err := sweeper.Sweep(dryRun)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	for _, f := range report.Deleted {
		fmt.Printf("%s %s\n", verb, f.Name)
	}
	fmt.Printf("%s %d of %d reply files (%d bytes)\n", verb, len(report.Deleted), report.Scanned, report.BytesFreed)
	if len(report.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "Failed to delete %d files\n", len(report.Failed))
		os.Exit(1)
	}
}
