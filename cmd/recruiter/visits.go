package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/leiDanielAguila/recruiter-first/internal/analytics"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/config"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/logger"
)

func runVisits(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("visits", flag.ContinueOnError)
	fs.SetOutput(stderr)
	track := fs.Bool("track", false, "record a visit before reading the count")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(stderr, cfg.LogLevel)

	tracker := analytics.NewTracker(cfg.Endpoints(), openStore(cfg.StateFile, log), log)
	if *track {
		tracker.TrackVisit(ctx, "recruiter-cli", "")
	}
	fmt.Fprintln(stdout, tracker.VisitCount(ctx))
	return nil
}
