package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leiDanielAguila/recruiter-first/internal/model"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/config"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/errs"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/logger"
	"github.com/leiDanielAguila/recruiter-first/internal/resume"
	"github.com/leiDanielAguila/recruiter-first/internal/session"
)

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	resumePath := fs.String("resume", "", "path to the resume PDF")
	jobPath := fs.String("job", "", "path to a file holding the job description")
	jobText := fs.String("job-text", "", "job description text (overrides -job)")
	asJSON := fs.Bool("json", false, "print the raw match result as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(stderr, cfg.LogLevel)

	var file *resume.File
	if *resumePath != "" {
		if file, err = resume.ReadFile(*resumePath); err != nil {
			return err
		}
	}

	description := *jobText
	if description == "" && *jobPath != "" {
		data, err := os.ReadFile(*jobPath)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		description = string(data)
	}

	client := resume.NewClient(cfg.Endpoints().Analyze, cfg.AnalyzeTimeout, log)
	m := session.NewMachine(client, log)
	defer m.Close()

	if err := m.Submit(ctx, file, description); err != nil {
		return errors.New(errs.UserMessage(err))
	}
	fmt.Fprintln(stderr, "Analyzing resume...")

	state, err := m.Wait(ctx)
	if err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}

	switch s := state.(type) {
	case session.Results:
		if *asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s.Result)
		}
		printResult(stdout, s.Result)
		return nil
	case session.Upload:
		return errors.New(s.Err)
	default:
		return fmt.Errorf("unexpected state %s", session.Name(state))
	}
}

func printResult(w io.Writer, r *model.MatchResult) {
	band := r.MatchScore.Band()
	fmt.Fprintf(w, "Match score: %d/100 (%s)\n\n", r.MatchScore, band.Label)
	fmt.Fprintf(w, "Executive Summary\n  %s\n", r.Summary)
	printList(w, "Key Strengths", r.Strengths)
	printList(w, "Identified Gaps", r.Gaps)
	printList(w, "Recommendations", r.Recommendations)
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(it))
	}
}
