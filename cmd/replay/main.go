package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/replay"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// errMismatch marks a run whose expectations did not hold.
var errMismatch = errors.New("replay mismatch")

// #region main

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "replay",
		Usage:     "Replay embedding streams through a fresh engine and check expectations",
		UsageText: "replay --fixture f.json [--fixture g.json ...] [--workers N] [--json]\n   replay --db semdrift.db --stream ID [--json]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "fixture",
				Aliases: []string{"f"},
				Usage:   "Fixture JSON file (repeatable)",
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Journal database (journal mode)",
				EnvVars: []string{"SEMDRIFT_DB"},
			},
			&cli.StringFlag{
				Name:  "stream",
				Usage: "Journaled stream ID to replay",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Fixtures replayed concurrently",
				Value: 4,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output reports as JSON",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	fixtures := c.StringSlice("fixture")
	stream := c.String("stream")

	switch {
	case len(fixtures) > 0 && stream != "":
		return cli.Exit("use either --fixture or --db/--stream, not both", 2)
	case len(fixtures) > 0:
		return runFixtureMode(c.Context, c.App.Writer, fixtures, c.Int("workers"), c.Bool("json"))
	case stream != "" && c.String("db") != "":
		return runJournalMode(c.Context, c.App.Writer, c.String("db"), stream, c.Bool("json"))
	default:
		return cli.Exit("usage: "+c.App.UsageText, 2)
	}
}

// #endregion main

// #region fixture-mode

func runFixtureMode(ctx context.Context, w io.Writer, paths []string, workers int, jsonOut bool) error {
	fixtures := make([]*replay.Fixture, 0, len(paths))
	for _, p := range paths {
		f, err := replay.LoadFixture(p)
		if err != nil {
			return err
		}
		fixtures = append(fixtures, f)
	}

	reports, err := replay.RunAll(ctx, fixtures, workers)
	if err != nil {
		return err
	}
	return printReports(w, reports, jsonOut)
}

// #endregion fixture-mode

// #region journal-mode

func runJournalMode(ctx context.Context, w io.Writer, dbPath, streamID string, jsonOut bool) error {
	store, err := journal.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	stream, err := store.GetStream(ctx, streamID)
	if err != nil {
		return err
	}
	events, err := store.StreamEvents(ctx, streamID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(w, "stream %s has no recorded updates\n", streamID)
		return nil
	}

	report := replay.Replay(replay.FromJournal(stream, events))
	return printReports(w, []replay.Report{report}, jsonOut)
}

// #endregion journal-mode

// #region output

func printReports(w io.Writer, reports []replay.Report, jsonOut bool) error {
	failed := 0
	for _, r := range reports {
		if !r.Passed() {
			failed++
		}
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printReport(w, r)
		}
		fmt.Fprintf(w, "\n%d fixture(s), %d failed\n", len(reports), failed)
	}

	if failed > 0 {
		return errMismatch
	}
	return nil
}

func printReport(w io.Writer, r replay.Report) {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	name := r.Description
	if r.Path != "" {
		name = r.Path
	}
	fmt.Fprintf(w, "%s  %s  (updates=%d drifts=%d errors=%d)\n", status, name, r.Updates, r.Drifts, r.Errors)

	for _, s := range r.Steps {
		if s.Passed() {
			continue
		}
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  %-16s %s\n", s.StepID, m)
		}
	}
}

// #endregion output
