package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/replay"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// #region main

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fixture-export: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fixture-export",
		Usage: "Export a journaled stream as a replay fixture",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Path to the journal database",
				EnvVars:  []string{"SEMDRIFT_DB"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "stream",
				Usage:    "Stream ID to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "out",
				Usage:    "Output fixture JSON path",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Fixture description (defaults to the stream ID)",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.App.Writer, c.String("db"), c.String("stream"), c.String("out"), c.String("description"))
		},
	}
}

// #endregion main

// #region extract

func run(ctx context.Context, w io.Writer, dbPath, streamID, outPath, description string) error {
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
		return fmt.Errorf("stream %s has no recorded updates", streamID)
	}

	fixture := replay.FromJournal(stream, events)
	if description != "" {
		fixture.Description = description
	}
	return writeFixture(w, fixture, outPath)
}

// #endregion extract

// #region output

func writeFixture(w io.Writer, fixture *replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(w, "Wrote fixture to %s (%d bytes, %d steps)\n", outPath, len(data), len(fixture.Steps))
	return nil
}

// #endregion output
