package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/semdrift/internal/rpc"
	"github.com/danielpatrickdp/semdrift/internal/state"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const callTimeout = 10 * time.Second

// driftClient is the subset of *rpc.Client the shell uses.
type driftClient interface {
	Update(ctx context.Context, embedding []float32, nowMs float64) (state.UpdateResult, error)
	Snapshot(ctx context.Context, nowMs float64) (state.Snapshot, error)
	Normalize(ctx context.Context, v []float32) ([]float32, error)
}

// #region main
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "controller",
		Usage: "Interactive shell for a driftd instance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "driftd gRPC address",
				Value:   "localhost:50051",
				EnvVars: []string{"SEMDRIFT_GRPC_ADDR"},
			},
		},
		Action: func(c *cli.Context) error {
			client, err := rpc.NewClient(c.String("addr"))
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Fprintf(c.App.Writer, "Connected to driftd at %s\n", c.String("addr"))
			fmt.Fprintln(c.App.Writer, "Enter an embedding as a JSON array, or: snapshot [now_ms], normalize <json array>, quit")
			return shell(c.Context, os.Stdin, c.App.Writer, client, wallClockMs)
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "controller: %v\n", err)
		os.Exit(1)
	}
}

func wallClockMs() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

// #endregion main

// #region shell
// shell reads commands from in until EOF or quit. Call failures are printed
// and the loop continues.
func shell(ctx context.Context, in io.Reader, out io.Writer, client driftClient, now func() float64) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	turn := 0

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		cmd, arg, _ := strings.Cut(line, " ")
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		switch cmd {
		case "snapshot":
			nowMs := now()
			if arg != "" {
				v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
				if err != nil {
					fmt.Fprintf(out, "invalid now_ms: %v\n", err)
					break
				}
				nowMs = v
			}
			snap, err := client.Snapshot(cctx, nowMs)
			if err != nil {
				fmt.Fprintf(out, "snapshot error: %v\n", err)
				break
			}
			fmt.Fprintf(out, "health=%.4f summary=%s dim=%d last_update=%.0f\n",
				snap.HealthScore, snap.SemanticSummary, len(snap.Vector), snap.Timestamp)
		case "normalize":
			v, err := parseVector(arg)
			if err != nil {
				fmt.Fprintf(out, "invalid vector: %v\n", err)
				break
			}
			unit, err := client.Normalize(cctx, v)
			if err != nil {
				fmt.Fprintf(out, "normalize error: %v\n", err)
				break
			}
			fmt.Fprintln(out, formatVector(unit))
		default:
			v, err := parseVector(line)
			if err != nil {
				fmt.Fprintf(out, "invalid input: %v\n", err)
				break
			}
			turn++
			res, err := client.Update(cctx, v, now())
			if err != nil {
				fmt.Fprintf(out, "[turn-%d] update error: %v\n", turn, err)
				break
			}
			fmt.Fprintf(out, "[turn-%d] drift=%t score=%.4f\n", turn, res.DriftDetected, res.DriftScore)
		}
		cancel()
	}
	return scanner.Err()
}

func parseVector(s string) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'f', 4, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// #endregion shell
