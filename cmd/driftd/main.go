package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/semdrift/internal/config"
	"github.com/danielpatrickdp/semdrift/internal/httpapi"
	"github.com/danielpatrickdp/semdrift/internal/journal"
	"github.com/danielpatrickdp/semdrift/internal/logging"
	"github.com/danielpatrickdp/semdrift/internal/metrics"
	"github.com/danielpatrickdp/semdrift/internal/rpc"
	"github.com/danielpatrickdp/semdrift/internal/tracker"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"
)

const shutdownTimeout = 10 * time.Second

// #region main
func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "driftd: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML config file",
		EnvVars: []string{"SEMDRIFT_CONFIG"},
	}
	return &cli.App{
		Name:  "driftd",
		Usage: "Semantic drift tracking service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the gRPC and HTTP servers",
				Action: serveCommand,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Enable debug logging",
					},
				},
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration",
				Action: configCommand,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}
}

// #endregion main

// #region commands
func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}

	logger, err := logging.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, logger)
}

func configCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.App.Writer)
	defer enc.Close()
	return enc.Encode(cfg)
}

// #endregion commands

// #region serve
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []tracker.Option{
		tracker.WithMetrics(metrics.New(reg)),
		tracker.WithLogger(logger),
	}
	if cfg.Journal.Enabled {
		store, err := journal.NewStore(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()

		stream, err := store.RegisterStream(ctx, journal.Stream{
			Alpha:          cfg.Engine.Alpha,
			DriftThreshold: cfg.Engine.DriftThreshold,
			AgeDecayRate:   cfg.Engine.AgeDecayRate,
			DriftWeight:    cfg.Engine.DriftWeight,
		})
		if err != nil {
			return fmt.Errorf("register stream: %w", err)
		}
		opts = append(opts, tracker.WithStreamID(stream.StreamID), tracker.WithRecorder(store))
		logger.Info("journal enabled", zap.String("path", cfg.Journal.Path))
	}

	tr := tracker.New(tracker.Config{
		Alpha:          cfg.Engine.Alpha,
		DriftThreshold: cfg.Engine.DriftThreshold,
		Health:         cfg.Engine.HealthConfig(),
	}, opts...)
	logger.Info("tracking stream",
		zap.String("stream_id", tr.StreamID()),
		zap.Float32("alpha", cfg.Engine.Alpha),
		zap.Float32("drift_threshold", cfg.Engine.DriftThreshold),
	)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(rpc.UnaryLogger(logger)))
	rpc.Register(grpcServer, rpc.NewServer(tr, logger))

	httpServer := httpapi.NewServer(tr, reg, cfg.Server, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting grpc server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Stop(sctx)
	})
	return g.Wait()
}

// #endregion serve
