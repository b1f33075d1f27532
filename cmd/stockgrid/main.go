package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stockgrid/stockgrid/cmd/stockgrid/cli"
	"github.com/stockgrid/stockgrid/internal/app"
	"github.com/stockgrid/stockgrid/internal/platform/db"
	"github.com/stockgrid/stockgrid/migrations"
)

const usage = `usage: stockgrid [command]

commands:
  serve                 run the HTTP server (default)
  migrate               apply pending database migrations
  seed [--demo]         migrate, create the location registry and optionally a demo product
  jobs trigger <task>   enqueue locations:generate or inventory:reconcile
  jobs stats            show default queue counters
`

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Fprint(stdout, usage)
		return exitOK
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return exitError
	}
	logger := app.NewLogger(cfg)

	switch command {
	case "serve":
		if err := serve(ctx, cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			return exitError
		}
	case "migrate":
		if err := migrate(ctx, cfg, stdout); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			return exitError
		}
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ContinueOnError)
		fs.SetOutput(stderr)
		demo := fs.Bool("demo", false, "also register a demo product")
		if err := fs.Parse(args); err != nil {
			return exitUsage
		}
		if err := seed(ctx, cfg, logger, cli.SeedOptions{DemoProduct: *demo}, stdout); err != nil {
			logger.Error("seed", slog.Any("error", err))
			return exitError
		}
	case "jobs":
		return runJobs(ctx, cfg, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return exitUsage
	}
	return exitOK
}

func migrate(ctx context.Context, cfg *app.Config, out io.Writer) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		return err
	}
	defer pool.Close()
	applied, err := migrations.Apply(ctx, pool)
	for _, name := range applied {
		fmt.Fprintln(out, "applied", name)
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "schema up to date")
	}
	return nil
}

func seed(ctx context.Context, cfg *app.Config, logger *slog.Logger, opts cli.SeedOptions, out io.Writer) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		return err
	}
	defer pool.Close()
	if _, err := migrations.Apply(ctx, pool); err != nil {
		return err
	}
	services := app.NewServices(cfg, pool, nil, nil, logger)
	return cli.Seed(ctx, services.Locations, services.Products, opts, out)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() { _ = jobsCLI.Close() }()

	switch {
	case args[0] == "trigger" && len(args) == 2:
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
		fmt.Fprintf(stdout, "enqueued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
	case args[0] == "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
		fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	return exitOK
}
