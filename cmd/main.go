package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/angeloszaimis/linkpulse/config"
	"github.com/angeloszaimis/linkpulse/pkg/logger"
)

const cmdServe = "serve"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout))
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("linkpulse", pflag.ContinueOnError)
	flags.String("config", "", "path to a YAML config file")
	flags.String("output", "", "directory for status.json and the diagnostic files")
	flags.String("mode", "", "probe mode: direct or two-tier")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("source", "", "manifest URL")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: linkpulse [flags] [serve]\n\n%s", flags.FlagUsages())
	}
	return flags
}

// run returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		slog.Error("invalid arguments", slog.Any("err", err))
		return 1
	}

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		return 1
	}

	log := logger.New(cfg.Logging.Level, false, cfg.App.Environment)

	switch command := flags.Arg(0); command {
	case "":
		return check(ctx, cfg, log, stdout)
	case cmdServe:
		return serve(ctx, cfg, log)
	default:
		log.Error("Unknown command", slog.String("command", command))
		return 1
	}
}
