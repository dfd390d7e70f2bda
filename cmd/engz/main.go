package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/buildinfo"
	"github.com/khanhkom/engz/internal/cli"
	"github.com/khanhkom/engz/internal/config"
	"github.com/khanhkom/engz/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Printf("config: %v", err)
		return 2
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Printf("logger: %v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			buildinfo.PrintBuildData(os.Stdout)
			return 0
		case "send":
			if err := cli.Send(ctx, cfg.DaemonAddr, args[1:], os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, api.Message(err))
				return 1
			}
			return 0
		}
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start", "error", err)
		return 1
	}
	defer app.Close()

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, api.Message(err))
		return 1
	}
	return 0
}
