package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brokenhouse/dronecore/config"
	"github.com/brokenhouse/dronecore/controller"
	"github.com/brokenhouse/dronecore/frontend"
	"github.com/brokenhouse/dronecore/router"
)

func runCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the overlay client and its front-end control listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "droneclient.yaml", "path to the YAML configuration file")
	return cmd
}

func runClient(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting droneclient", "self", cfg.Self, "frontend_address", cfg.Frontend.Address)

	controllerOut := make(chan controller.Event, 64)
	frontendOut := make(chan frontend.Command, 64)

	r := router.New(cfg.Self, *cfg, logger, controllerOut, frontendOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go drainControllerEvents(ctx, logger, controllerOut)

	ln, err := net.Listen("tcp", cfg.Frontend.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Frontend.Address, err)
	}
	defer ln.Close()

	go acceptFrontend(ctx, logger, ln, r, frontendOut)

	r.Run(ctx)
	return nil
}

// drainControllerEvents logs every supervisory event; a real deployment
// would hand these to the simulator harness instead.
func drainControllerEvents(ctx context.Context, logger *slog.Logger, events <-chan controller.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			logger.Debug("controller event", "kind", ev.Kind, "packet", ev.Packet)
		}
	}
}

// acceptFrontend accepts a single front-end control connection and pumps
// framed events in and framed commands out until the connection closes
// or the router shuts down.
func acceptFrontend(ctx context.Context, logger *slog.Logger, ln net.Listener, r *router.Router, frontendOut <-chan frontend.Command) {
	conn, err := ln.Accept()
	if err != nil {
		logger.Error("frontend accept failed", "error", err)
		return
	}
	defer conn.Close()
	logger.Info("frontend connected", "remote", conn.RemoteAddr())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-frontendOut:
				if err := frontend.WriteCommand(conn, cmd); err != nil {
					logger.Warn("frontend write failed", "error", err)
					return
				}
			}
		}
	}()

	for {
		ev, err := frontend.ReadEvent(conn)
		if err != nil {
			logger.Info("frontend stream ended", "error", err)
			return
		}
		select {
		case r.Events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
