// Command winpane embeds an external program's window into a host-owned
// container surface.
//
// The real host application owns containers (tabs, panes) and feeds
// their handles and geometry in; this binary is the thin host harness:
// it resolves a program from the registry file, opens one embedding
// session against a caller-supplied parent window handle, and keeps the
// session alive until the program exits or the harness is interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/winpane/winpane/internal/domain/programs"
	"github.com/winpane/winpane/internal/domain/session"
	"github.com/winpane/winpane/internal/infrastructure/config"
	"github.com/winpane/winpane/internal/infrastructure/logging"
	"github.com/winpane/winpane/internal/infrastructure/monitoring"
	"github.com/winpane/winpane/internal/launch"
	"github.com/winpane/winpane/internal/shared/id"
	"github.com/winpane/winpane/internal/uiloop"
	"github.com/winpane/winpane/internal/winapi"
)

// logHost is the harness's stand-in for a real container-owning host.
type logHost struct {
	log     *logging.Logger
	removed chan id.ContainerID
}

func (h *logHost) RemoveContainer(cid id.ContainerID) {
	h.log.Info("Container removed", zap.String("container", cid.String()))
	select {
	case h.removed <- cid:
	default:
	}
}

func (h *logHost) Notify(title, message string) {
	h.log.Warn("Notification", zap.String("title", title), zap.String("message", message))
}

func main() {
	title := flag.String("launch", "", "Title of the program entry to launch")
	parent := flag.Uint64("parent", 0, "Native handle of the container surface")
	width := flag.Int("width", 800, "Container client-area width")
	height := flag.Int("height", 600, "Container client-area height")
	flag.Parse()

	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *title == "" {
		logger.Error("No program selected; use -launch <title>")
		os.Exit(1)
	}

	list := programs.Load(cfg.Programs.Path, logger)
	entry, ok := programs.FindByTitle(list, *title)
	if !ok {
		logger.Error("Unknown program title",
			zap.String("title", *title),
			zap.Int("known", len(list)),
		)
		os.Exit(1)
	}

	loop := uiloop.New()
	go loop.Run()

	metrics := monitoring.NewMetrics()
	host := &logHost{log: logger, removed: make(chan id.ContainerID, 1)}
	registry := session.NewRegistry(
		loop,
		winapi.New(),
		launch.NewLauncher(logger),
		host,
		session.Config{
			PollInterval:  cfg.Embed.PollInterval,
			WindowTimeout: cfg.Embed.WindowTimeout,
			KillGrace:     cfg.Embed.KillGrace,
		},
		logger,
		metrics,
	)

	container := session.Container{
		ID:      id.NewContainerID(),
		Surface: winapi.Handle(uintptr(*parent)),
		Width:   *width,
		Height:  *height,
	}

	ctx := context.Background()
	sid, err := registry.Open(ctx, container, entry.LaunchRequest())
	if err != nil {
		logger.Error("Launch failed", zap.Error(err))
		loop.Close()
		os.Exit(1)
	}
	if sid == "" {
		logger.Info("Nothing to launch", zap.String("title", entry.Title))
		loop.Close()
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutting down, sweeping sessions")
		if err := registry.Shutdown(ctx); err != nil {
			logger.Warn("Shutdown sweep failed", zap.Error(err))
		}
	case cid := <-host.removed:
		// Program exited or failed; its session is already gone.
		logger.Info("Session ended", zap.String("container", cid.String()))
	}

	snap := metrics.GetSnapshot()
	logger.Info("Done",
		zap.Int64("launches", snap.Launches),
		zap.Int64("embeds", snap.Embeds),
		zap.Int64("failures", snap.Failures),
	)
	loop.Close()
}
