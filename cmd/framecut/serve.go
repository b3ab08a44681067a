package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut/internal/api"
	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/config"
	"github.com/framecut/framecut/internal/db"
	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/gesture"
	"github.com/framecut/framecut/internal/logging"
	"github.com/framecut/framecut/internal/playback"
	"github.com/framecut/framecut/internal/probe"
	"github.com/framecut/framecut/internal/ui"
)

type serveOptions struct {
	headless bool
}

func (o *serveOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.headless, "headless", false, "Run without the system tray (also "+config.EnvHeadless+")")
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor and its local API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportDir(), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting framecut", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "╔═══════════════════════════════════════════════════════════╗")
	fmt.Fprintf(out, "║                    FRAMECUT v%-29s║\n", config.Version)
	fmt.Fprintln(out, "╠═══════════════════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Fprintf(out, "║  Auth Token: %-45s ║\n", authToken)
	fmt.Fprintf(out, "║  Exports:    %-45s ║\n", logging.SanitizePath(cfg.ExportDir()))
	fmt.Fprintln(out, "╚═══════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := probe.NewFFprobe(cfg.FFprobePath(), logging.WithComponent(logger, "probe"))
	doctor := probe.NewCachedDoctor(prober.Version, logging.WithComponent(logger, "doctor"))
	if caps := doctor.Refresh(ctx); caps.FFprobe {
		logger.Info("ffprobe detected", "path", caps.Path, "version", caps.Version)
	}

	catalogSvc := catalog.NewService(repo, prober, nil, logging.WithComponent(logger, "catalog"))
	if err := catalogSvc.LoadRegistry(ctx); err != nil {
		return fmt.Errorf("failed to load media library: %w", err)
	}

	runner := catalog.NewRunner(catalogSvc, repo, logging.WithComponent(logger, "runner"))
	go runner.Start(ctx)

	session := editor.New(catalogSvc.Registry(), editor.Options{
		UndoCapacity: cfg.UndoCapacity(),
		Gesture: gesture.Options{
			PixelsPerSecond: cfg.PixelsPerSecond(),
			SnapThreshold:   cfg.SnapThreshold(),
			TrackSwitchPx:   cfg.TrackSwitchPx(),
		},
	}, logging.WithComponent(logger, "editor"))

	transport := playback.NewTransport(
		session,
		catalogSvc.Registry(),
		playback.NewClockVideo(nil),
		playback.NewTimerScheduler(cfg.FrameRate()),
		logging.WithComponent(logger, "playback"),
	)

	hub := api.NewHub(session, transport, logging.WithComponent(logger, "ws"))
	unsubscribe := session.Subscribe(hub.OnChange)
	defer unsubscribe()
	go hub.Run(ctx, time.Duration(float64(time.Second)/cfg.FrameRate()))

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Catalog:    catalogSvc,
		Repository: repo,
		Runner:     runner,
		Session:    session,
		Transport:  transport,
		Media:      playback.NewMediaServer(logger),
		Exporter:   export.NewExporter(logging.WithComponent(logger, "export")),
		ExportDir:  cfg.ExportDir(),
		FrameRate:  cfg.FrameRate(),
		Hub:        hub,
		Doctor:     doctor,
		Logger:     logger,
		StartTime:  startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if opts.headless || cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Session:   session,
			Transport: transport,
			Runner:    runner,
			Logger:    logging.WithComponent(logger, "tray"),
			OnQuit:    quit,
		})
		unsubscribeTray := session.Subscribe(tray.OnChange)
		defer unsubscribeTray()
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	transport.Pause()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
