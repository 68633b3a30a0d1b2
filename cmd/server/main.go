package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mystopwatch/backend/internal/api"
	"mystopwatch/backend/internal/stopwatch"
)

func main() {
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			logrus.SetLevel(parsed)
		} else {
			logrus.WithError(err).Warn("ignoring LOG_LEVEL")
		}
	}

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	layout, err := stopwatch.ParseLayout(os.Getenv("STOPWATCH_FORMAT_LAYOUT"))
	if err != nil {
		logrus.Fatalf("format layout: %v", err)
	}

	tick := 100 * time.Millisecond
	if v := strings.TrimSpace(os.Getenv("STOPWATCH_TICK")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			tick = d
		}
	}

	var origins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	cfg := api.Config{
		DBPath:         filepath.Join(dataDir, "stopwatch.db"),
		SilentDB:       strings.EqualFold(strings.TrimSpace(os.Getenv("STOPWATCH_SILENT_DB")), "true"),
		Layout:         layout,
		Tick:           tick,
		AllowedOrigins: origins,
	}

	if override := strings.TrimSpace(os.Getenv("STOPWATCH_DB_PATH")); override != "" {
		cfg.DBPath = override
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer func() {
		if cerr := server.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close database")
		}
	}()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}
	httpServer := &http.Server{Addr: ":" + port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("starting stopwatch backend on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.Ticker().Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("server exited")
	}
	logrus.Info("stopwatch backend stopped")
}
