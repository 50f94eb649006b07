package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"voxelfuel.ai/internal/config"
	"voxelfuel.ai/internal/logging"
	persistlog "voxelfuel.ai/internal/persistence/log"
	"voxelfuel.ai/internal/persistence/snapshot"
	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/catalogs"
	"voxelfuel.ai/internal/sim/recipes"
	"voxelfuel.ai/internal/sim/tuning"
	"voxelfuel.ai/internal/sim/world"
	"voxelfuel.ai/internal/transport/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat).With().Str("component", "server").Logger()

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Server, logger zerolog.Logger) error {
	cats, err := catalogs.Load(cfg.ConfigsDir)
	if err != nil {
		return err
	}

	worldDir := filepath.Join(cfg.DataDir, "worlds", cfg.WorldID)
	snapDir := filepath.Join(worldDir, "snapshots")

	snapPath := cfg.SnapshotPath
	if snapPath == "" && cfg.LoadLatestSnapshot {
		snapPath = snapshot.Latest(snapDir)
	}

	tPath := cfg.TuningPath
	if tPath == "" {
		tPath = filepath.Join(cfg.ConfigsDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tPath)
	if err != nil {
		if snapPath == "" || !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Warn().Str("path", tPath).Msg("tuning file missing; resuming with defaults")
		tune = tuning.Defaults()
	}

	reg := recipes.NewRegistry()
	if _, err := recipes.Bootstrap(reg); err != nil {
		return err
	}
	book, err := reg.Load(cats.Recipes, cats.Items)
	if err != nil {
		return err
	}
	logger.Info().Int("recipes", len(book.ByID)).Int("types", len(reg.Types())).Str("digest", book.Digest).Msg("recipes loaded")

	w, err := world.New(world.ConfigFromTuning(cfg.WorldID, tune, cats), cats)
	if err != nil {
		return err
	}
	w.SetLogger(logger)

	if snapPath != "" {
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return err
		}
		if err := w.ImportSnapshot(snap); err != nil {
			return err
		}
		logger.Info().Str("path", snapPath).Uint64("tick", snap.Header.Tick).Msg("snapshot loaded")
	} else if cfg.SeedLayout {
		if err := w.ApplyLayout(cats.Layout); err != nil {
			return err
		}
		logger.Info().Int("loaders", len(cats.Layout.Loaders)).Int("pads", len(cats.Layout.Pads)).Int("rockets", len(cats.Layout.Rockets)).Msg("layout applied")
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	statusLog := persistlog.NewStatusLogger(worldDir)
	defer statusLog.Close()

	idx, err := openRuntimeIndex(worldDir, cfg.DisableDB, logger)
	if err != nil {
		return err
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cfg.ConfigsDir, cats, tune); err != nil {
			logger.Warn().Err(err).Msg("catalog index upsert failed")
		}
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		w.SetStatusLogger(multiStatusLogger{a: statusLog, b: idx})
	} else {
		w.SetTickLogger(tickLog)
		w.SetStatusLogger(statusLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.PathFor(snapDir, snap.Header.Tick)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Error().Err(err).Uint64("tick", snap.Header.Tick).Msg("snapshot write failed")
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				logger.Info().Str("path", path).Uint64("tick", snap.Header.Tick).Msg("snapshot written")
			}
		}
	}()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("world stopped")
			cancel()
		}
	}()

	validator, err := protocol.NewValidator()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeWorldMetrics(rw, w.Metrics())
		if idx != nil {
			writeIndexMetrics(rw, idx.Stats())
		}
	})
	mux.HandleFunc("/v1/loaders", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"world_id": cfg.WorldID,
			"tick":     w.CurrentTick(),
			"metrics":  w.Metrics(),
		})
	})
	if enableAdminHTTP() {
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			tick, err := w.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
		})
	} else {
		logger.Info().Msg("admin endpoints disabled (VF_ENABLE_ADMIN_HTTP=false)")
	}
	mux.HandleFunc("/v1/panel", ws.NewServer(w, validator, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info().Str("addr", cfg.Addr).Str("world", cfg.WorldID).Msg("listening")
	err = srv.ListenAndServe()
	cancel()
	<-worldDone
	<-snapDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func enableAdminHTTP() bool {
	if v := strings.TrimSpace(os.Getenv("VF_ENABLE_ADMIN_HTTP")); v != "" {
		return v == "1" || strings.EqualFold(v, "true")
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
