package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/MJE43/tokentrek-go/internal/api"
	"github.com/MJE43/tokentrek-go/internal/grid"
	"github.com/MJE43/tokentrek-go/internal/history"
	"github.com/MJE43/tokentrek-go/internal/world"
)

// config is loaded from the environment; the -addr, -seed and -db flags
// override their env counterparts when set.
type config struct {
	Addr             string  `env:"TOKENTREK_ADDR" envDefault:":8080"`
	Seed             string  `env:"TOKENTREK_SEED" envDefault:"tokentrek"`
	DBPath           string  `env:"TOKENTREK_DB" envDefault:"tokentrek.db"`
	TileSize         float64 `env:"TOKENTREK_TILE_SIZE" envDefault:"0.0001"`
	NeighborhoodSize int     `env:"TOKENTREK_NEIGHBORHOOD" envDefault:"8"`
	SpawnProbability float64 `env:"TOKENTREK_SPAWN_PROBABILITY" envDefault:"0.1"`
	VisibilityRadius float64 `env:"TOKENTREK_VISIBILITY_RADIUS" envDefault:"0.001"`
	OriginLat        float64 `env:"TOKENTREK_ORIGIN_LAT" envDefault:"0"`
	OriginLng        float64 `env:"TOKENTREK_ORIGIN_LNG" envDefault:"0"`
	StartLat         float64 `env:"TOKENTREK_START_LAT" envDefault:"36.9895"`
	StartLng         float64 `env:"TOKENTREK_START_LNG" envDefault:"-122.0628"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	addr := flag.String("addr", cfg.Addr, "http listen address")
	seed := flag.String("seed", cfg.Seed, "world seed")
	dbPath := flag.String("db", cfg.DBPath, "event log database path (empty disables recording)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldCfg := world.Config{
		Seed:             *seed,
		TileSize:         cfg.TileSize,
		Origin:           grid.Point{Lat: cfg.OriginLat, Lng: cfg.OriginLng},
		NeighborhoodSize: cfg.NeighborhoodSize,
		SpawnProbability: cfg.SpawnProbability,
		VisibilityRadius: cfg.VisibilityRadius,
		StartPosition:    grid.Point{Lat: cfg.StartLat, Lng: cfg.StartLng},
	}
	session, err := world.NewSession(worldCfg)
	if err != nil {
		logger.Fatalf("create session: %v", err)
	}

	var store *history.Store
	sessionID := uuid.Nil
	if *dbPath != "" {
		store, err = history.New(*dbPath)
		if err != nil {
			logger.Fatalf("open event log: %v", err)
		}
		defer store.Close()

		sessionID, err = store.CreateSession(context.Background(), *seed)
		if err != nil {
			logger.Fatalf("register session: %v", err)
		}
		session.SetRecorder(store.NewSessionRecorder(sessionID))
		logger.Printf("recording session %s to %s", sessionID, *dbPath)
	} else {
		logger.Printf("event recording disabled")
	}

	server := api.NewServer(session, store, sessionID)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (seed=%q, %d active caches)", *addr, *seed, len(session.ActiveCaches()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}
}
