package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-tracker/internal/clients/external"
	"github.com/KirkDiggler/rpg-tracker/internal/combatlog"
	"github.com/KirkDiggler/rpg-tracker/internal/config"
	"github.com/KirkDiggler/rpg-tracker/internal/engine/tables"
	"github.com/KirkDiggler/rpg-tracker/internal/metrics"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
	redisclient "github.com/KirkDiggler/rpg-tracker/internal/redis"
	"github.com/KirkDiggler/rpg-tracker/internal/repositories/records"
)

// stack is everything an encounter service needs, plus the closers for it
type stack struct {
	service encounter.Service
	bus     events.EventBus
	closers []func() error
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
}

type stackOptions struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	// offline skips the spell lookup client
	offline bool
}

func buildStack(ctx context.Context, opts *stackOptions) (*stack, error) {
	st := &stack{}
	cfg := opts.cfg

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeRepo != nil {
		st.closers = append(st.closers, closeRepo)
	}

	slots := tables.NewSlots()
	if cfg.ProgressionsFile != "" {
		n, err := slots.LoadCustomFile(cfg.ProgressionsFile)
		if err != nil {
			st.Close()
			return nil, err
		}
		slog.Info("Loaded custom slot progressions", "file", cfg.ProgressionsFile, "count", n, "classes", slots.CustomClasses())
	}

	var spells external.Client
	if !opts.offline {
		spells, err = external.New(&external.Config{
			BaseURL:  cfg.DnD5eBaseURL,
			CacheTTL: cfg.DnD5eCacheTTL,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to create spell client: %w", err)
		}
	}

	log, err := combatlog.New(&combatlog.Config{
		IDs:   idgen.NewUUID("log"),
		Clock: clock.New(),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	st.bus = events.NewBus()
	bridge, err := combatlog.NewBusBridge(st.bus)
	if err != nil {
		st.Close()
		return nil, err
	}
	if _, err := log.Subscribe("", bridge.Handle); err != nil {
		st.Close()
		return nil, err
	}

	st.service, err = encounter.NewOrchestrator(&encounter.Config{
		Repository:  repo,
		Log:         log,
		IDGenerator: idgen.NewUUID("enc"),
		Clock:       clock.New(),
		Roller:      dice.DefaultRoller,
		Slots:       slots,
		Spells:      spells,
		Metrics:     opts.metrics,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create encounter orchestrator: %w", err)
	}
	return st, nil
}

// openStore returns the configured record store and an optional closer
func openStore(ctx context.Context, cfg *config.Config) (records.Repository, func() error, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client, err := redisclient.NewClient(cfg.RedisAddr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisclient.Ping(ctx, client, 5*time.Second); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		repo, err := records.NewRedis(&records.RedisConfig{Client: client})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		slog.Info("Using redis store", "addr", cfg.RedisAddr)
		return repo, client.Close, nil
	case config.StoreSQLite:
		repo, err := records.OpenSQLite(&records.SQLiteConfig{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using sqlite store", "path", cfg.SQLitePath)
		return repo, repo.Close, nil
	default:
		slog.Info("Using in-memory store")
		return records.NewMemory(), nil, nil
	}
}
