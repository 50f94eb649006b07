package main

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"voxelfuel.ai/internal/persistence/indexdb"
	"voxelfuel.ai/internal/persistence/snapshot"
	"voxelfuel.ai/internal/sim/catalogs"
	"voxelfuel.ai/internal/sim/tuning"
	"voxelfuel.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.StatusLogger
	Close() error
	Stats() indexdb.Stats
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

func openRuntimeIndex(worldDir string, disableDB bool, logger zerolog.Logger) (runtimeIndex, error) {
	if disableDB {
		logger.Info().Msg("sqlite index disabled")
		return nil, nil
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	if err != nil {
		return nil, err
	}
	return idx, nil
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiStatusLogger struct {
	a world.StatusLogger
	b world.StatusLogger
}

func (m multiStatusLogger) WriteStatus(ev world.StatusEvent) error {
	if m.a != nil {
		_ = m.a.WriteStatus(ev)
	}
	if m.b != nil {
		_ = m.b.WriteStatus(ev)
	}
	return nil
}
