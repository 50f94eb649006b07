package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"voxelfuel.ai/internal/sim/world"
)

// StatusHistory returns the most recent status events of one loader, newest
// first. Events still queued are not visible.
func (s *SQLiteIndex) StatusHistory(ctx context.Context, pos [3]int, limit int) ([]world.StatusEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_json FROM status_events WHERE x=? AND y=? AND z=? ORDER BY tick DESC, id DESC LIMIT ?`,
		pos[0], pos[1], pos[2], limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.StatusEvent
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ev world.StatusEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// DeliveredBetween sums droplets delivered over ticks [from, to].
func (s *SQLiteIndex) DeliveredBetween(ctx context.Context, from, to uint64) (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT SUM(delivered) FROM ticks WHERE tick BETWEEN ? AND ?`, int64(from), int64(to)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n.Int64, nil
}

// LatestSnapshot returns the path and tick of the newest indexed snapshot.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (path string, tick uint64, err error) {
	var t int64
	err = s.db.QueryRowContext(ctx, `SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`).Scan(&path, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	return path, uint64(t), err
}
