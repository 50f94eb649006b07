package world

import (
	"context"
	"errors"
)

var (
	ErrNoSnapshotSink = errors.New("world has no snapshot sink")
	ErrSnapshotBusy   = errors.New("snapshot sink is full")
)

type snapshotResult struct {
	tick uint64
	err  error
}

// RequestSnapshot asks the loop goroutine to export the last completed tick
// to the snapshot sink. It returns once the export was queued or refused.
func (w *World) RequestSnapshot(ctx context.Context) (uint64, error) {
	if w == nil || w.snapReq == nil {
		return 0, ErrNoSnapshotSink
	}
	done := make(chan snapshotResult, 1)
	select {
	case w.snapReq <- done:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-done:
		return r.tick, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// flushSnapshotRequests answers all requests collected during one tick with a
// single export.
func (w *World) flushSnapshotRequests(waiting []chan snapshotResult) {
	if len(waiting) == 0 {
		return
	}
	var r snapshotResult
	if t := w.tick.Load(); t > 0 {
		r.tick = t - 1
	}
	switch {
	case w.snapshotSink == nil:
		r.err = ErrNoSnapshotSink
	default:
		select {
		case w.snapshotSink <- w.ExportSnapshot(r.tick):
		default:
			r.err = ErrSnapshotBusy
		}
	}
	for _, ch := range waiting {
		ch <- r
	}
}
