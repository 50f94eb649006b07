package world

import (
	"strings"
	"testing"

	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/geom"
)

func TestReplayMatchesRecordedDigests(t *testing.T) {
	rec := &recordingLogger{}
	w := newLayoutWorld(t)
	w.SetTickLogger(rec)

	mustStep(t, w, insertBattery(loaderA), insertCanister(loaderA))
	mustStep(t, w, Command{Action: protocol.ActionClearConnection, Pos: loaderA})
	mustStep(t, w, Command{Action: protocol.ActionRecheckConnection, Pos: loaderA, Direction: geom.East})
	// Rejected commands are recorded and replay to the same rejection.
	w.Step(Command{Action: protocol.ActionTakeItem, Pos: geom.Pos{X: 9, Y: 9, Z: 9}})
	mustStep(t, w, Command{Action: protocol.ActionSetConnection, Pos: loaderA, Target: geom.Pos{X: 2, Y: 1, Z: 0}})
	for i := 0; i < 5; i++ {
		mustStep(t, w)
	}

	if got := rec.ticks[2].Commands[0].Direction; got != geom.East.String() {
		t.Fatalf("recorded direction=%q", got)
	}
	if rec.ticks[3].Commands[0].Err == "" {
		t.Fatalf("expected recorded error for unknown loader")
	}

	replayed := newLayoutWorld(t)
	for _, e := range rec.ticks {
		if err := replayed.Replay(e); err != nil {
			t.Fatalf("replay: %v", err)
		}
	}
	if replayed.CurrentTick() != w.CurrentTick() {
		t.Fatalf("tick=%d want %d", replayed.CurrentTick(), w.CurrentTick())
	}
}

func TestReplayDetectsDivergence(t *testing.T) {
	rec := &recordingLogger{}
	w := newLayoutWorld(t)
	w.SetTickLogger(rec)
	mustStep(t, w, insertBattery(loaderA), insertCanister(loaderA))

	// Same tick without the recorded inserts produces a different digest.
	entry := rec.ticks[0]
	entry.Commands = nil
	err := newLayoutWorld(t).Replay(entry)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("want digest mismatch, got %v", err)
	}

	err = newLayoutWorld(t).Replay(TickLogEntry{Tick: 7})
	if err == nil || !strings.Contains(err.Error(), "tick mismatch") {
		t.Fatalf("want tick mismatch, got %v", err)
	}
}
