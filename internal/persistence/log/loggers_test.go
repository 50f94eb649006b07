package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelfuel.ai/internal/sim/world"
)

func TestHourlyWriterRotates(t *testing.T) {
	dir := t.TempDir()
	w := NewHourlyWriter(dir, "ticks")
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(world.TickLogEntry{Tick: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(dir, "ticks")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v want 2", files)
	}
	if filepath.Base(files[0]) != "ticks-2026-03-01-10.jsonl.zst" {
		t.Fatalf("first file=%s", files[0])
	}

	var ticks []uint64
	for _, f := range files {
		err := ReadLines(f, func(line []byte) error {
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			ticks = append(ticks, e.Tick)
			return nil
		})
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	if len(ticks) != 2 || ticks[0] != 1 || ticks[1] != 2 {
		t.Fatalf("ticks=%v", ticks)
	}
}

func TestStatusLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewStatusLogger(dir)
	conn := [3]int{2, 1, 0}
	events := []world.StatusEvent{
		{Tick: 0, Pos: [3]int{0, 1, 0}, To: "NOT_ENOUGH_ENERGY", Class: "MISSING_ENERGY", Connection: &conn},
		{Tick: 4, Pos: [3]int{0, 1, 0}, From: "NOT_ENOUGH_ENERGY", To: "LOADING", Class: "WORKING", Connection: &conn, Rocket: "R1"},
	}
	for _, ev := range events {
		if err := l.WriteStatus(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadStatusEvents(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1].Rocket != "R1" || got[1].From != "NOT_ENOUGH_ENERGY" || got[0].Connection == nil {
		t.Fatalf("events=%+v", got)
	}
}

func TestTickLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	target := [3]int{2, 1, 0}
	entries := []world.TickLogEntry{
		{Tick: 0, Digest: "a", Commands: []world.RecordedCommand{{ID: "c1", Action: "SET_CONNECTION", Pos: [3]int{0, 1, 0}, Target: &target}}},
		{Tick: 1, Digest: "b", Loaders: []world.LoaderActivity{{Pos: [3]int{0, 1, 0}, Status: "LOADING", Delivered: 1620, Rocket: "R1"}}},
	}
	for _, e := range entries {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []world.TickLogEntry
	if err := ReadTicks(dir, func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1].Digest != "b" || got[1].Loaders[0].Delivered != 1620 {
		t.Fatalf("entries=%+v", got)
	}
	if tgt := got[0].Commands[0].Target; tgt == nil || *tgt != target {
		t.Fatalf("target lost: %+v", got[0].Commands[0])
	}
}

func TestReadLinesKeepsUnterminatedLastLine(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cut.jsonl.zst")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write([]byte("{\"tick\":1}\n\n{\"tick\":2}")); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := ReadLines(p, func(line []byte) error {
		got = append(got, string(line))
		return nil
	}); err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(got) != 2 || got[0] != `{"tick":1}` || got[1] != `{"tick":2}` {
		t.Fatalf("lines=%q", got)
	}
}
