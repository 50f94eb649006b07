package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelfuel.ai/internal/sim/world"
)

// HourlyWriter appends JSON lines to zstd files rotated per UTC hour:
// <dir>/<stream>-YYYY-MM-DD-HH.jsonl.zst.
type HourlyWriter struct {
	dir    string
	stream string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewHourlyWriter(dir, stream string) *HourlyWriter {
	return &HourlyWriter{dir: dir, stream: stream, now: time.Now}
}

func (w *HourlyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *HourlyWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", w.stream, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return fmt.Errorf("%s: rotate: %w", w.stream, err)
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *HourlyWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *HourlyWriter) closeLocked() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if w.enc != nil {
		err = errors.Join(err, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *HourlyWriter) pathForHour(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.stream, hour))
}

// Files lists a stream's files in chronological order.
func Files(dir, stream string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, stream+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadLines calls fn with each JSON line of a compressed stream file.
func ReadLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	r := bufio.NewReaderSize(dec, 64*1024)
	for {
		line, err := r.ReadBytes('\n')
		line = bytes.TrimSuffix(line, []byte{'\n'})
		if len(line) > 0 {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// TickLogger writes one entry per simulated tick.
type TickLogger struct{ w *HourlyWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: NewHourlyWriter(filepath.Join(worldDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.w.Write(e) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// StatusLogger writes loader status and connection changes.
type StatusLogger struct{ w *HourlyWriter }

func NewStatusLogger(worldDir string) *StatusLogger {
	return &StatusLogger{w: NewHourlyWriter(filepath.Join(worldDir, "status"), "status")}
}

func (l *StatusLogger) WriteStatus(ev world.StatusEvent) error { return l.w.Write(ev) }
func (l *StatusLogger) Close() error                           { return l.w.Close() }

// ReadStatusEvents decodes every status event stored under worldDir.
func ReadStatusEvents(worldDir string) ([]world.StatusEvent, error) {
	dir := filepath.Join(worldDir, "status")
	paths, err := Files(dir, "status")
	if err != nil {
		return nil, err
	}
	var out []world.StatusEvent
	for _, p := range paths {
		err := ReadLines(p, func(line []byte) error {
			var ev world.StatusEvent
			if err := json.Unmarshal(line, &ev); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(p), err)
			}
			out = append(out, ev)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadTicks streams every tick log entry under worldDir in write order.
func ReadTicks(worldDir string, fn func(world.TickLogEntry) error) error {
	dir := filepath.Join(worldDir, "ticks")
	paths, err := Files(dir, "ticks")
	if err != nil {
		return err
	}
	for _, p := range paths {
		err := ReadLines(p, func(line []byte) error {
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(p), err)
			}
			return fn(e)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
