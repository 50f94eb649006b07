package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	TickRate int `json:"tick_rate_hz"`

	Blocks  []BlockV1  `json:"blocks"`
	Loaders []LoaderV1 `json:"loaders"`
	Pads    []PadV1    `json:"pads"`
	Rockets []RocketV1 `json:"rockets"`
}

type BlockV1 struct {
	Pos     [3]int `json:"pos"`
	ID      string `json:"id"`
	Variant string `json:"variant,omitempty"`
}

type LoaderV1 struct {
	Pos    [3]int    `json:"pos"`
	Energy int64     `json:"energy"`
	Slots  []StackV1 `json:"slots"`
	Tank   FluidV1   `json:"tank"`
	// Tag is the loader's own record (connection) as JSON.
	Tag []byte `json:"tag"`
}

// StackV1 is an inventory slot; Kind "" is an empty slot.
type StackV1 struct {
	Kind          string `json:"kind,omitempty"`
	Item          string `json:"item,omitempty"`
	Count         int    `json:"count,omitempty"`
	Charge        int64  `json:"charge,omitempty"`
	EnergyCap     int64  `json:"energy_cap,omitempty"`
	Fluid         string `json:"fluid,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	FluidCapacity int64  `json:"fluid_capacity,omitempty"`
}

type FluidV1 struct {
	Fluid    string `json:"fluid,omitempty"`
	Amount   int64  `json:"amount"`
	Capacity int64  `json:"capacity"`
}

type PadV1 struct {
	Center [3]int `json:"center"`
	Rocket string `json:"rocket,omitempty"`
}

type RocketV1 struct {
	ID   string  `json:"id"`
	Pad  *[3]int `json:"pad,omitempty"`
	Tank FluidV1 `json:"tank"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is for humans and tools; gob carries it too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// Latest returns the newest "<tick>.snap.zst" in dir, or "" if none.
func Latest(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	type cand struct {
		tick uint64
		name string
	}
	var cands []cand
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		cands = append(cands, cand{tick: tick, name: name})
	}
	if len(cands) == 0 {
		return ""
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].tick < cands[j].tick })
	return filepath.Join(dir, cands[len(cands)-1].name)
}

func PathFor(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.snap.zst", tick))
}
