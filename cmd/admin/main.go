package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	persistlog "voxelfuel.ai/internal/persistence/log"
	"voxelfuel.ai/internal/persistence/snapshot"
	"voxelfuel.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "status":
			statusCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := pflag.NewFlagSet("admin", pflag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional; lists snapshots of that world)")
	_ = fs.Parse(args)

	if *worldID == "" {
		entries, err := os.ReadDir(filepath.Join(*dataDir, "worlds"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if e.IsDir() {
				fmt.Println(e.Name())
			}
		}
		return
	}

	snapDir := filepath.Join(*dataDir, "worlds", *worldID, "snapshots")
	latest := snapshot.Latest(snapDir)
	if latest == "" {
		fmt.Println("no snapshots")
		return
	}
	snap, err := snapshot.ReadSnapshot(latest)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("latest=%s tick=%d loaders=%d pads=%d rockets=%d\n",
		filepath.Base(latest), snap.Header.Tick, len(snap.Loaders), len(snap.Pads), len(snap.Rockets))
}

// statusCmd prints status transitions straight from the compressed status
// logs, which works without the sqlite index.
func statusCmd(args []string) {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	posFlag := fs.String("pos", "", "loader position x,y,z (optional)")
	since := fs.Uint64("since-tick", 0, "skip events before tick")
	_ = fs.Parse(args)

	var filter *[3]int
	if strings.TrimSpace(*posFlag) != "" {
		p, err := parseVec3(*posFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad --pos:", err)
			os.Exit(2)
		}
		filter = &p
	}

	events, err := persistlog.ReadStatusEvents(filepath.Join(*dataDir, "worlds", *worldID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read status log:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, ev := range filterEvents(events, filter, *since) {
		_ = enc.Encode(ev)
	}
}

func filterEvents(events []world.StatusEvent, pos *[3]int, since uint64) []world.StatusEvent {
	out := events[:0:0]
	for _, ev := range events {
		if ev.Tick < since {
			continue
		}
		if pos != nil && ev.Pos != *pos {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
