package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"voxelfuel.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := pflag.NewFlagSet("db", pflag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless --db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	posFlag := fs.String("pos", "", "loader position x,y,z (history)")
	from := fs.Uint64("from-tick", 0, "first tick (delivered)")
	to := fs.Uint64("to-tick", 0, "last tick (delivered; default: latest snapshot tick)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "latest"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing --world or --db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	enc := json.NewEncoder(os.Stdout)

	switch q {
	case "latest":
		p, tick, err := idx.LatestSnapshot(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		_ = enc.Encode(map[string]any{"path": p, "tick": tick})
	case "history":
		pos, err := parseVec3(*posFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad --pos:", err)
			os.Exit(2)
		}
		events, err := idx.StatusHistory(ctx, pos, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, ev := range events {
			_ = enc.Encode(ev)
		}
	case "delivered":
		end := *to
		if end == 0 {
			if _, tick, err := idx.LatestSnapshot(ctx); err == nil {
				end = tick
			}
		}
		n, err := idx.DeliveredBetween(ctx, *from, end)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		_ = enc.Encode(map[string]any{"from_tick": *from, "to_tick": end, "delivered": n})
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want latest, history or delivered)")
		os.Exit(2)
	}
}
