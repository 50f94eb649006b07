package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"voxelfuel.ai/internal/persistence/snapshot"
	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
	"voxelfuel.ai/internal/sim/item"
	"voxelfuel.ai/internal/sim/launchpad"
	"voxelfuel.ai/internal/sim/machine/fuelloader"
)

const (
	stackBattery  = "BATTERY"
	stackCanister = "CANISTER"
	stackPlain    = "PLAIN"
)

// ExportSnapshot captures the world after nowTick has been simulated. It must
// be called from the world loop goroutine or while the world is stopped.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: snapshot.Version, WorldID: w.cfg.ID, Tick: nowTick},
		TickRate: w.cfg.TickRateHz,
	}

	blockPos := make([]geom.Pos, 0, len(w.blocks))
	for p := range w.blocks {
		blockPos = append(blockPos, p)
	}
	sort.Slice(blockPos, func(i, j int) bool { return geom.Less(blockPos[i], blockPos[j]) })
	for _, p := range blockPos {
		b := w.blocks[p]
		s.Blocks = append(s.Blocks, snapshot.BlockV1{Pos: p.ToArray(), ID: b.ID, Variant: b.Variant})
	}

	for _, p := range w.loaderPositions() {
		l := w.loaders[p]
		tag := fuelloader.Tag{}
		l.WriteTag(tag)
		raw, err := json.Marshal(tag)
		if err != nil {
			w.log.Error().Err(err).Stringer("pos", p).Msg("marshal loader tag")
		}
		lv := snapshot.LoaderV1{
			Pos:    p.ToArray(),
			Energy: l.Energy.Stored,
			Tank:   encodeTank(l.Tank),
			Tag:    raw,
		}
		for i := 0; i < l.Inventory.Len(); i++ {
			lv.Slots = append(lv.Slots, encodeStack(l.Inventory.Get(i)))
		}
		s.Loaders = append(s.Loaders, lv)
	}

	padPos := make([]geom.Pos, 0, len(w.pads))
	for p := range w.pads {
		padPos = append(padPos, p)
	}
	sort.Slice(padPos, func(i, j int) bool { return geom.Less(padPos[i], padPos[j]) })
	for _, p := range padPos {
		id, _ := w.pads[p].DockedRocket()
		s.Pads = append(s.Pads, snapshot.PadV1{Center: p.ToArray(), Rocket: id})
	}

	ids := make([]string, 0, len(w.rockets))
	for id := range w.rockets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := w.rockets[id]
		rv := snapshot.RocketV1{ID: id, Tank: encodeTank(r.Tank)}
		if r.Pad != nil {
			a := r.Pad.ToArray()
			rv.Pad = &a
		}
		s.Rockets = append(s.Rockets, rv)
	}
	return s
}

// ImportSnapshot replaces the world state and sets the tick to the one after
// the snapshot. Only call it while Run is not active.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if s.Header.WorldID != "" && s.Header.WorldID != w.cfg.ID {
		return fmt.Errorf("snapshot world mismatch: cfg=%s snap=%s", w.cfg.ID, s.Header.WorldID)
	}

	blocks := make(map[geom.Pos]block.State, len(s.Blocks))
	for _, b := range s.Blocks {
		blocks[geom.FromArray(b.Pos)] = block.State{ID: b.ID, Variant: b.Variant}
	}

	loaders := make(map[geom.Pos]*fuelloader.Loader, len(s.Loaders))
	for _, lv := range s.Loaders {
		p := geom.FromArray(lv.Pos)
		l := fuelloader.New(p, w.cfg.Loader)
		l.Energy.Stored = min(lv.Energy, l.Energy.Capacity)
		l.Tank.Volume = fluid.Volume{Fluid: lv.Tank.Fluid, Amount: min(fluid.Amount(lv.Tank.Amount), l.Tank.Capacity)}
		for i, sv := range lv.Slots {
			st, err := decodeStack(sv)
			if err != nil {
				return fmt.Errorf("loader %s slot %d: %w", p, i, err)
			}
			if st == nil {
				continue
			}
			if err := l.Inventory.Set(i, st); err != nil {
				return fmt.Errorf("loader %s: %w", p, err)
			}
		}
		tag := fuelloader.Tag{}
		if len(lv.Tag) > 0 {
			dec := json.NewDecoder(bytes.NewReader(lv.Tag))
			dec.UseNumber()
			if err := dec.Decode(&tag); err != nil {
				w.log.Warn().Err(err).Stringer("pos", p).Msg("loader tag unreadable, loading unconnected")
				tag = fuelloader.Tag{}
			}
		}
		l.ReadTag(tag)
		loaders[p] = l
	}

	rockets := make(map[string]*launchpad.Rocket, len(s.Rockets))
	for _, rv := range s.Rockets {
		capacity := fluid.Amount(rv.Tank.Capacity)
		if capacity <= 0 {
			capacity = w.cfg.RocketTankCapacity
		}
		r := launchpad.NewRocket(rv.ID, capacity)
		r.Tank.Volume = fluid.Volume{Fluid: rv.Tank.Fluid, Amount: min(fluid.Amount(rv.Tank.Amount), capacity)}
		if rv.Pad != nil {
			p := geom.FromArray(*rv.Pad)
			r.Pad = &p
		}
		rockets[rv.ID] = r
	}

	pads := make(map[geom.Pos]*launchpad.Controller, len(s.Pads))
	for _, pv := range s.Pads {
		p := geom.FromArray(pv.Center)
		if launchpad.PartOf(blocks[p]) != launchpad.PartCenter {
			return fmt.Errorf("pad %s: no formed pad centre at controller position", p)
		}
		c := launchpad.NewController(p)
		if pv.Rocket != "" {
			if _, ok := rockets[pv.Rocket]; !ok {
				return fmt.Errorf("pad %s: unknown rocket %s", p, pv.Rocket)
			}
			if err := c.Dock(pv.Rocket); err != nil {
				return fmt.Errorf("pad %s: %w", p, err)
			}
		}
		pads[p] = c
	}

	w.blocks = blocks
	w.loaders = loaders
	w.pads = pads
	w.rockets = rockets
	w.lastStatus = map[geom.Pos]fuelloader.Status{}
	if s.TickRate > 0 {
		w.cfg.TickRateHz = s.TickRate
	}
	w.tick.Store(s.Header.Tick + 1)
	return nil
}

func encodeTank(t *fluid.Tank) snapshot.FluidV1 {
	return snapshot.FluidV1{Fluid: t.Fluid(), Amount: int64(t.Amount()), Capacity: int64(t.Capacity)}
}

func encodeStack(s item.Stack) snapshot.StackV1 {
	switch v := s.(type) {
	case nil:
		return snapshot.StackV1{}
	case *item.Battery:
		return snapshot.StackV1{Kind: stackBattery, Item: v.ID, Count: 1, Charge: v.Charge, EnergyCap: v.Capacity}
	case *item.Canister:
		return snapshot.StackV1{
			Kind:          stackCanister,
			Item:          v.ID,
			Count:         1,
			Fluid:         v.Tank.Fluid(),
			Amount:        int64(v.Tank.Amount()),
			FluidCapacity: int64(v.Tank.Capacity),
		}
	default:
		return snapshot.StackV1{Kind: stackPlain, Item: s.ItemID(), Count: s.Count()}
	}
}

func decodeStack(sv snapshot.StackV1) (item.Stack, error) {
	switch sv.Kind {
	case "":
		return nil, nil
	case stackBattery:
		return &item.Battery{ID: sv.Item, Charge: sv.Charge, Capacity: sv.EnergyCap}, nil
	case stackCanister:
		c := &item.Canister{ID: sv.Item, Tank: fluid.Tank{Capacity: fluid.Amount(sv.FluidCapacity)}}
		c.Tank.Volume = fluid.Volume{Fluid: sv.Fluid, Amount: fluid.Amount(sv.Amount)}
		return c, nil
	case stackPlain:
		if sv.Count <= 0 {
			return nil, fmt.Errorf("stack %s: count %d", sv.Item, sv.Count)
		}
		return &item.Plain{ID: sv.Item, N: sv.Count}, nil
	default:
		return nil, fmt.Errorf("unknown stack kind %q", sv.Kind)
	}
}
