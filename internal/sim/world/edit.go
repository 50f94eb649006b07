package world

import (
	"fmt"

	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/catalogs"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
	"voxelfuel.ai/internal/sim/launchpad"
	"voxelfuel.ai/internal/sim/machine/fuelloader"
)

const (
	blockEntityFuelLoader = "FUEL_LOADER"
	rocketFuel            = "FUEL"
)

// PlaceBlock puts a block from the catalog at p and creates its block entity.
// Placing the ninth pad of a 3x3 forms the structure and its controller.
func (w *World) PlaceBlock(p geom.Pos, id string) error {
	def, ok := w.cats.Blocks.Defs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	if !w.BlockAt(p).IsAir() {
		return fmt.Errorf("%w: %s", ErrOccupied, p)
	}
	w.SetBlock(p, block.Of(id))

	switch {
	case def.BlockEntity == blockEntityFuelLoader:
		w.loaders[p] = fuelloader.New(p, w.cfg.Loader)
	case id == launchpad.BlockID:
		if center, ok := launchpad.Assemble(w, p); ok {
			w.pads[center] = launchpad.NewController(center)
			w.log.Debug().Stringer("center", center).Msg("launch pad formed")
		}
	}
	return nil
}

// BreakBlock removes the block at p. Breaking any cell of a formed pad
// releases its rocket and reverts the other cells to unformed pads.
func (w *World) BreakBlock(p geom.Pos) error {
	s := w.BlockAt(p)
	if s.IsAir() {
		return fmt.Errorf("%w: nothing at %s", ErrUnknownBlock, p)
	}
	if _, ok := w.loaders[p]; ok {
		delete(w.loaders, p)
		delete(w.lastStatus, p)
	}
	center, formed := launchpad.CenterOf(p, s)
	w.SetBlock(p, block.Of(block.Air))
	if formed {
		if c, ok := w.pads[center]; ok {
			if id := c.Undock(); id != "" {
				if r, ok := w.rockets[id]; ok {
					r.Pad = nil
				}
			}
			delete(w.pads, center)
		}
		launchpad.Disassemble(w, center)
	}
	return nil
}

func (w *World) PlaceLoader(p geom.Pos) (*fuelloader.Loader, error) {
	if err := w.PlaceBlock(p, blockEntityFuelLoader); err != nil {
		return nil, err
	}
	return w.loaders[p], nil
}

// PlacePad lays down the nine cells of a pad centred at center.
func (w *World) PlacePad(center geom.Pos) error {
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			if err := w.PlaceBlock(geom.Pos{X: center.X + x, Y: center.Y, Z: center.Z + z}, launchpad.BlockID); err != nil {
				return err
			}
		}
	}
	if _, ok := w.pads[center]; !ok {
		return fmt.Errorf("%w: %s", ErrNoPad, center)
	}
	return nil
}

// SpawnRocket creates an undocked rocket with fuel droplets of FUEL already
// in its tank.
func (w *World) SpawnRocket(id string, fuel fluid.Amount) (*launchpad.Rocket, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNoRocket)
	}
	if _, ok := w.rockets[id]; ok {
		return nil, fmt.Errorf("%w: rocket %s exists", ErrOccupied, id)
	}
	r := launchpad.NewRocket(id, w.cfg.RocketTankCapacity)
	if fuel > 0 {
		r.Tank.Insert(fluid.Volume{Fluid: rocketFuel, Amount: fuel}, false)
	}
	w.rockets[id] = r
	return r, nil
}

func (w *World) DockRocket(id string, center geom.Pos) error {
	r, ok := w.rockets[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRocket, id)
	}
	pad, ok := w.pads[center]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPad, center)
	}
	if r.Pad != nil && *r.Pad != center {
		w.UndockRocket(id)
	}
	if err := pad.Dock(id); err != nil {
		return err
	}
	c := center
	r.Pad = &c
	return nil
}

func (w *World) UndockRocket(id string) {
	r, ok := w.rockets[id]
	if !ok || r.Pad == nil {
		return
	}
	if pad, ok := w.pads[*r.Pad]; ok {
		if docked, _ := pad.DockedRocket(); docked == id {
			pad.Undock()
		}
	}
	r.Pad = nil
}

func (w *World) RemoveRocket(id string) {
	w.UndockRocket(id)
	delete(w.rockets, id)
}

// ApplyLayout seeds the world from a layout file. Loaders with a recheck
// direction probe it on the next tick.
func (w *World) ApplyLayout(l catalogs.Layout) error {
	for _, pp := range l.Pads {
		if err := w.PlacePad(geom.FromArray(pp.Center)); err != nil {
			return fmt.Errorf("layout pad %v: %w", pp.Center, err)
		}
	}
	for _, lp := range l.Loaders {
		l, err := w.PlaceLoader(geom.FromArray(lp.Pos))
		if err != nil {
			return fmt.Errorf("layout loader %v: %w", lp.Pos, err)
		}
		if lp.Recheck != "" {
			dir, err := geom.ParseDirection(lp.Recheck)
			if err != nil {
				return fmt.Errorf("layout loader %v: %w", lp.Pos, err)
			}
			l.RequestConnectionRecheck(dir)
		}
	}
	for _, rp := range l.Rockets {
		if _, err := w.SpawnRocket(rp.ID, fluid.Amount(rp.Fuel)); err != nil {
			return fmt.Errorf("layout rocket %s: %w", rp.ID, err)
		}
		if err := w.DockRocket(rp.ID, geom.FromArray(rp.Pad)); err != nil {
			return fmt.Errorf("layout rocket %s: %w", rp.ID, err)
		}
	}
	return nil
}
