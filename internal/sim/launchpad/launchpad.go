package launchpad

import (
	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/geom"
)

const BlockID = "LAUNCH_PAD"

// Part is the position of a pad cell inside its 3x3 structure, named by the
// compass side of the centre the cell sits on.
type Part string

const (
	PartNone      Part = "NONE"
	PartCenter    Part = "CENTER"
	PartNorth     Part = "N"
	PartNorthEast Part = "NE"
	PartEast      Part = "E"
	PartSouthEast Part = "SE"
	PartSouth     Part = "S"
	PartSouthWest Part = "SW"
	PartWest      Part = "W"
	PartNorthWest Part = "NW"
)

// offsets from the centre, keyed by part; north is -Z, east is +X.
var partOffsets = map[Part]geom.Pos{
	PartCenter:    {},
	PartNorth:     {Z: -1},
	PartNorthEast: {X: 1, Z: -1},
	PartEast:      {X: 1},
	PartSouthEast: {X: 1, Z: 1},
	PartSouth:     {Z: 1},
	PartSouthWest: {X: -1, Z: 1},
	PartWest:      {X: -1},
	PartNorthWest: {X: -1, Z: -1},
}

func partAt(dx, dz int) Part {
	for p, off := range partOffsets {
		if off.X == dx && off.Z == dz {
			return p
		}
	}
	return PartNone
}

func (p Part) Formed() bool {
	_, ok := partOffsets[p]
	return ok
}

// CenterOffset is the offset from a cell with this part to the structure centre.
func (p Part) CenterOffset() (geom.Pos, bool) {
	off, ok := partOffsets[p]
	if !ok {
		return geom.Pos{}, false
	}
	return geom.Pos{X: -off.X, Z: -off.Z}, true
}

// PartOf returns the part of a pad block state; unformed pads and other
// blocks report PartNone.
func PartOf(s block.State) Part {
	if s.ID != BlockID || s.Variant == "" {
		return PartNone
	}
	return Part(s.Variant)
}

// CenterOf resolves the structure centre for a formed pad cell.
func CenterOf(pos geom.Pos, s block.State) (geom.Pos, bool) {
	off, ok := PartOf(s).CenterOffset()
	if !ok {
		return geom.Pos{}, false
	}
	return pos.Add(off), true
}

type Grid interface {
	BlockAt(geom.Pos) block.State
	SetBlock(geom.Pos, block.State)
}

func unformedPad(s block.State) bool {
	return s.ID == BlockID && !PartOf(s).Formed()
}

// Assemble looks for a complete 3x3 of unformed pads containing placed and,
// if one exists, marks its parts and returns the centre.
func Assemble(g Grid, placed geom.Pos) (geom.Pos, bool) {
	if !unformedPad(g.BlockAt(placed)) {
		return geom.Pos{}, false
	}
	for dx := 1; dx >= -1; dx-- {
		for dz := 1; dz >= -1; dz-- {
			c := geom.Pos{X: placed.X + dx, Y: placed.Y, Z: placed.Z + dz}
			if !windowUnformed(g, c) {
				continue
			}
			for x := -1; x <= 1; x++ {
				for z := -1; z <= 1; z++ {
					p := geom.Pos{X: c.X + x, Y: c.Y, Z: c.Z + z}
					g.SetBlock(p, block.State{ID: BlockID, Variant: string(partAt(x, z))})
				}
			}
			return c, true
		}
	}
	return geom.Pos{}, false
}

func windowUnformed(g Grid, c geom.Pos) bool {
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			if !unformedPad(g.BlockAt(geom.Pos{X: c.X + x, Y: c.Y, Z: c.Z + z})) {
				return false
			}
		}
	}
	return true
}

// Disassemble resets every remaining cell of the structure centred at center
// to an unformed pad.
func Disassemble(g Grid, center geom.Pos) {
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			p := geom.Pos{X: center.X + x, Y: center.Y, Z: center.Z + z}
			if g.BlockAt(p).ID == BlockID {
				g.SetBlock(p, block.Of(BlockID))
			}
		}
	}
}
