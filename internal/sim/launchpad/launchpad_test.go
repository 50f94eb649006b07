package launchpad

import (
	"testing"

	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/geom"
)

type mapGrid map[geom.Pos]block.State

func (g mapGrid) BlockAt(p geom.Pos) block.State     { return g[p] }
func (g mapGrid) SetBlock(p geom.Pos, s block.State) { g[p] = s }

func placePads(g mapGrid, center geom.Pos, skip *geom.Pos) {
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			p := geom.Pos{X: center.X + x, Y: center.Y, Z: center.Z + z}
			if skip != nil && p == *skip {
				continue
			}
			g[p] = block.Of(BlockID)
		}
	}
}

func TestAssembleAndResolveCenter(t *testing.T) {
	g := mapGrid{}
	center := geom.Pos{X: 5, Y: 1, Z: -3}
	last := geom.Pos{X: 4, Y: 1, Z: -4}
	placePads(g, center, &last)

	if _, ok := Assemble(g, geom.Pos{X: 6, Y: 1, Z: -2}); ok {
		t.Fatalf("assembled an incomplete pad")
	}
	g[last] = block.Of(BlockID)
	got, ok := Assemble(g, last)
	if !ok || got != center {
		t.Fatalf("Assemble=%v,%v want %v", got, ok, center)
	}

	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			p := geom.Pos{X: center.X + x, Y: center.Y, Z: center.Z + z}
			c, ok := CenterOf(p, g[p])
			if !ok || c != center {
				t.Fatalf("CenterOf(%v %v)=%v,%v", p, g[p], c, ok)
			}
		}
	}
	if PartOf(g[center]) != PartCenter {
		t.Fatalf("centre part=%q", PartOf(g[center]))
	}
	if PartOf(g[geom.Pos{X: 5, Y: 1, Z: -4}]) != PartNorth {
		t.Fatalf("north cell part=%q", PartOf(g[geom.Pos{X: 5, Y: 1, Z: -4}]))
	}

	Disassemble(g, center)
	if _, ok := CenterOf(center, g[center]); ok {
		t.Fatalf("disassembled pad still resolves")
	}
}

func TestCenterOfRejectsOtherBlocks(t *testing.T) {
	if _, ok := CenterOf(geom.Pos{}, block.Of("STONE")); ok {
		t.Fatalf("stone resolved to a pad centre")
	}
	if _, ok := CenterOf(geom.Pos{}, block.Of(BlockID).With(string(PartNone))); ok {
		t.Fatalf("unformed pad resolved to a centre")
	}
}

func TestControllerDock(t *testing.T) {
	c := NewController(geom.Pos{})
	if _, ok := c.DockedRocket(); ok {
		t.Fatalf("new controller has a rocket")
	}
	if err := c.Dock("R1"); err != nil {
		t.Fatalf("dock: %v", err)
	}
	if err := c.Dock("R2"); err != ErrOccupied {
		t.Fatalf("dock second=%v want ErrOccupied", err)
	}
	if id := c.Undock(); id != "R1" {
		t.Fatalf("undock=%q", id)
	}
}
