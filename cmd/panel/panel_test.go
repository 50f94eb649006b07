package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"voxelfuel.ai/internal/protocol"
)

// gridCanvas records drawn runes so tests can read rows back.
type gridCanvas struct {
	w, h  int
	cells [][]rune
}

func newGrid(w, h int) *gridCanvas {
	g := &gridCanvas{w: w, h: h, cells: make([][]rune, h)}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", w))
	}
	return g
}

func (g *gridCanvas) SetContent(x, y int, r rune, _ []rune, _ tcell.Style) {
	if x >= 0 && x < g.w && y >= 0 && y < g.h {
		g.cells[y][x] = r
	}
}

func (g *gridCanvas) Size() (int, int) { return g.w, g.h }

func (g *gridCanvas) row(y int) string { return strings.TrimRight(string(g.cells[y]), " ") }

func (g *gridCanvas) text() string {
	var b strings.Builder
	for y := range g.cells {
		b.WriteString(g.row(y))
		b.WriteByte('\n')
	}
	return b.String()
}

func sampleStates() []protocol.LoaderState {
	return []protocol.LoaderState{
		{Pos: [3]int{5, 1, 0}, Status: "NO_ROCKET", Class: "MISSING_RESOURCE"},
		{
			Pos: [3]int{0, 1, 0}, Status: "LOADING", Class: "WORKING",
			Energy: 15000, EnergyCapacity: 30000,
			Fluid: "FUEL", Fuel: 40500, FuelCapacity: 81000,
			Connection: &[3]int{2, 1, 0}, Rocket: "R1", RocketFuel: 81000, RocketCapacity: 324000,
			Slots: [2]string{"BATTERY", "FUEL_CANISTER"},
		},
	}
}

func TestModelOrdersAndMergesFrames(t *testing.T) {
	m := newModel()
	m.welcome(protocol.WelcomeMsg{WorldID: "w", Tick: 3, Loaders: sampleStates()})
	if len(m.order) != 2 || m.order[0] != [3]int{0, 1, 0} {
		t.Fatalf("order=%v", m.order)
	}

	m.apply(4, []protocol.LoaderState{{Pos: [3]int{5, 1, 0}, Status: "NOT_ENOUGH_ENERGY", Class: "MISSING_ENERGY"}}, false)
	if m.loaders[[3]int{5, 1, 0}].Status != "NOT_ENOUGH_ENERGY" || len(m.order) != 2 {
		t.Fatalf("delta not merged: %+v", m.loaders)
	}

	m.selected = 1
	m.apply(100, sampleStates()[1:], true)
	if len(m.order) != 1 || m.selected != 0 {
		t.Fatalf("full frame: order=%v selected=%d", m.order, m.selected)
	}
}

func TestModelKeysBuildCommands(t *testing.T) {
	m := newModel()
	m.welcome(protocol.WelcomeMsg{Loaders: sampleStates()})

	cmd, quit := m.key(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	if cmd != nil || quit || m.selected != 1 {
		t.Fatalf("down: cmd=%v quit=%v selected=%d", cmd, quit, m.selected)
	}

	m.key(tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone))
	cmd, _ = m.key(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if cmd == nil || cmd.Action != protocol.ActionRecheckConnection || cmd.Direction != "DOWN" || cmd.Pos != [3]int{5, 1, 0} {
		t.Fatalf("recheck=%+v", cmd)
	}

	cmd, _ = m.key(tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone))
	if cmd == nil || cmd.Action != protocol.ActionTakeItem || cmd.Slot != 1 {
		t.Fatalf("take=%+v", cmd)
	}

	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	raw, _ := json.Marshal(cmd)
	if err := v.ValidateCmd(raw); err != nil {
		t.Fatalf("panel command fails schema: %v", err)
	}

	if _, quit := m.key(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)); !quit {
		t.Fatalf("q should quit")
	}
}

func TestDrawLoaderPanels(t *testing.T) {
	m := newModel()
	m.welcome(protocol.WelcomeMsg{WorldID: "world_1", Tick: 42, Loaders: sampleStates()})
	m.reject(protocol.NewError("panel_1", protocol.ErrNotFound, "no fuel loader"))

	g := newGrid(100, 20)
	draw(g, m)
	out := g.text()

	for _, want := range []string{
		"world=world_1",
		"tick=42",
		"LOADING",
		"WORKING",
		"0.50B/1.00B FUEL",
		"rocket R1 1.00B/4.00B",
		"[BATTERY] [FUEL_CANISTER]",
		"NO_ROCKET",
		"not connected",
		"panel_1 rejected: E_NOT_FOUND",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(g.row(2), "(0,1,0)") {
		t.Fatalf("first panel row=%q", g.row(2))
	}
}

func TestBar(t *testing.T) {
	if got := bar(4, 50, 100); got != "██░░" {
		t.Fatalf("bar=%q", got)
	}
	if got := bar(4, 500, 100); got != "████" {
		t.Fatalf("overfull bar=%q", got)
	}
	if got := bar(3, 1, 0); got != "░░░" {
		t.Fatalf("zero capacity bar=%q", got)
	}
}

func TestDrawOnSimulationScreen(t *testing.T) {
	ss := tcell.NewSimulationScreen("UTF-8")
	ss.SetSize(40, 10)
	if err := ss.Init(); err != nil {
		t.Fatalf("SimulationScreen.Init: %v", err)
	}
	defer ss.Fini()
	m := newModel()
	m.welcome(protocol.WelcomeMsg{Loaders: sampleStates()})
	draw(ss, m)
	ss.Show()
}
