package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/fluid"
)

// canvas is the part of tcell.Screen the renderer draws through.
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
}

var classColors = map[string]tcell.Color{
	"WORKING":          tcell.ColorGreen,
	"MISSING_ENERGY":   tcell.ColorYellow,
	"MISSING_FLUIDS":   tcell.ColorOrange,
	"MISSING_RESOURCE": tcell.ColorRed,
	"OUTPUT_FULL":      tcell.ColorAqua,
	"OTHER":            tcell.ColorGray,
}

// putText writes s at (x, y) and returns the next free column. Wide runes
// take two columns.
func putText(c canvas, x, y int, s string, st tcell.Style) int {
	sw, _ := c.Size()
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > sw {
			break
		}
		c.SetContent(x, y, r, nil, st)
		if w == 2 {
			c.SetContent(x+1, y, ' ', nil, st)
		}
		x += w
	}
	return x
}

func bar(width int, value, capacity int64) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if capacity > 0 {
		filled = int(int64(width) * value / capacity)
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func buckets(v int64) string {
	return fmt.Sprintf("%.2fB", float64(v)/float64(fluid.Bucket))
}

func posString(p [3]int) string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

func draw(c canvas, m *model) {
	sw, sh := c.Size()
	base := tcell.StyleDefault
	dim := base.Foreground(tcell.ColorGray)

	header := fmt.Sprintf("fuel loaders  world=%s  tick=%d  loaders=%d", m.worldID, m.tick, len(m.order))
	putText(c, 0, 0, runewidth.Truncate(header, sw, "…"), base.Bold(true))

	y := 2
	for i, p := range m.order {
		if y >= sh-3 {
			break
		}
		st := m.loaders[p]
		y = drawLoader(c, y, st, i == m.selected)
	}

	if m.message != "" {
		putText(c, 0, sh-2, runewidth.Truncate(m.message, sw, "…"), base.Foreground(tcell.ColorYellow))
	}
	help := fmt.Sprintf("↑/↓ select  r recheck %s  d direction  c clear  e/f take slot  q quit", m.probeDir)
	putText(c, 0, sh-1, runewidth.Truncate(help, sw, "…"), dim)
}

func drawLoader(c canvas, y int, st protocol.LoaderState, selected bool) int {
	base := tcell.StyleDefault
	if selected {
		base = base.Reverse(true)
	}
	color, ok := classColors[st.Class]
	if !ok {
		color = tcell.ColorWhite
	}

	x := putText(c, 0, y, runewidth.FillRight(posString(st.Pos), 14), base)
	x = putText(c, x, y, runewidth.FillRight(st.Status, 18), base.Foreground(color))
	putText(c, x, y, st.Class, base.Foreground(color))
	y++

	line := fmt.Sprintf("  energy %s %d/%d", bar(20, st.Energy, st.EnergyCapacity), st.Energy, st.EnergyCapacity)
	putText(c, 0, y, line, tcell.StyleDefault)
	y++

	fluid := st.Fluid
	if fluid == "" {
		fluid = "empty"
	}
	line = fmt.Sprintf("  tank   %s %s/%s %s", bar(20, st.Fuel, st.FuelCapacity), buckets(st.Fuel), buckets(st.FuelCapacity), fluid)
	putText(c, 0, y, line, tcell.StyleDefault)
	y++

	conn := "not connected"
	if st.Connection != nil {
		conn = "pad " + posString(*st.Connection)
		if st.Rocket != "" {
			conn += fmt.Sprintf("  rocket %s %s/%s", st.Rocket, buckets(st.RocketFuel), buckets(st.RocketCapacity))
		}
	}
	putText(c, 0, y, "  "+conn, tcell.StyleDefault)
	y++

	slot := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	putText(c, 0, y, fmt.Sprintf("  slots  [%s] [%s]", slot(st.Slots[0]), slot(st.Slots[1])), tcell.StyleDefault.Foreground(tcell.ColorGray))
	return y + 2
}
