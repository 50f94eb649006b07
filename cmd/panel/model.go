package main

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"

	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/geom"
)

// model is the client-side copy of every loader panel.
type model struct {
	worldID  string
	tick     uint64
	loaders  map[[3]int]protocol.LoaderState
	order    [][3]int
	selected int
	probeDir geom.Direction
	message  string
	seq      int
}

func newModel() *model {
	return &model{loaders: map[[3]int]protocol.LoaderState{}, probeDir: geom.East}
}

func (m *model) welcome(w protocol.WelcomeMsg) {
	m.worldID = w.WorldID
	m.loaders = map[[3]int]protocol.LoaderState{}
	m.apply(w.Tick, w.Loaders, true)
}

// apply merges a STATUS frame. Full frames drop loaders they do not list.
func (m *model) apply(tick uint64, states []protocol.LoaderState, full bool) {
	m.tick = tick
	if full {
		m.loaders = make(map[[3]int]protocol.LoaderState, len(states))
	}
	for _, st := range states {
		m.loaders[st.Pos] = st
	}
	m.order = m.order[:0]
	for p := range m.loaders {
		m.order = append(m.order, p)
	}
	sort.Slice(m.order, func(i, j int) bool {
		return geom.Less(geom.FromArray(m.order[i]), geom.FromArray(m.order[j]))
	})
	if m.selected >= len(m.order) {
		m.selected = len(m.order) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *model) current() (protocol.LoaderState, bool) {
	if len(m.order) == 0 {
		return protocol.LoaderState{}, false
	}
	return m.loaders[m.order[m.selected]], true
}

// key applies a key press. It returns a command to send, if any, and
// whether the client should quit.
func (m *model) key(ev *tcell.EventKey) (*protocol.CmdMsg, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		m.move(-1)
		return nil, false
	case tcell.KeyDown:
		m.move(1)
		return nil, false
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, true
	}
	switch ev.Rune() {
	case 'k':
		m.move(-1)
	case 'j':
		m.move(1)
	case 'q':
		return nil, true
	case 'd':
		dirs := geom.Directions()
		m.probeDir = dirs[(int(m.probeDir)+1)%len(dirs)]
		m.message = "probe direction " + m.probeDir.String()
	case 'r':
		return m.command(protocol.ActionRecheckConnection, func(c *protocol.CmdMsg) { c.Direction = m.probeDir.String() }), false
	case 'c':
		return m.command(protocol.ActionClearConnection, nil), false
	case 'e':
		return m.command(protocol.ActionTakeItem, func(c *protocol.CmdMsg) { c.Slot = 0 }), false
	case 'f':
		return m.command(protocol.ActionTakeItem, func(c *protocol.CmdMsg) { c.Slot = 1 }), false
	}
	return nil, false
}

func (m *model) move(delta int) {
	if len(m.order) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.order)) % len(m.order)
}

func (m *model) command(action string, fill func(*protocol.CmdMsg)) *protocol.CmdMsg {
	st, ok := m.current()
	if !ok {
		m.message = "no loader selected"
		return nil
	}
	m.seq++
	c := &protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		ID:              fmt.Sprintf("panel_%d", m.seq),
		Action:          action,
		Pos:             st.Pos,
	}
	if fill != nil {
		fill(c)
	}
	m.message = fmt.Sprintf("%s %s sent", c.ID, action)
	return c
}

func (m *model) ack(a protocol.AckMsg) {
	m.message = fmt.Sprintf("%s applied at tick %d", a.ID, a.Tick)
	if a.Item != nil {
		m.message += fmt.Sprintf(" (took %s)", a.Item.Item)
	}
}

func (m *model) reject(e protocol.ErrorMsg) {
	m.message = fmt.Sprintf("%s rejected: %s %s", e.ID, e.Code, e.Message)
}
