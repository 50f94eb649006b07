package world

import (
	"context"
	"errors"
	"fmt"

	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/energy"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
	"voxelfuel.ai/internal/sim/item"
	"voxelfuel.ai/internal/sim/machine/fuelloader"
)

var (
	ErrBadCommand = errors.New("bad command")
	ErrWrongSlot  = errors.New("item does not fit slot")
	ErrEmptySlot  = errors.New("slot is empty")
	ErrBusy       = errors.New("world inbox full")
)

// Command is a panel command for the loader at Pos. Commands are applied at
// the start of the next tick, in arrival order.
type Command struct {
	ID        string
	Action    string
	Pos       geom.Pos
	Direction geom.Direction
	Target    geom.Pos
	Slot      int
	Item      *protocol.ItemSpec
}

type CommandResult struct {
	Tick uint64
	Err  error
	// Taken is set by TAKE_ITEM.
	Taken *protocol.ItemSpec
}

type commandEnvelope struct {
	Cmd  Command
	Resp chan CommandResult
}

// CommandFromMsg converts a decoded wire command.
func CommandFromMsg(m protocol.CmdMsg) (Command, error) {
	c := Command{ID: m.ID, Action: m.Action, Pos: geom.FromArray(m.Pos), Slot: m.Slot, Item: m.Item}
	switch m.Action {
	case protocol.ActionRecheckConnection:
		d, err := geom.ParseDirection(m.Direction)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		c.Direction = d
	case protocol.ActionSetConnection:
		if m.Target == nil {
			return Command{}, fmt.Errorf("%w: missing target", ErrBadCommand)
		}
		c.Target = geom.FromArray(*m.Target)
	case protocol.ActionInsertItem:
		if m.Item == nil {
			return Command{}, fmt.Errorf("%w: missing item", ErrBadCommand)
		}
	case protocol.ActionClearConnection, protocol.ActionTakeItem:
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrBadCommand, m.Action)
	}
	return c, nil
}

// Submit queues a command and waits for the tick that applies it.
func (w *World) Submit(ctx context.Context, c Command) (CommandResult, error) {
	resp := make(chan CommandResult, 1)
	select {
	case w.inbox <- commandEnvelope{Cmd: c, Resp: resp}:
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	default:
		return CommandResult{}, ErrBusy
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}

func (w *World) applyCommand(c Command) CommandResult {
	res := CommandResult{Tick: w.tick.Load()}
	l, ok := w.loaders[c.Pos]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", ErrNoLoader, c.Pos)
		return res
	}
	switch c.Action {
	case protocol.ActionRecheckConnection:
		if !c.Direction.Valid() {
			res.Err = fmt.Errorf("%w: direction", ErrBadCommand)
			break
		}
		l.RequestConnectionRecheck(c.Direction)
	case protocol.ActionSetConnection:
		res.Err = l.SetConnection(c.Target)
	case protocol.ActionClearConnection:
		l.ClearConnection()
	case protocol.ActionInsertItem:
		res.Err = w.insertItem(l, c.Slot, c.Item)
	case protocol.ActionTakeItem:
		res.Taken, res.Err = w.takeItem(l, c.Slot)
	default:
		res.Err = fmt.Errorf("%w: unknown action %q", ErrBadCommand, c.Action)
	}
	return res
}

func (w *World) insertItem(l *fuelloader.Loader, slot int, spec *protocol.ItemSpec) error {
	if spec == nil {
		return fmt.Errorf("%w: missing item", ErrBadCommand)
	}
	if slot < 0 || slot >= l.Inventory.Len() {
		return fmt.Errorf("%w: slot %d", ErrBadCommand, slot)
	}
	if l.Inventory.Get(slot) != nil {
		return fmt.Errorf("%w: slot %d", ErrOccupied, slot)
	}
	def, ok := w.cats.Items.Defs[spec.Item]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, spec.Item)
	}
	count := spec.Count
	if count == 0 {
		count = 1
	}
	s, err := item.New(def, count, spec.Charge, fluid.Volume{Fluid: spec.Fluid, Amount: fluid.Amount(spec.Amount)})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	switch slot {
	case fuelloader.SlotEnergy:
		if _, ok := s.(energy.Source); !ok {
			return fmt.Errorf("%w: %s in energy slot", ErrWrongSlot, spec.Item)
		}
	case fuelloader.SlotFuel:
		if _, ok := s.(fluid.Source); !ok {
			return fmt.Errorf("%w: %s in fuel slot", ErrWrongSlot, spec.Item)
		}
	}
	return l.Inventory.Set(slot, s)
}

func (w *World) takeItem(l *fuelloader.Loader, slot int) (*protocol.ItemSpec, error) {
	if slot < 0 || slot >= l.Inventory.Len() {
		return nil, fmt.Errorf("%w: slot %d", ErrBadCommand, slot)
	}
	s := l.Inventory.Take(slot)
	if s == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrEmptySlot, slot)
	}
	out := &protocol.ItemSpec{Item: s.ItemID(), Count: s.Count()}
	switch v := s.(type) {
	case *item.Battery:
		out.Charge = v.Charge
	case *item.Canister:
		out.Fluid = v.Tank.Fluid()
		out.Amount = int64(v.Tank.Amount())
	}
	return out, nil
}

// ErrorCode maps a command error onto a wire error code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoLoader), errors.Is(err, ErrUnknownItem), errors.Is(err, ErrEmptySlot):
		return protocol.ErrNotFound
	case errors.Is(err, fuelloader.ErrPosOutOfRange), errors.Is(err, ErrWrongSlot):
		return protocol.ErrInvalidTarget
	case errors.Is(err, ErrOccupied):
		return protocol.ErrConflict
	case errors.Is(err, ErrBusy):
		return protocol.ErrWorldBusy
	case errors.Is(err, ErrBadCommand):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}
