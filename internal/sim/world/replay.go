package world

import (
	"context"
	"fmt"

	"voxelfuel.ai/internal/protocol"
)

func recordCommand(c Command) RecordedCommand {
	rec := RecordedCommand{ID: c.ID, Action: c.Action, Pos: c.Pos.ToArray(), Slot: c.Slot, Item: c.Item}
	switch c.Action {
	case protocol.ActionRecheckConnection:
		rec.Direction = c.Direction.String()
	case protocol.ActionSetConnection:
		t := c.Target.ToArray()
		rec.Target = &t
	}
	return rec
}

// Command rebuilds the command a tick log entry recorded.
func (r RecordedCommand) Command() (Command, error) {
	msg := protocol.CmdMsg{
		ID:        r.ID,
		Action:    r.Action,
		Pos:       r.Pos,
		Direction: r.Direction,
		Target:    r.Target,
		Slot:      r.Slot,
		Item:      r.Item,
	}
	return CommandFromMsg(msg)
}

// Replay steps the tick recorded by entry and checks the resulting digest.
// The world must be positioned at entry.Tick.
func (w *World) Replay(entry TickLogEntry) error {
	if now := w.tick.Load(); entry.Tick != now {
		return fmt.Errorf("tick mismatch: world=%d entry=%d", now, entry.Tick)
	}
	envs := make([]commandEnvelope, 0, len(entry.Commands))
	for _, rc := range entry.Commands {
		c, err := rc.Command()
		if err != nil {
			return fmt.Errorf("tick %d: %w", entry.Tick, err)
		}
		envs = append(envs, commandEnvelope{Cmd: c})
	}
	got := w.step(context.Background(), envs)
	if got != entry.Digest {
		return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", entry.Tick, got, entry.Digest)
	}
	return nil
}
