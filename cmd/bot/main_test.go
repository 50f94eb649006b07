package main

import (
	"testing"

	"voxelfuel.ai/internal/protocol"
)

func TestBotSuppliesMissingInputs(t *testing.T) {
	b := newBot(supplies{BatteryCharge: 100, CanisterAmount: 81000}, 20)
	loaders := []protocol.LoaderState{
		{Pos: [3]int{0, 1, 0}, Status: "NOT_ENOUGH_ENERGY", Class: "MISSING_ENERGY"},
		{Pos: [3]int{5, 1, 0}, Status: "NOT_ENOUGH_FUEL", Class: "MISSING_FLUIDS", Slots: [2]string{"BATTERY", "FUEL_CANISTER"}},
		{Pos: [3]int{9, 1, 0}, Status: "LOADING", Class: "WORKING"},
	}
	cmds := b.react(10, loaders)
	if len(cmds) != 2 {
		t.Fatalf("cmds=%+v", cmds)
	}
	if c := cmds[0]; c.Action != protocol.ActionInsertItem || c.Slot != 0 || c.Item == nil || c.Item.Charge != 100 {
		t.Fatalf("energy cmd=%+v", c)
	}
	// An occupied fuel slot holds an empty canister; take it first.
	if c := cmds[1]; c.Action != protocol.ActionTakeItem || c.Slot != 1 || c.Pos != [3]int{5, 1, 0} {
		t.Fatalf("fuel cmd=%+v", c)
	}
	if cmds[0].ID == cmds[1].ID || cmds[0].Type != protocol.TypeCmd {
		t.Fatalf("ids=%s,%s type=%s", cmds[0].ID, cmds[1].ID, cmds[0].Type)
	}
}

func TestBotCooldownAndProbeRotation(t *testing.T) {
	b := newBot(supplies{}, 20)
	st := []protocol.LoaderState{{Pos: [3]int{0, 1, 0}, Status: "NO_ROCKET", Class: "MISSING_RESOURCE"}}

	first := b.react(0, st)
	if len(first) != 1 || first[0].Direction != "DOWN" {
		t.Fatalf("first=%+v", first)
	}
	// The next direction differs, so the cooldown does not apply.
	second := b.react(1, st)
	if len(second) != 1 || second[0].Direction != "UP" {
		t.Fatalf("second=%+v", second)
	}

	connected := []protocol.LoaderState{{Pos: [3]int{0, 1, 0}, Status: "NO_ROCKET", Class: "MISSING_RESOURCE", Connection: &[3]int{2, 1, 0}}}
	if got := b.react(2, connected); len(got) != 0 {
		t.Fatalf("connected loader got %+v", got)
	}

	empty := []protocol.LoaderState{{Pos: [3]int{0, 1, 0}, Status: "NOT_ENOUGH_ENERGY", Class: "MISSING_ENERGY"}}
	if got := b.react(3, empty); len(got) != 1 {
		t.Fatalf("want insert, got %+v", got)
	}
	if got := b.react(4, empty); len(got) != 0 {
		t.Fatalf("cooldown ignored: %+v", got)
	}
	if got := b.react(23, empty); len(got) != 1 {
		t.Fatalf("cooldown should expire: %+v", got)
	}
}

func TestBotRoutesByClass(t *testing.T) {
	b := newBot(supplies{CanisterAmount: 40500}, 20)
	cmds := b.react(0, []protocol.LoaderState{
		{Pos: [3]int{0, 1, 0}, Status: "NOT_ENOUGH_FUEL", Class: "MISSING_FLUIDS", Slots: [2]string{"BATTERY", ""}},
		{Pos: [3]int{4, 1, 0}, Status: "NO_ROCKET", Class: "MISSING_RESOURCE"},
		{Pos: [3]int{8, 1, 0}, Status: "ROCKET_IS_FULL", Class: "OUTPUT_FULL"},
	})
	if len(cmds) != 2 {
		t.Fatalf("cmds=%+v", cmds)
	}
	if c := cmds[0]; c.Action != protocol.ActionInsertItem || c.Slot != 1 || c.Item == nil || c.Item.Item != "FUEL_CANISTER" || c.Item.Amount != 40500 {
		t.Fatalf("fluids cmd=%+v", c)
	}
	if c := cmds[1]; c.Action != protocol.ActionRecheckConnection || c.Pos != [3]int{4, 1, 0} {
		t.Fatalf("resource cmd=%+v", c)
	}
}
