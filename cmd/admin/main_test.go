package main

import (
	"testing"

	"voxelfuel.ai/internal/sim/world"
)

func TestParseVec3(t *testing.T) {
	v, err := parseVec3(" 1, -2 ,3")
	if err != nil || v != [3]int{1, -2, 3} {
		t.Fatalf("parseVec3=%v %v", v, err)
	}
	if _, err := parseVec3("1,2"); err == nil {
		t.Fatalf("expected error for short vector")
	}
}

func TestFilterEvents(t *testing.T) {
	a := [3]int{0, 1, 0}
	b := [3]int{5, 1, 0}
	events := []world.StatusEvent{
		{Tick: 0, Pos: a, To: "NOT_ENOUGH_ENERGY"},
		{Tick: 0, Pos: b, To: "NOT_ENOUGH_ENERGY"},
		{Tick: 3, Pos: a, From: "NOT_ENOUGH_ENERGY", To: "LOADING"},
	}
	got := filterEvents(events, &a, 1)
	if len(got) != 1 || got[0].To != "LOADING" {
		t.Fatalf("filtered=%+v", got)
	}
	if got := filterEvents(events, nil, 0); len(got) != 3 {
		t.Fatalf("unfiltered=%d", len(got))
	}
}
