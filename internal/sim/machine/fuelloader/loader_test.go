package fuelloader

import (
	"bytes"
	"encoding/json"
	"testing"

	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
	"voxelfuel.ai/internal/sim/item"
	"voxelfuel.ai/internal/sim/launchpad"
)

type fakeWorld struct {
	blocks   map[geom.Pos]block.State
	bes      map[geom.Pos]any
	entities map[string]any
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		blocks:   map[geom.Pos]block.State{},
		bes:      map[geom.Pos]any{},
		entities: map[string]any{},
	}
}

func (w *fakeWorld) BlockAt(p geom.Pos) block.State     { return w.blocks[p] }
func (w *fakeWorld) SetBlock(p geom.Pos, s block.State) { w.blocks[p] = s }
func (w *fakeWorld) BlockEntityAt(p geom.Pos) (any, bool) {
	be, ok := w.bes[p]
	return be, ok
}
func (w *fakeWorld) EntityByID(id string) (any, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// pad builds a formed launch pad centred at c with a controller.
func (w *fakeWorld) pad(c geom.Pos) *launchpad.Controller {
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			w.blocks[geom.Pos{X: c.X + x, Y: c.Y, Z: c.Z + z}] = block.Of(launchpad.BlockID)
		}
	}
	if got, ok := launchpad.Assemble(w, c); !ok || got != c {
		panic("pad did not assemble")
	}
	ctrl := launchpad.NewController(c)
	w.bes[c] = ctrl
	return ctrl
}

func (w *fakeWorld) rocket(ctrl *launchpad.Controller, id string, capacity, fuel fluid.Amount) *launchpad.Rocket {
	r := launchpad.NewRocket(id, capacity)
	r.Tank.Insert(fluid.Volume{Fluid: "FUEL", Amount: fuel}, false)
	w.entities[id] = r
	if err := ctrl.Dock(id); err != nil {
		panic(err)
	}
	return r
}

var (
	loaderPos = geom.Pos{X: 0, Y: 1, Z: 0}
	padCenter = geom.Pos{X: 2, Y: 1, Z: 0}
)

func newLoader(energyStored int64, fuel fluid.Amount) *Loader {
	l := New(loaderPos, DefaultParams())
	l.Energy.Stored = energyStored
	l.Tank.Insert(fluid.Volume{Fluid: "FUEL", Amount: fuel}, false)
	return l
}

func TestStatusPriorityChain(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name      string
		energy    int64
		fuel      fluid.Amount
		connected bool
		rocket    fluid.Amount // -1: no rocket docked
		want      Status
	}{
		{"no energy beats everything", 0, fluid.Bucket, true, 0, StatusNotEnoughEnergy},
		{"energy just below threshold", p.EnergyPerTick - 1, fluid.Bucket, true, 0, StatusNotEnoughEnergy},
		{"no fuel beats connection", 1000, 0, true, 0, StatusNotEnoughFuel},
		{"no fuel, no connection", 1000, 0, false, -1, StatusNotEnoughFuel},
		{"no connection", 1000, fluid.Bucket, false, 0, StatusNoRocket},
		{"connected, nothing docked", 1000, fluid.Bucket, true, -1, StatusNoRocket},
		{"rocket full", 1000, fluid.Bucket, true, 10 * fluid.Bucket, StatusRocketIsFull},
		{"loading", 1000, fluid.Bucket, true, 0, StatusLoading},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newFakeWorld()
			ctrl := w.pad(padCenter)
			if tc.rocket >= 0 {
				w.rocket(ctrl, "R1", 10*fluid.Bucket, tc.rocket)
			}
			l := newLoader(tc.energy, tc.fuel)
			if tc.connected {
				if err := l.SetConnection(padCenter); err != nil {
					t.Fatalf("SetConnection: %v", err)
				}
			}
			rep := l.Tick(w)
			if rep.Status != tc.want || l.Status() != tc.want {
				t.Fatalf("status=%v (stored %v) want %v", rep.Status, l.Status(), tc.want)
			}
			if !tc.want.Active() && rep.Delivered != 0 {
				t.Fatalf("inactive status delivered %d", rep.Delivered)
			}
		})
	}
}

func TestNoRocketWhenEntityIsNotAVehicle(t *testing.T) {
	w := newFakeWorld()
	ctrl := w.pad(padCenter)
	w.entities["R1"] = "not a rocket"
	if err := ctrl.Dock("R1"); err != nil {
		t.Fatalf("dock: %v", err)
	}
	l := newLoader(1000, fluid.Bucket)
	_ = l.SetConnection(padCenter)
	if rep := l.Tick(w); rep.Status != StatusNoRocket {
		t.Fatalf("status=%v want NO_ROCKET", rep.Status)
	}

	// Dangling rocket id.
	delete(w.entities, "R1")
	if rep := l.Tick(w); rep.Status != StatusNoRocket {
		t.Fatalf("status=%v want NO_ROCKET", rep.Status)
	}

	// Connection pointing at something that is not a pad controller.
	w.bes[padCenter] = struct{}{}
	if rep := l.Tick(w); rep.Status != StatusNoRocket {
		t.Fatalf("status=%v want NO_ROCKET", rep.Status)
	}
}

func TestLoadingTransfersDeliveryRate(t *testing.T) {
	w := newFakeWorld()
	ctrl := w.pad(padCenter)
	r := w.rocket(ctrl, "R1", 10*fluid.Bucket, 0)
	l := newLoader(1000, fluid.Bucket)
	_ = l.SetConnection(padCenter)

	rep := l.Tick(w)
	want := l.Params().DeliveryRate
	if rep.Status != StatusLoading || rep.Delivered != want {
		t.Fatalf("report=%+v want delivered %d", rep, want)
	}
	if r.Tank.Amount() != want {
		t.Fatalf("rocket=%d want %d", r.Tank.Amount(), want)
	}
	if l.Tank.Amount() != fluid.Bucket-want {
		t.Fatalf("loader tank=%d want %d", l.Tank.Amount(), fluid.Bucket-want)
	}
	if l.Energy.Stored != 1000-l.Params().EnergyPerTick {
		t.Fatalf("energy=%d", l.Energy.Stored)
	}
	if rep.RocketID != "R1" {
		t.Fatalf("rocket id=%q", rep.RocketID)
	}
}

func TestLoadingBoundedByTankAndRocketSpace(t *testing.T) {
	w := newFakeWorld()
	ctrl := w.pad(padCenter)
	r := w.rocket(ctrl, "R1", 10*fluid.Bucket, 10*fluid.Bucket-100)

	l := newLoader(1000, fluid.Bucket)
	_ = l.SetConnection(padCenter)
	rep := l.Tick(w)
	if rep.Delivered != 100 {
		t.Fatalf("delivered=%d want 100 (rocket space)", rep.Delivered)
	}
	// The refused remainder went back to the loader.
	if l.Tank.Amount() != fluid.Bucket-100 {
		t.Fatalf("loader tank=%d want %d", l.Tank.Amount(), fluid.Bucket-100)
	}
	if !r.Tank.Full() {
		t.Fatalf("rocket not full")
	}
	if rep := l.Tick(w); rep.Status != StatusRocketIsFull || l.Tank.Amount() != fluid.Bucket-100 {
		t.Fatalf("second tick status=%v tank=%d", rep.Status, l.Tank.Amount())
	}

	w2 := newFakeWorld()
	ctrl2 := w2.pad(padCenter)
	r2 := w2.rocket(ctrl2, "R2", 10*fluid.Bucket, 0)
	l2 := newLoader(1000, 7)
	_ = l2.SetConnection(padCenter)
	if rep := l2.Tick(w2); rep.Delivered != 7 || r2.Tank.Amount() != 7 || l2.Tank.Amount() != 0 {
		t.Fatalf("delivered=%d rocket=%d tank=%d", rep.Delivered, r2.Tank.Amount(), l2.Tank.Amount())
	}
}

func TestRocketHoldingOtherFluidRefusesAndKeepsFuel(t *testing.T) {
	w := newFakeWorld()
	ctrl := w.pad(padCenter)
	r := launchpad.NewRocket("R1", 10*fluid.Bucket)
	r.Tank.Insert(fluid.Volume{Fluid: "WATER", Amount: 5}, false)
	w.entities["R1"] = r
	_ = ctrl.Dock("R1")

	l := newLoader(1000, fluid.Bucket)
	_ = l.SetConnection(padCenter)
	rep := l.Tick(w)
	if rep.Status != StatusLoading || rep.Delivered != 0 {
		t.Fatalf("report=%+v", rep)
	}
	if l.Tank.Amount() != fluid.Bucket {
		t.Fatalf("fuel lost: tank=%d", l.Tank.Amount())
	}
}

func TestFuelIntakeFromCanister(t *testing.T) {
	w := newFakeWorld()
	l := newLoader(0, 0)
	can := &item.Canister{ID: "FUEL_CANISTER", Tank: fluid.Tank{Capacity: 2 * fluid.Bucket}}
	can.Tank.Insert(fluid.Volume{Fluid: "FUEL", Amount: 2 * fluid.Bucket}, false)
	if err := l.Inventory.Set(SlotFuel, can); err != nil {
		t.Fatalf("set: %v", err)
	}

	rate := l.Params().IntakeRate
	for i := 1; i <= 25; i++ {
		rep := l.Tick(w)
		want := rate * fluid.Amount(i)
		if want > fluid.Bucket {
			want = fluid.Bucket
		}
		if l.Tank.Amount() != want {
			t.Fatalf("tick %d: tank=%d want %d (intake %d)", i, l.Tank.Amount(), want, rep.Intake)
		}
		if l.Tank.Amount() > l.Tank.Capacity || l.Tank.Amount() < 0 {
			t.Fatalf("tank out of bounds: %d", l.Tank.Amount())
		}
	}
	if can.Tank.Amount() != fluid.Bucket {
		t.Fatalf("canister=%d want one bucket left", can.Tank.Amount())
	}
}

func TestFuelIntakeIgnoresNonFuel(t *testing.T) {
	w := newFakeWorld()
	l := newLoader(1000, 0)
	can := &item.Canister{ID: "FUEL_CANISTER", Tank: fluid.Tank{Capacity: fluid.Bucket}}
	can.Tank.Insert(fluid.Volume{Fluid: "CRUDE_OIL", Amount: fluid.Bucket}, false)
	_ = l.Inventory.Set(SlotFuel, can)
	// A plain item in the energy slot is not an energy source.
	_ = l.Inventory.Set(SlotEnergy, &item.Plain{ID: "TIN_INGOT", N: 1})

	rep := l.Tick(w)
	if rep.Intake != 0 || l.Tank.Amount() != 0 {
		t.Fatalf("took in %d", rep.Intake)
	}
	if rep.Status != StatusNotEnoughFuel {
		t.Fatalf("status=%v want NOT_ENOUGH_FUEL", rep.Status)
	}
}

func TestChargeFromBattery(t *testing.T) {
	w := newFakeWorld()
	l := newLoader(0, 0)
	bat := &item.Battery{ID: "BATTERY", Charge: 100000, Capacity: 100000}
	_ = l.Inventory.Set(SlotEnergy, bat)

	rep := l.Tick(w)
	if rep.Charged != l.Energy.Capacity || l.Energy.Stored != l.Energy.Capacity {
		t.Fatalf("charged=%d stored=%d", rep.Charged, l.Energy.Stored)
	}
	if bat.Charge != 100000-l.Energy.Capacity {
		t.Fatalf("battery=%d", bat.Charge)
	}
	// Charged this tick, so the energy check passes and fuel is what is missing.
	if rep.Status != StatusNotEnoughFuel {
		t.Fatalf("status=%v", rep.Status)
	}
}

func TestDiscoveryFindsPadCenter(t *testing.T) {
	w := newFakeWorld()
	w.pad(padCenter)
	l := newLoader(0, 0)

	l.RequestConnectionRecheck(geom.East)
	rep := l.Tick(w)
	if !rep.ConnectionChanged {
		t.Fatalf("connection not reported as changed")
	}
	got, ok := l.Connection()
	if !ok || got != padCenter {
		t.Fatalf("connection=%v,%v want %v", got, ok, padCenter)
	}
	if _, pending := l.PendingCheck(); pending {
		t.Fatalf("pending check not cleared")
	}

	// Repeating the probe keeps the same connection and reports no change.
	l.RequestConnectionRecheck(geom.East)
	if rep := l.Tick(w); rep.ConnectionChanged {
		t.Fatalf("unchanged connection reported as changed")
	}
}

func TestDiscoveryMissIsSingleShot(t *testing.T) {
	w := newFakeWorld()
	w.pad(padCenter)
	l := newLoader(0, 0)

	l.RequestConnectionRecheck(geom.West)
	l.Tick(w)
	if _, ok := l.Connection(); ok {
		t.Fatalf("connected through the wrong face")
	}
	if _, pending := l.PendingCheck(); pending {
		t.Fatalf("pending check survived a miss")
	}
	// Nothing retries on later ticks.
	l.Tick(w)
	if _, ok := l.Connection(); ok {
		t.Fatalf("connected without a new request")
	}
}

func TestDiscoveryKeepsConnectionOnMiss(t *testing.T) {
	w := newFakeWorld()
	w.pad(padCenter)
	l := newLoader(0, 0)
	_ = l.SetConnection(padCenter)

	l.RequestConnectionRecheck(geom.Up)
	l.Tick(w)
	if got, ok := l.Connection(); !ok || got != padCenter {
		t.Fatalf("miss cleared connection: %v,%v", got, ok)
	}
}

func TestDiscoveryRequiresController(t *testing.T) {
	w := newFakeWorld()
	w.pad(padCenter)
	delete(w.bes, padCenter)
	l := newLoader(0, 0)

	l.RequestConnectionRecheck(geom.East)
	l.Tick(w)
	if _, ok := l.Connection(); ok {
		t.Fatalf("connected to a pad without controller")
	}
}

func TestDiscoveryRequiresFormedCenter(t *testing.T) {
	w := newFakeWorld()
	w.pad(padCenter)
	// The edge cell still points at the centre, but the centre block is gone
	// while its controller lingers.
	w.blocks[padCenter] = block.Of("STONE")
	l := newLoader(0, 0)

	l.RequestConnectionRecheck(geom.East)
	if rep := l.Tick(w); rep.ConnectionChanged {
		t.Fatalf("connection changed without a pad centre")
	}
	if _, ok := l.Connection(); ok {
		t.Fatalf("connected to a missing centre")
	}

	w.blocks[padCenter] = block.Of(launchpad.BlockID).With(string(launchpad.PartCenter))
	l.RequestConnectionRecheck(geom.East)
	l.Tick(w)
	if got, ok := l.Connection(); !ok || got != padCenter {
		t.Fatalf("connection=%v,%v after centre restored", got, ok)
	}
}

func TestTagRoundTrip(t *testing.T) {
	l := newLoader(0, 0)
	_ = l.SetConnection(geom.Pos{X: -300, Y: 70, Z: 12})

	tag := Tag{}
	l.WriteTag(tag)

	l2 := New(loaderPos, DefaultParams())
	l2.ReadTag(tag)
	got, ok := l2.Connection()
	if !ok || got != (geom.Pos{X: -300, Y: 70, Z: 12}) {
		t.Fatalf("connection=%v,%v", got, ok)
	}

	// Through JSON, as the world snapshot stores it.
	b, err := json.Marshal(tag)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Tag
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	l3 := New(loaderPos, DefaultParams())
	l3.ReadTag(decoded)
	if got3, ok := l3.Connection(); !ok || got3 != got {
		t.Fatalf("json round trip=%v,%v", got3, ok)
	}

	empty := New(loaderPos, DefaultParams())
	tag = Tag{}
	empty.WriteTag(tag)
	if tag[tagHasConnection] != false {
		t.Fatalf("has_connection=%v", tag[tagHasConnection])
	}
	l2.ReadTag(tag)
	if _, ok := l2.Connection(); ok {
		t.Fatalf("empty tag left a connection")
	}
}

func TestReadTagMalformedIsUnconnected(t *testing.T) {
	for _, tag := range []Tag{
		{tagHasConnection: true},
		{tagHasConnection: true, tagConnectionPos: "12,3,4"},
		{tagHasConnection: true, tagConnectionPos: 1.5},
		{tagHasConnection: "yes", tagConnectionPos: int64(5)},
	} {
		l := newLoader(0, 0)
		_ = l.SetConnection(padCenter)
		l.ReadTag(tag)
		if _, ok := l.Connection(); ok {
			t.Fatalf("malformed tag %v produced a connection", tag)
		}
	}
}

func TestSetConnectionRejectsUnpackable(t *testing.T) {
	l := newLoader(0, 0)
	if err := l.SetConnection(geom.Pos{Y: 5000}); err != ErrPosOutOfRange {
		t.Fatalf("err=%v", err)
	}
}

func TestStatusClasses(t *testing.T) {
	want := map[Status]Class{
		StatusLoading:         ClassWorking,
		StatusNotEnoughEnergy: ClassMissingEnergy,
		StatusNotEnoughFuel:   ClassMissingFluids,
		StatusNoRocket:        ClassMissingResource,
		StatusRocketIsFull:    ClassOutputFull,
	}
	if got := StatusNotEnoughFuel.Class().String(); got != "MISSING_FLUIDS" {
		t.Fatalf("NOT_ENOUGH_FUEL class name=%s", got)
	}
	if got := StatusNoRocket.Class().String(); got != "MISSING_RESOURCE" {
		t.Fatalf("NO_ROCKET class name=%s", got)
	}
	for _, s := range Statuses() {
		if s.Class() != want[s] {
			t.Fatalf("%v class=%v want %v", s, s.Class(), want[s])
		}
		if parsed, ok := ParseStatus(s.String()); !ok || parsed != s {
			t.Fatalf("ParseStatus(%q)=%v,%v", s.String(), parsed, ok)
		}
		if s.Class() == ClassOther {
			t.Fatalf("%v has no dedicated class", s)
		}
		if s.Active() != (s == StatusLoading) {
			t.Fatalf("%v active=%v", s, s.Active())
		}
	}
}
