package fuelloader

import (
	"errors"

	"voxelfuel.ai/internal/sim/energy"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
	"voxelfuel.ai/internal/sim/item"
	"voxelfuel.ai/internal/sim/launchpad"
)

const (
	SlotEnergy = 0
	SlotFuel   = 1
	slotCount  = 2
)

var ErrPosOutOfRange = errors.New("connection position cannot be persisted")

// Params are the per-machine tunables. Rates are per tick.
type Params struct {
	EnergyCapacity int64
	EnergyPerTick  int64
	ChargeRate     int64 // 0 = bounded only by free buffer space
	TankCapacity   fluid.Amount
	IntakeRate     fluid.Amount
	DeliveryRate   fluid.Amount
	Fuel           fluid.Filter
}

func DefaultParams() Params {
	return Params{
		EnergyCapacity: 30000,
		EnergyPerTick:  30,
		TankCapacity:   fluid.Bucket,
		IntakeRate:     fluid.Bucket / 20,
		DeliveryRate:   fluid.Bucket / 50,
		Fuel:           func(f string) bool { return f == "FUEL" },
	}
}

type Loader struct {
	Pos       geom.Pos
	Energy    energy.Buffer
	Inventory *item.Inventory
	Tank      *fluid.Tank

	params       Params
	connection   *geom.Pos
	pendingCheck *geom.Direction
	status       Status
}

// TickReport summarizes what one tick did.
type TickReport struct {
	Status            Status
	Charged           int64
	Intake            fluid.Amount
	Delivered         fluid.Amount
	ConnectionChanged bool
	RocketID          string
}

func New(pos geom.Pos, p Params) *Loader {
	if p.Fuel == nil {
		p.Fuel = DefaultParams().Fuel
	}
	return &Loader{
		Pos:       pos,
		Energy:    energy.Buffer{Capacity: p.EnergyCapacity},
		Inventory: item.NewInventory(slotCount),
		Tank:      fluid.NewTank(p.TankCapacity),
		params:    p,
	}
}

func (l *Loader) Params() Params { return l.params }

// Status is the value computed by the most recent Tick (zero before the first).
func (l *Loader) Status() Status { return l.status }

func (l *Loader) Connection() (geom.Pos, bool) {
	if l.connection == nil {
		return geom.Pos{}, false
	}
	return *l.connection, true
}

func (l *Loader) SetConnection(p geom.Pos) error {
	if !geom.InPackRange(p) {
		return ErrPosOutOfRange
	}
	l.connection = &p
	return nil
}

func (l *Loader) ClearConnection() { l.connection = nil }

// RequestConnectionRecheck schedules a single probe in dir on the next tick.
func (l *Loader) RequestConnectionRecheck(dir geom.Direction) {
	l.pendingCheck = &dir
}

func (l *Loader) PendingCheck() (geom.Direction, bool) {
	if l.pendingCheck == nil {
		return 0, false
	}
	return *l.pendingCheck, true
}

func (l *Loader) Tick(view WorldView) TickReport {
	var rep TickReport

	rep.Charged = l.charge()
	rep.ConnectionChanged = l.discover(view)
	rep.Intake = l.intake()

	status, vehicle, rocketID := l.evaluate(view)
	l.status = status
	rep.Status = status
	rep.RocketID = rocketID

	if status.Active() {
		rep.Delivered = l.deliver(vehicle)
		l.Energy.Consume(l.params.EnergyPerTick)
	}
	return rep
}

func (l *Loader) charge() int64 {
	src, ok := l.Inventory.Get(SlotEnergy).(energy.Source)
	if !ok {
		return 0
	}
	return l.Energy.ChargeFrom(src, l.params.ChargeRate)
}

func (l *Loader) discover(view WorldView) bool {
	if l.pendingCheck == nil {
		return false
	}
	dir := *l.pendingCheck
	l.pendingCheck = nil

	probe := l.Pos.Offset(dir)
	center, ok := launchpad.CenterOf(probe, view.BlockAt(probe))
	if !ok || launchpad.PartOf(view.BlockAt(center)) != launchpad.PartCenter {
		return false
	}
	be, ok := view.BlockEntityAt(center)
	if !ok {
		return false
	}
	if _, ok := be.(PadController); !ok {
		return false
	}
	prev, had := l.Connection()
	if err := l.SetConnection(center); err != nil {
		return false
	}
	return !had || prev != center
}

func (l *Loader) intake() fluid.Amount {
	if l.Tank.Full() {
		return 0
	}
	src, ok := l.Inventory.Get(SlotFuel).(fluid.Source)
	if !ok {
		return 0
	}
	accept := func(f string) bool { return l.params.Fuel(f) && l.Tank.Accepts(f) }
	want := l.params.IntakeRate
	if s := l.Tank.Space(); s < want {
		want = s
	}
	got := src.ExtractFluid(accept, want, false)
	if got.Empty() {
		return 0
	}
	return l.Tank.Insert(got, false)
}

// evaluate runs the status priority chain and returns the vehicle to fill
// when loading.
func (l *Loader) evaluate(view WorldView) (Status, Vehicle, string) {
	if !l.Energy.Has(l.params.EnergyPerTick) {
		return StatusNotEnoughEnergy, nil, ""
	}
	if l.Tank.Extract(l.params.Fuel, fluid.Bucket, true).Empty() {
		return StatusNotEnoughFuel, nil, ""
	}
	if l.connection == nil {
		return StatusNoRocket, nil, ""
	}
	be, ok := view.BlockEntityAt(*l.connection)
	if !ok {
		return StatusNoRocket, nil, ""
	}
	pad, ok := be.(PadController)
	if !ok {
		return StatusNoRocket, nil, ""
	}
	rocketID, ok := pad.DockedRocket()
	if !ok {
		return StatusNoRocket, nil, ""
	}
	ent, ok := view.EntityByID(rocketID)
	if !ok {
		return StatusNoRocket, nil, rocketID
	}
	vehicle, ok := ent.(Vehicle)
	if !ok || vehicle.FuelTank() == nil {
		return StatusNoRocket, nil, rocketID
	}
	if tank := vehicle.FuelTank(); tank.Amount() >= tank.Capacity {
		return StatusRocketIsFull, nil, rocketID
	}
	return StatusLoading, vehicle, rocketID
}

func (l *Loader) deliver(v Vehicle) fluid.Amount {
	moved := l.Tank.Extract(l.params.Fuel, l.params.DeliveryRate, false)
	if moved.Empty() {
		return 0
	}
	accepted := v.FuelTank().Insert(moved, false)
	if rest := moved.Amount - accepted; rest > 0 {
		l.Tank.Insert(fluid.Volume{Fluid: moved.Fluid, Amount: rest}, false)
	}
	return accepted
}
