package world

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"voxelfuel.ai/internal/persistence/snapshot"
	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/catalogs"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
	"voxelfuel.ai/internal/sim/launchpad"
	"voxelfuel.ai/internal/sim/machine/fuelloader"
	"voxelfuel.ai/internal/sim/tuning"
)

var (
	ErrNoLoader     = errors.New("no fuel loader at position")
	ErrOccupied     = errors.New("position occupied")
	ErrUnknownBlock = errors.New("unknown block")
	ErrUnknownItem  = errors.New("unknown item")
	ErrNoRocket     = errors.New("no such rocket")
	ErrNoPad        = errors.New("no formed launch pad at position")
)

type Config struct {
	ID                  string
	TickRateHz          int
	SnapshotEveryTicks  int
	PanelFullEveryTicks int

	Loader             fuelloader.Params
	RocketTankCapacity fluid.Amount
}

// ConfigFromTuning maps tuning values onto a world config; fuel is matched by
// tag membership in the fluid catalog.
func ConfigFromTuning(id string, t tuning.Tuning, cats *catalogs.Catalogs) Config {
	tags := fluid.NewTags()
	if cats != nil {
		for _, d := range cats.Fluids.Defs {
			for _, tag := range d.Tags {
				tags.Add(tag, d.ID)
			}
		}
	}
	fl := t.FuelLoader
	return Config{
		ID:                  id,
		TickRateHz:          t.TickRateHz,
		SnapshotEveryTicks:  t.SnapshotEveryTicks,
		PanelFullEveryTicks: t.PanelFullEveryTicks,
		Loader: fuelloader.Params{
			EnergyCapacity: fl.EnergyCapacity,
			EnergyPerTick:  fl.EnergyPerTick,
			ChargeRate:     fl.ChargeRate,
			TankCapacity:   fluid.Amount(fl.TankCapacity),
			IntakeRate:     fluid.Amount(fl.IntakePerTick),
			DeliveryRate:   fluid.Amount(fl.DeliveryPerTick),
			Fuel:           tags.Filter(fl.FuelTag),
		},
		RocketTankCapacity: fluid.Amount(t.Rocket.TankCapacity),
	}
}

// World owns every block, machine and rocket. All mutation happens on the
// goroutine running Run (or the caller of StepOnce when Run is not used).
type World struct {
	cfg  Config
	cats *catalogs.Catalogs
	log  zerolog.Logger

	tick atomic.Uint64

	blocks  map[geom.Pos]block.State
	loaders map[geom.Pos]*fuelloader.Loader
	pads    map[geom.Pos]*launchpad.Controller
	rockets map[string]*launchpad.Rocket

	lastStatus map[geom.Pos]fuelloader.Status

	tickLogger   TickLogger
	statusLogger StatusLogger
	snapshotSink chan<- snapshot.SnapshotV1

	inbox    chan commandEnvelope
	join     chan JoinRequest
	leave    chan string
	snapReq  chan chan snapshotResult
	stop     chan struct{}
	stopOnce sync.Once

	sessions map[string]*panelSession

	deliveredTotal int64
	intakeTotal    int64

	metrics *Metrics
}

func New(cfg Config, cats *catalogs.Catalogs) (*World, error) {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if cfg.PanelFullEveryTicks <= 0 {
		cfg.PanelFullEveryTicks = 100
	}
	if cfg.Loader.Fuel == nil {
		cfg.Loader.Fuel = fuelloader.DefaultParams().Fuel
	}
	if cfg.Loader.TankCapacity <= 0 {
		return nil, errors.New("loader tank capacity must be positive")
	}
	if cfg.RocketTankCapacity <= 0 {
		return nil, errors.New("rocket tank capacity must be positive")
	}
	if cats == nil {
		return nil, errors.New("nil catalogs")
	}
	m, err := NewMetrics()
	if err != nil {
		return nil, err
	}
	w := &World{
		cfg:         cfg,
		cats:        cats,
		log:         zerolog.Nop(),
		blocks:      map[geom.Pos]block.State{},
		loaders:     map[geom.Pos]*fuelloader.Loader{},
		pads:        map[geom.Pos]*launchpad.Controller{},
		rockets:     map[string]*launchpad.Rocket{},
		lastStatus:  map[geom.Pos]fuelloader.Status{},
		inbox:       make(chan commandEnvelope, 1024),
		join:        make(chan JoinRequest, 64),
		leave:       make(chan string, 64),
		snapReq:     make(chan chan snapshotResult, 16),
		stop:        make(chan struct{}),
		sessions:    map[string]*panelSession{},
		metrics:     m,
	}
	return w, nil
}

func (w *World) SetLogger(l zerolog.Logger)                    { w.log = l.With().Str("world", w.cfg.ID).Logger() }
func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetStatusLogger(l StatusLogger)                { w.statusLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) ID() string          { return w.cfg.ID }
func (w *World) TickRateHz() int     { return w.cfg.TickRateHz }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) Config() Config      { return w.cfg }

// BlockAt, BlockEntityAt and EntityByID make the world a fuelloader.WorldView.

func (w *World) BlockAt(p geom.Pos) block.State {
	if s, ok := w.blocks[p]; ok {
		return s
	}
	return block.Of(block.Air)
}

func (w *World) SetBlock(p geom.Pos, s block.State) {
	if s.IsAir() {
		delete(w.blocks, p)
		return
	}
	w.blocks[p] = s
}

func (w *World) BlockEntityAt(p geom.Pos) (any, bool) {
	if l, ok := w.loaders[p]; ok {
		return l, true
	}
	if c, ok := w.pads[p]; ok {
		return c, true
	}
	return nil, false
}

func (w *World) EntityByID(id string) (any, bool) {
	r, ok := w.rockets[id]
	if !ok {
		return nil, false
	}
	return r, true
}

func (w *World) Loader(p geom.Pos) (*fuelloader.Loader, bool) {
	l, ok := w.loaders[p]
	return l, ok
}

func (w *World) Rocket(id string) (*launchpad.Rocket, bool) {
	r, ok := w.rockets[id]
	return r, ok
}

func (w *World) Pad(center geom.Pos) (*launchpad.Controller, bool) {
	c, ok := w.pads[center]
	return c, ok
}

func (w *World) loaderPositions() []geom.Pos {
	out := make([]geom.Pos, 0, len(w.loaders))
	for p := range w.loaders {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return geom.Less(out[i], out[j]) })
	return out
}

// LoaderState renders the panel view of the loader at p.
func (w *World) LoaderState(p geom.Pos) (protocol.LoaderState, bool) {
	l, ok := w.loaders[p]
	if !ok {
		return protocol.LoaderState{}, false
	}
	st := protocol.LoaderState{
		Pos:            p.ToArray(),
		Status:         l.Status().String(),
		Class:          l.Status().Class().String(),
		Energy:         l.Energy.Stored,
		EnergyCapacity: l.Energy.Capacity,
		Fluid:          l.Tank.Fluid(),
		Fuel:           int64(l.Tank.Amount()),
		FuelCapacity:   int64(l.Tank.Capacity),
	}
	for i := 0; i < len(st.Slots); i++ {
		if s := l.Inventory.Get(i); s != nil {
			st.Slots[i] = s.ItemID()
		}
	}
	if c, ok := l.Connection(); ok {
		a := c.ToArray()
		st.Connection = &a
		if pad, ok := w.pads[c]; ok {
			if id, ok := pad.DockedRocket(); ok {
				st.Rocket = id
				if r, ok := w.rockets[id]; ok {
					st.RocketFuel = int64(r.Tank.Amount())
					st.RocketCapacity = int64(r.Tank.Capacity)
				}
			}
		}
	}
	return st, true
}

func (w *World) LoaderStates() []protocol.LoaderState {
	ps := w.loaderPositions()
	out := make([]protocol.LoaderState, 0, len(ps))
	for _, p := range ps {
		st, _ := w.LoaderState(p)
		out = append(out, st)
	}
	return out
}
