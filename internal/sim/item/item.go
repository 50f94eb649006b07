package item

import (
	"fmt"

	"voxelfuel.ai/internal/sim/catalogs"
	"voxelfuel.ai/internal/sim/fluid"
)

// Stack is an opaque inventory entry. Machines probe it for capabilities
// (energy.Source, fluid.Source) instead of switching on concrete types.
type Stack interface {
	ItemID() string
	Count() int
}

type Plain struct {
	ID string
	N  int
}

func (p *Plain) ItemID() string { return p.ID }
func (p *Plain) Count() int     { return p.N }

// Battery is a single chargeable cell.
type Battery struct {
	ID       string
	Charge   int64
	Capacity int64
}

func (b *Battery) ItemID() string { return b.ID }
func (b *Battery) Count() int     { return 1 }

func (b *Battery) ExtractEnergy(max int64, simulate bool) int64 {
	if max <= 0 || b.Charge <= 0 {
		return 0
	}
	n := max
	if b.Charge < n {
		n = b.Charge
	}
	if !simulate {
		b.Charge -= n
	}
	return n
}

// Canister carries a single fluid.
type Canister struct {
	ID   string
	Tank fluid.Tank
}

func (c *Canister) ItemID() string { return c.ID }
func (c *Canister) Count() int     { return 1 }

func (c *Canister) ExtractFluid(filter fluid.Filter, max fluid.Amount, simulate bool) fluid.Volume {
	return c.Tank.Extract(filter, max, simulate)
}

// New builds a stack from its catalog definition. charge and contents are
// clamped to the definition's capacity.
func New(def catalogs.ItemDef, count int, charge int64, contents fluid.Volume) (Stack, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("item: empty id")
	}
	switch def.Kind {
	case "BATTERY":
		if charge < 0 {
			charge = 0
		}
		if charge > def.EnergyCapacity {
			charge = def.EnergyCapacity
		}
		return &Battery{ID: def.ID, Charge: charge, Capacity: def.EnergyCapacity}, nil
	case "CANISTER":
		c := &Canister{ID: def.ID, Tank: fluid.Tank{Capacity: fluid.Amount(def.FluidCapacity)}}
		c.Tank.Insert(contents, false)
		return c, nil
	default:
		if count <= 0 {
			return nil, fmt.Errorf("item %s: count must be positive", def.ID)
		}
		if def.MaxStack > 0 && count > def.MaxStack {
			count = def.MaxStack
		}
		return &Plain{ID: def.ID, N: count}, nil
	}
}
