package launchpad

import (
	"errors"

	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
)

var ErrOccupied = errors.New("launch pad already has a docked rocket")

// Controller is the block entity at a pad's centre cell.
type Controller struct {
	Pos    geom.Pos
	rocket string
}

func NewController(pos geom.Pos) *Controller { return &Controller{Pos: pos} }

func (c *Controller) DockedRocket() (string, bool) { return c.rocket, c.rocket != "" }

func (c *Controller) Dock(rocketID string) error {
	if c.rocket != "" && c.rocket != rocketID {
		return ErrOccupied
	}
	c.rocket = rocketID
	return nil
}

func (c *Controller) Undock() string {
	id := c.rocket
	c.rocket = ""
	return id
}

type Rocket struct {
	ID   string
	Pad  *geom.Pos
	Tank *fluid.Tank
}

func NewRocket(id string, capacity fluid.Amount) *Rocket {
	return &Rocket{ID: id, Tank: fluid.NewTank(capacity)}
}

func (r *Rocket) FuelTank() *fluid.Tank { return r.Tank }
