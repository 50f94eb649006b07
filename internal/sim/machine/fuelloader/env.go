package fuelloader

import (
	"voxelfuel.ai/internal/sim/block"
	"voxelfuel.ai/internal/sim/fluid"
	"voxelfuel.ai/internal/sim/geom"
)

// WorldView is what a loader may see of the world during its tick.
type WorldView interface {
	BlockAt(geom.Pos) block.State
	BlockEntityAt(geom.Pos) (any, bool)
	EntityByID(id string) (any, bool)
}

// PadController is implemented by the block entity at a launch pad centre.
type PadController interface {
	DockedRocket() (string, bool)
}

// Vehicle is implemented by entities with a fuel tank the loader can fill.
type Vehicle interface {
	FuelTank() *fluid.Tank
}
