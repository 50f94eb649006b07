package geom

import (
	"fmt"
	"strings"
)

type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

var directionNames = [...]string{"DOWN", "UP", "NORTH", "SOUTH", "WEST", "EAST"}

var directionVecs = [...]Pos{
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
}

func Directions() []Direction { return []Direction{Down, Up, North, South, West, East} }

func (d Direction) Valid() bool { return int(d) < len(directionNames) }

func (d Direction) Vec() Pos {
	if !d.Valid() {
		return Pos{}
	}
	return directionVecs[d]
}

func (d Direction) Opposite() Direction { return d ^ 1 }

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}
