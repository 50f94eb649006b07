package geom

import "fmt"

type Pos struct {
	X int
	Y int
	Z int
}

func (p Pos) Add(o Pos) Pos { return Pos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z} }

func (p Pos) Offset(d Direction) Pos { return p.Add(d.Vec()) }

func (p Pos) ToArray() [3]int { return [3]int{p.X, p.Y, p.Z} }

func FromArray(a [3]int) Pos { return Pos{X: a[0], Y: a[1], Z: a[2]} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

// Less orders positions by X, then Y, then Z. Tick order depends on it.
func Less(a, b Pos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// Packed layout: 26 bits X | 26 bits Z | 12 bits Y, most significant first.
const (
	packBitsXZ = 26
	packBitsY  = 12
	packMaskXZ = 1<<packBitsXZ - 1
	packMaskY  = 1<<packBitsY - 1
	packShiftZ = packBitsY
	packShiftX = packBitsY + packBitsXZ
)

func (p Pos) Pack() int64 {
	var v uint64
	v |= (uint64(int64(p.X)) & packMaskXZ) << packShiftX
	v |= (uint64(int64(p.Z)) & packMaskXZ) << packShiftZ
	v |= uint64(int64(p.Y)) & packMaskY
	return int64(v)
}

func Unpack(v int64) Pos {
	return Pos{
		X: int(v << (64 - packShiftX - packBitsXZ) >> (64 - packBitsXZ)),
		Y: int(v << (64 - packBitsY) >> (64 - packBitsY)),
		Z: int(v << (64 - packShiftZ - packBitsXZ) >> (64 - packBitsXZ)),
	}
}

// InPackRange reports whether p survives Pack/Unpack unchanged.
func InPackRange(p Pos) bool {
	const maxXZ, maxY = 1 << (packBitsXZ - 1), 1 << (packBitsY - 1)
	return p.X >= -maxXZ && p.X < maxXZ &&
		p.Z >= -maxXZ && p.Z < maxXZ &&
		p.Y >= -maxY && p.Y < maxY
}
