package geom

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []Pos{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: -1, Y: -1, Z: -1},
		{X: 33554431, Y: 2047, Z: 33554431},
		{X: -33554432, Y: -2048, Z: -33554432},
		{X: 120, Y: 64, Z: -7},
	}
	for _, p := range cases {
		if !InPackRange(p) {
			t.Fatalf("%v should be in pack range", p)
		}
		if got := Unpack(p.Pack()); got != p {
			t.Fatalf("Unpack(Pack(%v))=%v", p, got)
		}
	}
}

func TestPackDistinct(t *testing.T) {
	a := Pos{X: 1, Y: 0, Z: 0}.Pack()
	b := Pos{X: 0, Y: 1, Z: 0}.Pack()
	c := Pos{X: 0, Y: 0, Z: 1}.Pack()
	if a == b || b == c || a == c {
		t.Fatalf("packed axes collide: %d %d %d", a, b, c)
	}
}

func TestInPackRange(t *testing.T) {
	if InPackRange(Pos{Y: 2048}) {
		t.Fatalf("y=2048 must be out of range")
	}
	if InPackRange(Pos{X: 1 << 25}) {
		t.Fatalf("x=2^25 must be out of range")
	}
}

func TestDirections(t *testing.T) {
	for _, d := range Directions() {
		if d.Opposite().Opposite() != d {
			t.Fatalf("%v opposite not involutive", d)
		}
		if got := d.Vec().Add(d.Opposite().Vec()); got != (Pos{}) {
			t.Fatalf("%v + opposite = %v", d, got)
		}
		parsed, err := ParseDirection(d.String())
		if err != nil || parsed != d {
			t.Fatalf("ParseDirection(%q)=%v,%v", d.String(), parsed, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error")
	}
	if got := (Pos{X: 1, Y: 1, Z: 1}).Offset(North); got != (Pos{X: 1, Y: 1, Z: 0}) {
		t.Fatalf("north offset=%v", got)
	}
}
