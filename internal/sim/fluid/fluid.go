package fluid

import "sort"

// Amount is a fluid quantity in droplets.
type Amount int64

const Bucket Amount = 81000

type Volume struct {
	Fluid  string
	Amount Amount
}

func (v Volume) Empty() bool { return v.Fluid == "" || v.Amount <= 0 }

// Filter decides whether a fluid id may be moved.
type Filter func(fluid string) bool

func Any(string) bool { return true }

// Source is implemented by items that can give up fluid.
type Source interface {
	ExtractFluid(filter Filter, max Amount, simulate bool) Volume
}

// Tags maps a tag name to the fluids carrying it.
type Tags map[string]map[string]struct{}

func NewTags() Tags { return Tags{} }

func (t Tags) Add(tag, fluid string) {
	if tag == "" || fluid == "" {
		return
	}
	m := t[tag]
	if m == nil {
		m = map[string]struct{}{}
		t[tag] = m
	}
	m[fluid] = struct{}{}
}

func (t Tags) Has(tag, fluid string) bool {
	_, ok := t[tag][fluid]
	return ok
}

func (t Tags) Filter(tag string) Filter {
	return func(fluid string) bool { return t.Has(tag, fluid) }
}

func (t Tags) Members(tag string) []string {
	out := make([]string, 0, len(t[tag]))
	for f := range t[tag] {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func minAmount(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}
