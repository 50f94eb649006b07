package fluid

// Tank holds a single fluid type up to Capacity.
type Tank struct {
	Capacity Amount
	Volume   Volume
}

func NewTank(capacity Amount) *Tank { return &Tank{Capacity: capacity} }

func (t *Tank) Amount() Amount {
	if t.Volume.Empty() {
		return 0
	}
	return t.Volume.Amount
}

func (t *Tank) Fluid() string {
	if t.Volume.Empty() {
		return ""
	}
	return t.Volume.Fluid
}

func (t *Tank) Space() Amount {
	s := t.Capacity - t.Amount()
	if s < 0 {
		return 0
	}
	return s
}

func (t *Tank) Full() bool { return t.Amount() >= t.Capacity }

// Accepts reports whether fluid could be merged into the current contents.
func (t *Tank) Accepts(fluid string) bool {
	return fluid != "" && (t.Volume.Empty() || t.Volume.Fluid == fluid)
}

// Insert merges v into the tank and returns the amount accepted.
func (t *Tank) Insert(v Volume, simulate bool) Amount {
	if v.Empty() || !t.Accepts(v.Fluid) {
		return 0
	}
	n := minAmount(v.Amount, t.Space())
	if n <= 0 || simulate {
		return n
	}
	t.Volume = Volume{Fluid: v.Fluid, Amount: t.Amount() + n}
	return n
}

// Extract removes up to max droplets of a fluid accepted by filter.
func (t *Tank) Extract(filter Filter, max Amount, simulate bool) Volume {
	if t.Volume.Empty() || max <= 0 {
		return Volume{}
	}
	if filter != nil && !filter(t.Volume.Fluid) {
		return Volume{}
	}
	out := Volume{Fluid: t.Volume.Fluid, Amount: minAmount(max, t.Volume.Amount)}
	if simulate {
		return out
	}
	t.Volume.Amount -= out.Amount
	if t.Volume.Amount <= 0 {
		t.Volume = Volume{}
	}
	return out
}
