package block

const Air = "AIR"

// State is a block id plus an optional variant (e.g. a launch pad part).
type State struct {
	ID      string
	Variant string
}

func Of(id string) State { return State{ID: id} }

func (s State) IsAir() bool { return s.ID == "" || s.ID == Air }

func (s State) With(variant string) State { return State{ID: s.ID, Variant: variant} }

func (s State) String() string {
	if s.Variant == "" {
		return s.ID
	}
	return s.ID + "[" + s.Variant + "]"
}
