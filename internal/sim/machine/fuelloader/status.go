package fuelloader

// Status is recomputed every tick from the loader's buffer, tank and
// connection; it is never stored across ticks as state of its own.
type Status uint8

const (
	StatusNotEnoughEnergy Status = iota + 1
	StatusNotEnoughFuel
	StatusNoRocket
	StatusRocketIsFull
	StatusLoading
)

// Class groups statuses the way the side panel and automation consume them.
type Class uint8

const (
	ClassWorking Class = iota + 1
	ClassMissingEnergy
	ClassMissingFluids
	ClassMissingResource
	ClassOutputFull
	ClassOther
)

var statusNames = map[Status]string{
	StatusNotEnoughEnergy: "NOT_ENOUGH_ENERGY",
	StatusNotEnoughFuel:   "NOT_ENOUGH_FUEL",
	StatusNoRocket:        "NO_ROCKET",
	StatusRocketIsFull:    "ROCKET_IS_FULL",
	StatusLoading:         "LOADING",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

func (s Status) Class() Class {
	switch s {
	case StatusLoading:
		return ClassWorking
	case StatusNotEnoughEnergy:
		return ClassMissingEnergy
	case StatusNotEnoughFuel:
		return ClassMissingFluids
	case StatusNoRocket:
		return ClassMissingResource
	case StatusRocketIsFull:
		return ClassOutputFull
	default:
		return ClassOther
	}
}

// Active reports whether the status moves fuel this tick.
func (s Status) Active() bool { return s == StatusLoading }

func (c Class) String() string {
	switch c {
	case ClassWorking:
		return "WORKING"
	case ClassMissingEnergy:
		return "MISSING_ENERGY"
	case ClassMissingFluids:
		return "MISSING_FLUIDS"
	case ClassMissingResource:
		return "MISSING_RESOURCE"
	case ClassOutputFull:
		return "OUTPUT_FULL"
	case ClassOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Statuses lists every status in priority order.
func Statuses() []Status {
	return []Status{StatusNotEnoughEnergy, StatusNotEnoughFuel, StatusNoRocket, StatusRocketIsFull, StatusLoading}
}
