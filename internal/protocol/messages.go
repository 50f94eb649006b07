package protocol

type HelloMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ClientName      string       `json:"client_name"`
	Capabilities    Capabilities `json:"capabilities"`
}

type Capabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	SessionID       string        `json:"session_id"`
	WorldID         string        `json:"world_id"`
	Tick            uint64        `json:"tick"`
	TickRateHz      int           `json:"tick_rate_hz"`
	Loaders         []LoaderState `json:"loaders"`
}

// StatusMsg carries loader panels. Full frames list every loader; other
// frames only the loaders whose status or connection changed.
type StatusMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            uint64        `json:"tick"`
	Full            bool          `json:"full"`
	Loaders         []LoaderState `json:"loaders"`
}

type LoaderState struct {
	Pos            [3]int    `json:"pos"`
	Status         string    `json:"status"`
	Class          string    `json:"class"`
	Energy         int64     `json:"energy"`
	EnergyCapacity int64     `json:"energy_capacity"`
	Fluid          string    `json:"fluid,omitempty"`
	Fuel           int64     `json:"fuel"`
	FuelCapacity   int64     `json:"fuel_capacity"`
	Connection     *[3]int   `json:"connection,omitempty"`
	Rocket         string    `json:"rocket,omitempty"`
	RocketFuel     int64     `json:"rocket_fuel,omitempty"`
	RocketCapacity int64     `json:"rocket_capacity,omitempty"`
	Slots          [2]string `json:"slots"`
}

type CmdMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ID              string    `json:"id"`
	Action          string    `json:"action"`
	Pos             [3]int    `json:"pos"`
	Direction       string    `json:"direction,omitempty"`
	Target          *[3]int   `json:"target,omitempty"`
	Slot            int       `json:"slot"`
	Item            *ItemSpec `json:"item,omitempty"`
}

type ItemSpec struct {
	Item   string `json:"item"`
	Count  int    `json:"count,omitempty"`
	Charge int64  `json:"charge,omitempty"`
	Fluid  string `json:"fluid,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

type AckMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ID              string    `json:"id"`
	Tick            uint64    `json:"tick"`
	Item            *ItemSpec `json:"item,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(id, code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, ID: id, Code: code, Message: msg}
}
