// Package protocol defines the JSON frames exchanged with panel clients.
package protocol

import "encoding/json"

// Version is echoed in every frame; clients sending another value are refused.
const Version = "1.0"

const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeStatus  = "STATUS"
	TypeCmd     = "CMD"
	TypeAck     = "ACK"
	TypeError   = "ERROR"
)

const (
	ActionRecheckConnection = "RECHECK_CONNECTION"
	ActionSetConnection     = "SET_CONNECTION"
	ActionClearConnection   = "CLEAR_CONNECTION"
	ActionInsertItem        = "INSERT_ITEM"
	ActionTakeItem          = "TAKE_ITEM"
)

// Envelope holds the two fields every frame shares. Decoding only these lets
// a reader pick the concrete message type before a full unmarshal.
type Envelope struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func (e Envelope) Compatible() bool { return e.ProtocolVersion == Version }

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
