package protocol

// Error codes carried in ERROR frames. Codes prefixed E_PROTO_ reject the
// frame itself; the rest reject a well-formed command.
const (
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	ErrWorldBusy = "E_WORLD_BUSY"

	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNotFound      = "E_NOT_FOUND"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrConflict      = "E_CONFLICT"
	ErrInternal      = "E_INTERNAL"
)

type codeInfo struct {
	retryable bool
}

var codes = map[string]codeInfo{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {retryable: true},
	ErrBadRequest:      {},
	ErrNotFound:        {},
	ErrInvalidTarget:   {},
	ErrConflict:        {retryable: true},
	ErrInternal:        {},
}

// IsKnownCode accepts the empty code, which ACK frames carry.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := codes[code]
	return ok
}

// Retryable reports whether resending the same command later may succeed.
func Retryable(code string) bool {
	return codes[code].retryable
}
