package protocol

// Codes carried by ACTION_RESULT and TASK_FAIL.
const (
	// Rejected by the transport before reaching the world.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrWorldBusy       = "E_WORLD_BUSY"

	// Order validation and chain outcomes.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrConflict      = "E_CONFLICT"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrConflict:        {},
	ErrNoResource:      {},
	ErrInternal:        {},
}

// IsKnownCode reports whether code may appear on the wire. The empty code
// (accepted orders) is known.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
