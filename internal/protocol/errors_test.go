package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, c := range []string{"", ErrProtoBadRequest, ErrWorldBusy, ErrBadRequest, ErrInvalidTarget, ErrConflict, ErrNoResource, ErrInternal} {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	for _, c := range []string{"E_WORLD_NOT_FOUND", "E_BLOCKED", "e_bad_request"} {
		if IsKnownCode(c) {
			t.Fatalf("unexpected known code: %q", c)
		}
	}
}
