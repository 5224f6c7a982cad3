package digestcodec

import (
	"encoding/binary"
	"math"
)

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// WriteFloat encodes the IEEE bits so any drift in a position or a progress
// counter changes the digest.
func WriteFloat(w mapWriter, tmp *[8]byte, f float64) {
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
	w.Write(tmp[:])
}
