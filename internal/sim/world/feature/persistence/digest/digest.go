package digest

import (
	"villagecraft.ai/internal/sim/world/io/digestcodec"
)

type Writer interface {
	Write(p []byte) (n int, err error)
}

func BoolByte(b bool) byte { return digestcodec.BoolByte(b) }

func WriteFloat(w Writer, tmp *[8]byte, f float64) { digestcodec.WriteFloat(w, tmp, f) }

func WriteSortedNonZeroIntMap(w Writer, tmp *[8]byte, m map[string]int) {
	digestcodec.WriteSortedNonZeroIntMap(w, tmp, m)
}
