package bulkreader

import (
	"encoding/binary"
	"unsafe"

	"github.com/shaban/audioengine/internal/native"
)

// bytesFromRegion views a native-owned LockedRegion as a Go byte
// slice without copying. The slice is only valid until the
// corresponding Unlock call; callers must finish reading before
// unlocking.
func bytesFromRegion(r native.LockedRegion) []byte {
	if r.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(r.Ptr)), int(r.Len))
}

// normalizeSamples converts raw little-endian PCM bytes at the given
// bit depth into normalized float64 samples in [-1.0, 1.0].
func normalizeSamples(raw []byte, bits int) []float64 {
	switch bits {
	case 8:
		out := make([]float64, len(raw))
		for i, b := range raw {
			out[i] = (float64(b) - 128) / 128
		}
		return out
	case 16:
		n := len(raw) / 2
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			out[i] = float64(v) / 32768
		}
		return out
	case 24:
		n := len(raw) / 3
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			v := int32(raw[i*3]) | int32(raw[i*3+1])<<8 | int32(raw[i*3+2])<<16
			if v&0x800000 != 0 {
				v -= 0x1000000
			}
			out[i] = float64(v) / 8388608
		}
		return out
	case 32:
		n := len(raw) / 4
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			v := int32(binary.LittleEndian.Uint32(raw[i*4:]))
			out[i] = float64(v) / 2147483648
		}
		return out
	default:
		return nil
	}
}

func bytesPerFrame(channels, bits int) int {
	return channels * (bits / 8)
}
