package native

// SoundType mirrors the native library's decoded-container enumeration.
type SoundType int32

const (
	SoundUnknown SoundType = iota
	SoundWAV
	SoundAIFF
	SoundMP3
	SoundOGGVorbis
	SoundFLAC
	SoundOpus
	SoundRAW
)

// SoundFormat mirrors the native library's sample format enumeration
// (only the bit depth matters to the engine).
type SoundFormat int32

// Sound is a handle to one decoded native sound object. Exclusively
// owned by whichever manager created it: the loading manager for
// playback, the bulk reader for waveform decode.
type Sound struct {
	lib *Library
	ptr uintptr
}

// Release frees the native sound. Tolerates INVALID_HANDLE as a no-op.
func (s *Sound) Release() error {
	if s.ptr == 0 {
		return nil
	}
	err := Result(s.lib.soundRelease(s.ptr)).AsError()
	s.ptr = 0
	if err == InvalidHandle {
		return nil
	}
	return err
}

// Format reports the sound's container type, sample format, channel
// count, and bits per sample.
func (s *Sound) Format() (soundType SoundType, format SoundFormat, channels int, bits int, err error) {
	var st, f, ch, b int32
	e := Result(s.lib.soundGetFormat(s.ptr, &st, &f, &ch, &b)).AsError()
	return SoundType(st), SoundFormat(f), int(ch), int(b), e
}

// Defaults reports the sound's default playback frequency (Hz) and
// scheduling priority.
func (s *Sound) Defaults() (frequency float32, priority int, err error) {
	var p int32
	e := Result(s.lib.soundGetDefaults(s.ptr, &frequency, &p)).AsError()
	return frequency, int(p), e
}

// LengthFrames reports the total PCM frame count.
func (s *Sound) LengthFrames() (uint32, error) {
	var length uint32
	e := Result(s.lib.soundGetLength(s.ptr, &length, int32(TimeUnitPCM))).AsError()
	return length, e
}

// LockedRegion is one of (up to two) contiguous buffers the native
// library hands back from Lock, wrapping its internal decode buffer.
// Interpretation (sample format, channel interleaving) is the caller's
// responsibility; the bulk reader normalizes it into []float64.
type LockedRegion struct {
	Ptr uintptr
	Len uint32
}

// Lock exposes [offset, offset+length) raw PCM bytes for reading. The
// native library may split the region in two (ring-buffer wraparound),
// hence two returned regions; the second is zero-length when unused.
func (s *Sound) Lock(offset, length uint32) (a, b LockedRegion, err error) {
	var p1, p2 uintptr
	var l1, l2 uint32
	e := Result(s.lib.soundLock(s.ptr, offset, length, &p1, &p2, &l1, &l2)).AsError()
	return LockedRegion{p1, l1}, LockedRegion{p2, l2}, e
}

// Unlock returns a previously locked region to the native library.
func (s *Sound) Unlock(a, b LockedRegion) error {
	return Result(s.lib.soundUnlock(s.ptr, a.Ptr, b.Ptr, a.Len, b.Len)).AsError()
}
