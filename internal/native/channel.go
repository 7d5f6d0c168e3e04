package native

// Channel is a handle to one active native playback channel. At most
// one is ever live per System in this engine's usage, though the
// native library itself supports many.
type Channel struct {
	lib *Library
	ptr uintptr
}

// Stop halts playback. Tolerates INVALID_HANDLE as a no-op.
func (c *Channel) Stop() error {
	err := Result(c.lib.channelStop(c.ptr)).AsError()
	if err == InvalidHandle {
		return nil
	}
	return err
}

// SetPaused toggles the paused flag.
func (c *Channel) SetPaused(paused bool) error {
	var p int32
	if paused {
		p = 1
	}
	return Result(c.lib.channelSetPaused(c.ptr, p)).AsError()
}

// Paused reports the current paused flag.
func (c *Channel) Paused() (bool, error) {
	var p int32
	e := Result(c.lib.channelGetPaused(c.ptr, &p)).AsError()
	return p != 0, e
}

// SetPosition seeks to the given PCM frame. INVALID_POSITION is
// returned verbatim; callers that want "native clamps, suppress"
// behavior check for it explicitly.
func (c *Channel) SetPosition(frame uint32) error {
	return Result(c.lib.channelSetPosition(c.ptr, frame, int32(TimeUnitPCM))).AsError()
}

// Position reports the current decoded PCM frame.
func (c *Channel) Position() (uint32, error) {
	var pos uint32
	e := Result(c.lib.channelGetPosition(c.ptr, &pos, int32(TimeUnitPCM))).AsError()
	return pos, e
}

// IsPlaying reports whether the channel is actively mixing (false once
// it has stopped naturally or been stolen).
func (c *Channel) IsPlaying() (bool, error) {
	var p int32
	e := Result(c.lib.channelIsPlaying(c.ptr, &p)).AsError()
	return p != 0, e
}
