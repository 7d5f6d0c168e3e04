package native

// SystemAPI is the subset of System's behavior the engine's managers
// depend on. Extracted as an interface so the native system manager
// and bulk reader can be exercised against a fake without a real
// native library loaded.
type SystemAPI interface {
	Init(maxChannels int, flags InitFlags) error
	Update() error
	Release() error
	SetDSPBufferSize(bufferLength uint32, numBuffers int) error
	DSPBufferSize() (bufferLength uint32, numBuffers int, err error)
	SetSoftwareFormat(sampleRate, speakerMode, numRawSpeakers int) error
	SoftwareFormat() (sampleRate, speakerMode, numRawSpeakers int, err error)
	Version() (uint32, error)
	CreateSound(path string, flags SoundCreateFlags) (SoundAPI, error)
	PlaySound(sound SoundAPI, paused bool) (ChannelAPI, error)
}

// SoundAPI is the subset of Sound's behavior the engine depends on.
type SoundAPI interface {
	Release() error
	Format() (soundType SoundType, format SoundFormat, channels int, bits int, err error)
	Defaults() (frequency float32, priority int, err error)
	LengthFrames() (uint32, error)
	Lock(offset, length uint32) (a, b LockedRegion, err error)
	Unlock(a, b LockedRegion) error
}

// ChannelAPI is the subset of Channel's behavior the engine depends on.
type ChannelAPI interface {
	Stop() error
	SetPaused(paused bool) error
	Paused() (bool, error)
	SetPosition(frame uint32) error
	Position() (uint32, error)
	IsPlaying() (bool, error)
}

var (
	_ SystemAPI  = (*System)(nil)
	_ SoundAPI   = (*Sound)(nil)
	_ ChannelAPI = (*Channel)(nil)
)
