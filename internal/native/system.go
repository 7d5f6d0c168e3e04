package native

// SoundCreateFlags mirror the native library's sound-creation mode bits.
type SoundCreateFlags uint32

const (
	CreateDefault    SoundCreateFlags = 0
	CreateAccurateTime SoundCreateFlags = 1 << 0
)

// InitFlags mirror the native library's System_Init flags argument.
type InitFlags uint32

const (
	InitNormal InitFlags = 0
)

// TimeUnit selects the unit native position calls operate in. The engine
// only ever uses PCM (sample) units.
type TimeUnit int32

const (
	TimeUnitPCM TimeUnit = 0
)

// System is a handle to one native system instance. Two independent
// System instances never share a sound or channel (Design Note "Two
// independent native systems").
type System struct {
	lib *Library
	ptr uintptr
}

// SystemCreate creates a new, uninitialized native system on lib.
func SystemCreate(lib *Library) (*System, error) {
	ptr := lib.systemCreate()
	if ptr == 0 {
		return nil, Internal
	}
	return &System{lib: lib, ptr: ptr}, nil
}

// Init initializes the system with maxChannels concurrent channels and
// the given flags.
func (s *System) Init(maxChannels int, flags InitFlags) error {
	return Result(s.lib.systemInit(s.ptr, int32(maxChannels), uint32(flags))).AsError()
}

// Update pumps the native system; safe to call regardless of state.
func (s *System) Update() error {
	return Result(s.lib.systemUpdate(s.ptr)).AsError()
}

// Release tears down the native system. Idempotent at the Go layer:
// calling Release twice is a no-op the second time.
func (s *System) Release() error {
	if s.ptr == 0 {
		return nil
	}
	err := Result(s.lib.systemRelease(s.ptr)).AsError()
	s.ptr = 0
	return err
}

// SetDSPBufferSize configures the mixer's DSP buffer geometry.
func (s *System) SetDSPBufferSize(bufferLength uint32, numBuffers int) error {
	return Result(s.lib.systemSetDSPBufferSize(s.ptr, bufferLength, int32(numBuffers))).AsError()
}

// DSPBufferSize reports the current DSP buffer geometry.
func (s *System) DSPBufferSize() (bufferLength uint32, numBuffers int, err error) {
	var nb int32
	e := Result(s.lib.systemGetDSPBufferSize(s.ptr, &bufferLength, &nb)).AsError()
	return bufferLength, int(nb), e
}

// SetSoftwareFormat configures the mixer's output sample rate, speaker
// mode (channel layout), and raw speaker count.
func (s *System) SetSoftwareFormat(sampleRate int, speakerMode int, numRawSpeakers int) error {
	return Result(s.lib.systemSetSoftwareFormat(s.ptr, int32(sampleRate), int32(speakerMode), int32(numRawSpeakers))).AsError()
}

// SoftwareFormat reports the mixer's current output format.
func (s *System) SoftwareFormat() (sampleRate, speakerMode, numRawSpeakers int, err error) {
	var sr, sm, nrs int32
	e := Result(s.lib.systemGetSoftwareFormat(s.ptr, &sr, &sm, &nrs)).AsError()
	return int(sr), int(sm), int(nrs), e
}

// Version returns the native library's packed version number.
func (s *System) Version() (uint32, error) {
	var v uint32
	e := Result(s.lib.systemGetVersion(s.ptr, &v)).AsError()
	return v, e
}

// CreateSound decodes path into a new native sound object.
func (s *System) CreateSound(path string, flags SoundCreateFlags) (SoundAPI, error) {
	var ptr uintptr
	e := Result(s.lib.systemCreateSound(s.ptr, path, uint32(flags), &ptr)).AsError()
	if e != nil {
		return nil, e
	}
	return &Sound{lib: s.lib, ptr: ptr}, nil
}

// PlaySound starts (optionally paused) a channel playing sound. sound
// must have been created by this same System (callers that only hold a
// SoundAPI and created it elsewhere will fail the native call).
func (s *System) PlaySound(sound SoundAPI, paused bool) (ChannelAPI, error) {
	native, ok := sound.(*Sound)
	if !ok {
		return nil, Internal
	}
	var p int32
	if paused {
		p = 1
	}
	var ptr uintptr
	e := Result(s.lib.systemPlaySound(s.ptr, native.ptr, p, &ptr)).AsError()
	if e != nil {
		return nil, e
	}
	return &Channel{lib: s.lib, ptr: ptr}, nil
}
