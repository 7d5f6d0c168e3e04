package nativesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/audioengine/internal/native"
)

// fakeSystem is a minimal native.SystemAPI double used to exercise
// Manager without a real dynamic library.
type fakeSystem struct {
	released       bool
	bufferLength   uint32
	numBuffers     int
	sampleRate     int
	speakerMode    int
	rawSpeakers    int
	initErr        error
	dspErr         error
	formatErr      error
}

func (f *fakeSystem) Init(maxChannels int, flags native.InitFlags) error { return f.initErr }
func (f *fakeSystem) Update() error                                     { return nil }
func (f *fakeSystem) Release() error                                    { f.released = true; return nil }
func (f *fakeSystem) SetDSPBufferSize(bufferLength uint32, numBuffers int) error {
	if f.dspErr != nil {
		return f.dspErr
	}
	f.bufferLength, f.numBuffers = bufferLength, numBuffers
	return nil
}
func (f *fakeSystem) DSPBufferSize() (uint32, int, error) { return f.bufferLength, f.numBuffers, nil }
func (f *fakeSystem) SetSoftwareFormat(sampleRate, speakerMode, numRawSpeakers int) error {
	if f.formatErr != nil {
		return f.formatErr
	}
	f.sampleRate, f.speakerMode, f.rawSpeakers = sampleRate, speakerMode, numRawSpeakers
	return nil
}
func (f *fakeSystem) SoftwareFormat() (int, int, int, error) {
	return f.sampleRate, f.speakerMode, f.rawSpeakers, nil
}
func (f *fakeSystem) Version() (uint32, error) { return 0x00010203, nil }
func (f *fakeSystem) CreateSound(path string, flags native.SoundCreateFlags) (native.SoundAPI, error) {
	return nil, nil
}
func (f *fakeSystem) PlaySound(sound native.SoundAPI, paused bool) (native.ChannelAPI, error) {
	return nil, nil
}

func fakeFactory(sys *fakeSystem) Factory {
	return func(cfg native.Config) (*native.Library, native.SystemAPI, error) {
		return nil, sys, nil
	}
}

func TestManager_Initialize_ConfiguresBufferAndFormat(t *testing.T) {
	sys := &fakeSystem{}
	m := NewManager(fakeFactory(sys), nil)

	require.NoError(t, m.Initialize(native.Config{}))
	assert.True(t, m.IsInitialized())

	length, count, ok := m.DSPBuffer()
	assert.True(t, ok)
	assert.EqualValues(t, DSPBufferLength, length)
	assert.Equal(t, DSPBufferCount, count)

	sr, ok := m.OutputSampleRate()
	assert.True(t, ok)
	assert.Equal(t, 48000, sr)
}

func TestManager_Initialize_RejectsDoubleInit(t *testing.T) {
	sys := &fakeSystem{}
	m := NewManager(fakeFactory(sys), nil)
	require.NoError(t, m.Initialize(native.Config{}))
	assert.Error(t, m.Initialize(native.Config{}))
}

func TestManager_Shutdown_IsIdempotent(t *testing.T) {
	sys := &fakeSystem{}
	m := NewManager(fakeFactory(sys), nil)
	require.NoError(t, m.Initialize(native.Config{}))

	require.NoError(t, m.Shutdown())
	assert.True(t, sys.released)
	assert.False(t, m.IsInitialized())

	require.NoError(t, m.Shutdown())
}

func TestManager_Update_NoopBeforeInitialize(t *testing.T) {
	m := NewManager(fakeFactory(&fakeSystem{}), nil)
	assert.NoError(t, m.Update())
}

func TestManager_InfoAccessors_EmptyBeforeInitialize(t *testing.T) {
	m := NewManager(fakeFactory(&fakeSystem{}), nil)
	assert.Equal(t, "", m.VersionInfo())
	assert.Equal(t, "", m.BufferInfo())
	assert.Equal(t, "", m.FormatInfo())
}

func TestManager_InfoAccessors_PopulatedAfterInitialize(t *testing.T) {
	sys := &fakeSystem{}
	m := NewManager(fakeFactory(sys), nil)
	require.NoError(t, m.Initialize(native.Config{}))

	assert.Equal(t, "1.2.3", m.VersionInfo())
	assert.Equal(t, "256x4", m.BufferInfo())
	assert.Contains(t, m.FormatInfo(), "48000Hz")
}
