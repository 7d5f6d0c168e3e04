package bulkreader

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/audioengine/internal/native"
)

// fakeSound backs a fixed 16-bit mono PCM buffer so decode tests don't
// need a real native library.
type fakeSound struct {
	raw        []byte
	frames     uint32
	channels   int
	bits       int
	sampleRate float32
}

func (s *fakeSound) Release() error { return nil }
func (s *fakeSound) Format() (native.SoundType, native.SoundFormat, int, int, error) {
	return native.SoundWAV, 0, s.channels, s.bits, nil
}
func (s *fakeSound) Defaults() (float32, int, error) { return s.sampleRate, 0, nil }
func (s *fakeSound) LengthFrames() (uint32, error)   { return s.frames, nil }
func (s *fakeSound) Lock(offset, length uint32) (native.LockedRegion, native.LockedRegion, error) {
	return native.LockedRegion{Ptr: uintptr(unsafe.Pointer(&s.raw[0])), Len: uint32(len(s.raw))}, native.LockedRegion{}, nil
}
func (s *fakeSound) Unlock(native.LockedRegion, native.LockedRegion) error { return nil }

type fakeSystem struct {
	sounds map[string]*fakeSound
}

func (f *fakeSystem) Init(int, native.InitFlags) error                      { return nil }
func (f *fakeSystem) Update() error                                        { return nil }
func (f *fakeSystem) Release() error                                       { return nil }
func (f *fakeSystem) SetDSPBufferSize(uint32, int) error                   { return nil }
func (f *fakeSystem) DSPBufferSize() (uint32, int, error)                  { return 0, 0, nil }
func (f *fakeSystem) SetSoftwareFormat(int, int, int) error                { return nil }
func (f *fakeSystem) SoftwareFormat() (int, int, int, error)               { return 0, 0, 0, nil }
func (f *fakeSystem) Version() (uint32, error)                             { return 0, nil }
func (f *fakeSystem) PlaySound(native.SoundAPI, bool) (native.ChannelAPI, error) {
	return nil, native.Internal
}
func (f *fakeSystem) CreateSound(path string, _ native.SoundCreateFlags) (native.SoundAPI, error) {
	s, ok := f.sounds[path]
	if !ok {
		return nil, native.FileNotFound
	}
	return s, nil
}

func pcm16Mono(values []int16, sampleRate float32) *fakeSound {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return &fakeSound{raw: buf, frames: uint32(len(values)), channels: 1, bits: 16, sampleRate: sampleRate}
}

func newTestReader(t *testing.T, sounds map[string]*fakeSound) *Reader {
	t.Helper()
	sys := &fakeSystem{sounds: sounds}
	factory := func(cfg native.Config) (*native.Library, native.SystemAPI, error) {
		return nil, sys, nil
	}
	r, err := NewReader(native.Config{}, factory, nil)
	require.NoError(t, err)
	return r
}

func TestReader_ReadRange_DecodesAndNormalizes(t *testing.T) {
	path := "a.wav"
	sound := pcm16Mono([]int16{0, 16384, -32768, 32767}, 44100)
	r := newTestReader(t, map[string]*fakeSound{path: sound})

	data, err := r.ReadRange(path, 0, 4).Wait()
	require.NoError(t, err)
	assert.Equal(t, 44100, data.SampleRate)
	assert.Equal(t, 1, data.ChannelCount)
	assert.Equal(t, uint32(4), data.FrameCount)
	require.Len(t, data.Samples, 4)
	assert.InDelta(t, 0, data.Samples[0], 0.001)
	assert.InDelta(t, 0.5, data.Samples[1], 0.001)
	assert.InDelta(t, -1.0, data.Samples[2], 0.001)
}

func TestReader_ReadRange_TruncatesAtEOF(t *testing.T) {
	path := "a.wav"
	sound := pcm16Mono([]int16{0, 1, 2, 3}, 44100)
	r := newTestReader(t, map[string]*fakeSound{path: sound})

	data, err := r.ReadRange(path, 2, 10).Wait()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), data.StartFrame)
	assert.Equal(t, uint32(2), data.FrameCount)
	assert.Len(t, data.Samples, 2)
}

func TestReader_ReadRange_PastEOFReturnsEmpty(t *testing.T) {
	path := "a.wav"
	sound := pcm16Mono([]int16{0, 1}, 44100)
	r := newTestReader(t, map[string]*fakeSound{path: sound})

	data, err := r.ReadRange(path, 100, 10).Wait()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), data.FrameCount)
	assert.Empty(t, data.Samples)
}

func TestReader_ReadRange_CachesDecodeAcrossCalls(t *testing.T) {
	path := "a.wav"
	sound := pcm16Mono([]int16{0, 1, 2, 3}, 44100)
	r := newTestReader(t, map[string]*fakeSound{path: sound})

	_, err := r.ReadRange(path, 0, 2).Wait()
	require.NoError(t, err)

	// Mutating the source buffer after the first decode must not
	// affect subsequent reads, since the cache holds already-decoded
	// samples.
	sound.raw[0] = 0xff
	data, err := r.ReadRange(path, 0, 1).Wait()
	require.NoError(t, err)
	assert.InDelta(t, 0, data.Samples[0], 0.001)
}

func TestReader_ReadRange_UnknownPathErrors(t *testing.T) {
	r := newTestReader(t, map[string]*fakeSound{})
	_, err := r.ReadRange("missing.wav", 0, 1).Wait()
	assert.Error(t, err)
}
