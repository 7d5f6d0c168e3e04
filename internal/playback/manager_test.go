package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/audioengine/internal/handle"
	"github.com/shaban/audioengine/internal/native"
)

// handleOf mints a throwaway AudioHandle for tests that only need a
// stable identity to attach to a PlaybackHandle.
func handleOf(t *testing.T, n int) handle.AudioHandle {
	t.Helper()
	hm := handle.NewManager()
	return hm.Create(nil, "/tmp/fixture.wav")
}

type fakeChannel struct {
	stopped  bool
	paused   bool
	position uint32
	playing  bool

	setPositionErr error
	setPausedErr   error
}

func (c *fakeChannel) Stop() error                    { c.stopped = true; c.playing = false; return nil }
func (c *fakeChannel) SetPaused(p bool) error          {
	if c.setPausedErr != nil {
		return c.setPausedErr
	}
	c.paused = p
	return nil
}
func (c *fakeChannel) Paused() (bool, error)           { return c.paused, nil }
func (c *fakeChannel) SetPosition(frame uint32) error {
	if c.setPositionErr != nil {
		return c.setPositionErr
	}
	c.position = frame
	return nil
}
func (c *fakeChannel) Position() (uint32, error)  { return c.position, nil }
func (c *fakeChannel) IsPlaying() (bool, error)   { return c.playing, nil }

type fakeSystem struct {
	channel *fakeChannel
	playErr error
}

func (f *fakeSystem) Init(int, native.InitFlags) error                          { return nil }
func (f *fakeSystem) Update() error                                             { return nil }
func (f *fakeSystem) Release() error                                            { return nil }
func (f *fakeSystem) SetDSPBufferSize(uint32, int) error                        { return nil }
func (f *fakeSystem) DSPBufferSize() (uint32, int, error)                       { return 0, 0, nil }
func (f *fakeSystem) SetSoftwareFormat(int, int, int) error                     { return nil }
func (f *fakeSystem) SoftwareFormat() (int, int, int, error)                    { return 0, 0, 0, nil }
func (f *fakeSystem) Version() (uint32, error)                                  { return 0, nil }
func (f *fakeSystem) CreateSound(string, native.SoundCreateFlags) (native.SoundAPI, error) {
	return nil, nil
}
func (f *fakeSystem) PlaySound(native.SoundAPI, bool) (native.ChannelAPI, error) {
	if f.playErr != nil {
		return nil, f.playErr
	}
	f.channel.playing = true
	return f.channel, nil
}

func TestManager_Play_StartsUnpaused(t *testing.T) {
	ch := &fakeChannel{}
	sys := &fakeSystem{channel: ch}
	m := NewManager(nil, nil)

	h, err := m.Play(sys, nil, handleOf(t, 1))
	require.NoError(t, err)
	assert.False(t, ch.paused)
	assert.Equal(t, EndUnbounded, h.End)
	assert.True(t, m.IsActive(h))
}

func TestManager_PlayRange_PositionsBeforeUnpause(t *testing.T) {
	ch := &fakeChannel{}
	sys := &fakeSystem{channel: ch}
	m := NewManager(nil, nil)

	h, err := m.PlayRange(sys, nil, handleOf(t, 1), 1000, 2000, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, ch.position)
	assert.Equal(t, uint32(1000), h.Start)
	assert.Equal(t, uint32(2000), h.End)
}

func TestManager_Play_ReplacesPreviousChannel(t *testing.T) {
	ch1 := &fakeChannel{}
	sys := &fakeSystem{channel: ch1}
	m := NewManager(nil, nil)

	h1, err := m.Play(sys, nil, handleOf(t, 1))
	require.NoError(t, err)

	ch2 := &fakeChannel{}
	sys2 := &fakeSystem{channel: ch2}
	h2, err := m.Play(sys2, nil, handleOf(t, 1))
	require.NoError(t, err)

	assert.True(t, ch1.stopped)
	assert.False(t, m.IsActive(h1))
	assert.True(t, m.IsActive(h2))
}

func TestManager_Stop_IsNoopWhenNoChannel(t *testing.T) {
	m := NewManager(nil, nil)
	assert.NoError(t, m.Stop())
}

func TestManager_Seek_TolerateInvalidPosition(t *testing.T) {
	ch := &fakeChannel{setPositionErr: native.InvalidPosition}
	sys := &fakeSystem{channel: ch}
	m := NewManager(nil, nil)
	_, err := m.Play(sys, nil, handleOf(t, 1))
	require.NoError(t, err)

	assert.NoError(t, m.Seek(999999))
}

func TestManager_CheckPlaybackFinished_ReapsWhenNotPlaying(t *testing.T) {
	ch := &fakeChannel{}
	sys := &fakeSystem{channel: ch}
	m := NewManager(nil, nil)
	_, err := m.Play(sys, nil, handleOf(t, 1))
	require.NoError(t, err)

	ch.playing = false
	assert.True(t, m.CheckPlaybackFinished())
	assert.False(t, m.HasActivePlayback())
}

func TestStateMachine_LegalTransitions(t *testing.T) {
	sm := NewStateMachine()
	assert.True(t, sm.CompareAndSet(Stopped, Playing))
	assert.True(t, sm.CompareAndSet(Playing, Paused))
	assert.False(t, sm.CompareAndSet(Stopped, Playing))
	assert.True(t, sm.CompareAndSet(Paused, Playing))
}

func TestStateMachine_TransitionToStoppedFromAnyState(t *testing.T) {
	sm := NewStateMachine()
	sm.Set(Finished)
	sm.TransitionToStopped()
	assert.Equal(t, Stopped, sm.Current())
}

func TestStateMachine_ValidateSeekAllowed(t *testing.T) {
	sm := NewStateMachine()
	assert.False(t, sm.ValidateSeekAllowed())
	sm.Set(Playing)
	assert.True(t, sm.ValidateSeekAllowed())
}

func TestStateMachine_HandleChannelInvalid(t *testing.T) {
	sm := NewStateMachine()
	sm.Set(Finished)
	sm.HandleChannelInvalid()
	assert.Equal(t, Finished, sm.Current())

	sm.Set(Playing)
	sm.HandleChannelInvalid()
	assert.Equal(t, Stopped, sm.Current())
}
