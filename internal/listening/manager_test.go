package listening

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/audioengine/internal/native"
	"github.com/shaban/audioengine/internal/playback"
)

type fakeSource struct {
	mu       sync.Mutex
	active   bool
	position uint32
	posErr   error
}

func (f *fakeSource) IsActive(playback.PlaybackHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}
func (f *fakeSource) RawPosition(playback.PlaybackHandle) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, f.posErr
}
func (f *fakeSource) Deactivate(playback.PlaybackHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	wasActive := f.active
	f.active = false
	return wasActive
}

func (f *fakeSource) setPosition(p uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = p
}

func testHandle() playback.PlaybackHandle {
	var h playback.PlaybackHandle
	return h
}

func TestManager_AddRemoveListener(t *testing.T) {
	m := NewManager(&fakeSource{}, time.Millisecond, nil)
	var calls int32
	tok := m.AddListener(PlaybackListener{
		OnProgress: func(playback.PlaybackHandle, uint32, uint32) { atomic.AddInt32(&calls, 1) },
	})
	m.notifyProgress(testHandle(), 1, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	m.RemoveListener(tok)
	m.notifyProgress(testHandle(), 1, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestManager_AddListener_RejectedAfterShutdown(t *testing.T) {
	m := NewManager(&fakeSource{}, time.Millisecond, nil)
	m.Shutdown()
	tok := m.AddListener(PlaybackListener{})
	assert.Equal(t, Token(0), tok)
}

func TestManager_ListenerIsolation_PanicDoesNotStopOthers(t *testing.T) {
	m := NewManager(&fakeSource{}, time.Millisecond, nil)
	var secondCalled int32
	m.AddListener(PlaybackListener{
		OnProgress: func(playback.PlaybackHandle, uint32, uint32) { panic(TestListenerPanic{Reason: "boom"}) },
	})
	m.AddListener(PlaybackListener{
		OnProgress: func(playback.PlaybackHandle, uint32, uint32) { atomic.AddInt32(&secondCalled, 1) },
	})

	m.notifyProgress(testHandle(), 1, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&secondCalled))
}

func TestManager_StartMonitoring_FiresImmediatelyAndOnCompletion(t *testing.T) {
	src := &fakeSource{active: true}
	m := NewManager(src, 10*time.Millisecond, nil)

	var progressCount int32
	completed := make(chan playback.PlaybackHandle, 1)
	m.AddListener(PlaybackListener{
		OnProgress:         func(playback.PlaybackHandle, uint32, uint32) { atomic.AddInt32(&progressCount, 1) },
		OnPlaybackComplete: func(h playback.PlaybackHandle) { completed <- h },
	})

	h := playback.PlaybackHandle{End: playback.EndUnbounded}
	m.StartMonitoring(h, 1000, LatencyParams{})

	require.Eventually(t, func() bool { return atomic.LoadInt32(&progressCount) >= 1 }, time.Second, time.Millisecond)

	src.Deactivate(h)
	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("expected playback complete notification")
	}
}

func TestManager_StopMonitoring_StopsTicks(t *testing.T) {
	src := &fakeSource{active: true}
	m := NewManager(src, 5*time.Millisecond, nil)
	m.AddListener(PlaybackListener{OnProgress: func(playback.PlaybackHandle, uint32, uint32) {}})

	m.StartMonitoring(playback.PlaybackHandle{End: playback.EndUnbounded}, 1000, LatencyParams{})
	m.StopMonitoring()

	m.mu.Lock()
	monitoring := m.monitoring
	m.mu.Unlock()
	assert.False(t, monitoring)
}

func TestManager_InvalidHandleStopsMonitoring(t *testing.T) {
	src := &fakeSource{active: true, posErr: native.InvalidHandle}
	m := NewManager(src, 5*time.Millisecond, nil)

	completed := make(chan struct{}, 1)
	m.AddListener(PlaybackListener{
		OnPlaybackComplete: func(playback.PlaybackHandle) { completed <- struct{}{} },
	})
	m.StartMonitoring(playback.PlaybackHandle{End: playback.EndUnbounded}, 1000, LatencyParams{})

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("expected completion after invalid handle")
	}
}
