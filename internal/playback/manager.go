package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/shaban/audioengine/internal/handle"
	"github.com/shaban/audioengine/internal/native"
)

// EndUnbounded is the PlaybackHandle.End sentinel meaning "until
// natural end".
const EndUnbounded = math.MaxUint32

// PlaybackHandle identifies one play invocation. It is a value type;
// Manager is the sole authority on whether a given handle is still
// active (mirrors internal/handle's AudioHandle pattern).
type PlaybackHandle struct {
	id    uint64
	Audio handle.AudioHandle
	Start uint32
	End   uint32
}

func (h PlaybackHandle) String() string {
	return fmt.Sprintf("playback#%d[%d:%d]", h.id, h.Start, h.End)
}

var nextID uint64

func newID() uint64 { return atomic.AddUint64(&nextID, 1) }

// PlaybackErrorKind classifies why a Manager operation failed.
type PlaybackErrorKind int

const (
	NotActive PlaybackErrorKind = iota
	NotCurrent
	InvalidRange
	ChannelLost
	PlaybackFailed
)

func (k PlaybackErrorKind) String() string {
	switch k {
	case NotActive:
		return "NotActive"
	case NotCurrent:
		return "NotCurrent"
	case InvalidRange:
		return "InvalidRange"
	case ChannelLost:
		return "ChannelLost"
	default:
		return "PlaybackFailed"
	}
}

type PlaybackError struct {
	Kind PlaybackErrorKind
	Err  error
}

func (e *PlaybackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("playback: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("playback: %s", e.Kind)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// ErrNotCurrent is returned by RawPosition when the queried handle is
// no longer the Manager's active playback.
var ErrNotCurrent = errors.New("playback: handle is not current")

// Manager is a thin wrapper over native channel ops, enforcing
// single-channel-at-a-time. All operations serialize under the
// playback lock (mu).
type Manager struct {
	mu      sync.Mutex
	log     *slog.Logger
	onError func(error)

	channel native.ChannelAPI
	current PlaybackHandle
	active  bool
}

// NewManager builds an empty Manager (no active playback). onError, if
// non-nil, is additionally called with every native error this Manager
// tolerates rather than returns to the caller, letting the engine
// facade route such errors through its own ErrorHandler.
func NewManager(logger *slog.Logger, onError func(error)) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{log: logger, onError: onError}
}

func (m *Manager) reportTolerated(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

// cleanupLocked stops and clears any existing channel. Callers must
// hold mu.
func (m *Manager) cleanupLocked() {
	if m.channel != nil {
		if err := m.channel.Stop(); err != nil {
			m.log.Warn("cleanup stop failed", "error", err)
			m.reportTolerated(fmt.Errorf("playback: cleanup stop failed: %w", err))
		}
	}
	m.channel = nil
	m.active = false
}

// Play implements play(sound, audio_handle): full-file playback from
// frame 0 to EndUnbounded.
func (m *Manager) Play(system native.SystemAPI, sound native.SoundAPI, audio handle.AudioHandle) (PlaybackHandle, error) {
	return m.playRange(system, sound, audio, 0, EndUnbounded, false)
}

// PlayRange implements play_range(sound, audio_handle, start, end,
// needs_positioning).
func (m *Manager) PlayRange(system native.SystemAPI, sound native.SoundAPI, audio handle.AudioHandle, start, end uint32, needsPositioning bool) (PlaybackHandle, error) {
	return m.playRange(system, sound, audio, start, end, needsPositioning)
}

func (m *Manager) playRange(system native.SystemAPI, sound native.SoundAPI, audio handle.AudioHandle, start, end uint32, needsPositioning bool) (PlaybackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel != nil {
		m.cleanupLocked()
	}

	channel, err := system.PlaySound(sound, true)
	if err != nil {
		return PlaybackHandle{}, &PlaybackError{Kind: PlaybackFailed, Err: err}
	}

	if needsPositioning && start > 0 {
		if err := channel.SetPosition(start); err != nil && !errors.Is(err, native.InvalidPosition) {
			channel.Stop()
			return PlaybackHandle{}, &PlaybackError{Kind: PlaybackFailed, Err: err}
		}
	}

	if err := channel.SetPaused(false); err != nil {
		channel.Stop()
		return PlaybackHandle{}, &PlaybackError{Kind: PlaybackFailed, Err: err}
	}

	h := PlaybackHandle{id: newID(), Audio: audio, Start: start, End: end}
	m.channel = channel
	m.current = h
	m.active = true
	return h, nil
}

// Pause toggles the current channel's paused flag to true.
func (m *Manager) Pause() error { return m.setPaused(true) }

// Resume toggles the current channel's paused flag to false.
func (m *Manager) Resume() error { return m.setPaused(false) }

func (m *Manager) setPaused(paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return &PlaybackError{Kind: NotActive}
	}
	err := m.channel.SetPaused(paused)
	if errors.Is(err, native.InvalidHandle) {
		m.cleanupLocked()
		return &PlaybackError{Kind: NotActive, Err: err}
	}
	return err
}

// Stop implements stop(): no-op if no current channel.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.channel == nil {
		return nil
	}
	m.cleanupLocked()
	return nil
}

// Seek implements seek(frame): INVALID_POSITION is tolerated silently
// (native clamps); INVALID_HANDLE triggers cleanup and a no-op.
func (m *Manager) Seek(frame uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return nil
	}
	err := m.channel.SetPosition(frame)
	if err == nil || errors.Is(err, native.InvalidPosition) {
		return nil
	}
	if errors.Is(err, native.InvalidHandle) {
		m.cleanupLocked()
		return nil
	}
	return err
}

// GetPosition implements get_position(): returns 0 on any failure,
// reaping the channel first on INVALID_HANDLE.
func (m *Manager) GetPosition() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return 0
	}
	pos, err := m.channel.Position()
	if err != nil {
		if errors.Is(err, native.InvalidHandle) {
			m.cleanupLocked()
		} else {
			m.log.Warn("get_position failed", "error", err)
			m.reportTolerated(fmt.Errorf("playback: get_position failed: %w", err))
		}
		return 0
	}
	return pos
}

// CheckPlaybackFinished implements check_playback_finished(): any
// non-playing or invalid-handle observation is treated as finished and
// reaps the channel.
func (m *Manager) CheckPlaybackFinished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return true
	}
	playing, err := m.channel.IsPlaying()
	if err != nil || !playing {
		m.cleanupLocked()
		return true
	}
	return false
}

// IsPaused reports the current channel's paused flag. Reaps the
// channel on INVALID_HANDLE, mirroring GetPosition's recovery policy.
func (m *Manager) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel == nil {
		return false
	}
	paused, err := m.channel.Paused()
	if err != nil {
		if errors.Is(err, native.InvalidHandle) {
			m.cleanupLocked()
		}
		return false
	}
	return paused
}

// HasActivePlayback reports whether a channel is currently assigned.
func (m *Manager) HasActivePlayback() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CurrentPlayback returns the current handle, if any.
func (m *Manager) CurrentPlayback() (PlaybackHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return PlaybackHandle{}, false
	}
	return m.current, true
}

// IsActive reports whether h is still the Manager's current, active
// playback; an inactive handle is inert.
func (m *Manager) IsActive(h PlaybackHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.current.id == h.id
}

// RawPosition returns the channel's position without swallowing
// native errors, for the listener manager's timer tick, which must
// distinguish INVALID_HANDLE from a clean read itself.
// Returns ErrNotCurrent if h is not the active playback.
func (m *Manager) RawPosition(h PlaybackHandle) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || m.current.id != h.id {
		return 0, ErrNotCurrent
	}
	return m.channel.Position()
}

// Deactivate marks h inactive if it is still current, cleaning up the
// channel. Returns false if h was already not current (a no-op).
func (m *Manager) Deactivate(h PlaybackHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || m.current.id != h.id {
		return false
	}
	m.cleanupLocked()
	return true
}
