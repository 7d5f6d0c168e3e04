// Package listening implements the engine's listener manager: a
// copy-on-write subscriber registry plus the periodic,
// latency-compensated progress timer.
package listening

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaban/audioengine/internal/native"
	"github.com/shaban/audioengine/internal/playback"
)

// DefaultInterval is the progress timer's default tick period.
const DefaultInterval = 100 * time.Millisecond

// Source is the narrow view of the playback manager the listener
// manager needs: whether a handle is still active, a raw (unswallowed)
// position read, and a way to mark a handle inactive. Keeping this as
// an interface keeps Manager testable without a real native channel.
type Source interface {
	IsActive(h playback.PlaybackHandle) bool
	RawPosition(h playback.PlaybackHandle) (uint32, error)
	Deactivate(h playback.PlaybackHandle) bool
}

type subscriber struct {
	token    Token
	listener PlaybackListener
}

// Manager owns the subscriber list and the single progress-monitoring
// goroutine.
type Manager struct {
	subs atomic.Pointer[[]subscriber]
	next atomic.Uint64

	mu       sync.Mutex // guards everything below: one playback monitored at a time
	source   Source
	log      *slog.Logger
	interval time.Duration

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	monitoring  bool
	current     playback.PlaybackHandle
	hasCurrent  bool
	startFrame  uint32
	totalFrames uint32
	latency     LatencyParams
	completed   bool

	shutdown bool
}

// NewManager builds a Manager bound to source. interval <= 0 uses
// DefaultInterval.
func NewManager(source Source, interval time.Duration, logger *slog.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{source: source, interval: interval, log: logger}
	empty := make([]subscriber, 0)
	m.subs.Store(&empty)
	return m
}

// AddListener registers l and returns a Token for later removal.
// Rejected (and logged) once Shutdown has been called.
func (m *Manager) AddListener(l PlaybackListener) Token {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		m.log.Warn("add_listener rejected: manager is shut down")
		return 0
	}
	m.mu.Unlock()

	tok := Token(m.next.Add(1))
	for {
		old := m.subs.Load()
		next := make([]subscriber, len(*old), len(*old)+1)
		copy(next, *old)
		next = append(next, subscriber{token: tok, listener: l})
		if m.subs.CompareAndSwap(old, &next) {
			return tok
		}
	}
}

// RemoveListener unregisters the subscriber identified by tok.
func (m *Manager) RemoveListener(tok Token) {
	for {
		old := m.subs.Load()
		next := make([]subscriber, 0, len(*old))
		for _, s := range *old {
			if s.token != tok {
				next = append(next, s)
			}
		}
		if m.subs.CompareAndSwap(old, &next) {
			return
		}
	}
}

// snapshot returns the current subscriber slice without holding any
// lock (Design Note "iterate the snapshot with no lock held").
func (m *Manager) snapshot() []subscriber {
	return *m.subs.Load()
}

// isTestListenerPanic reports whether v (a recovered panic value) is
// the well-known test-listener marker, logged without a stack trace.
func isTestListenerPanic(v any) bool {
	_, ok := v.(TestListenerPanic)
	return ok
}

// TestListenerPanic is the marker panic value a test double uses to
// simulate a misbehaving subscriber without polluting WARN logs with a
// stack trace on every test run.
type TestListenerPanic struct{ Reason string }

func (p TestListenerPanic) String() string { return p.Reason }

func (m *Manager) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if isTestListenerPanic(r) {
				m.log.Warn("listener panicked", "callback", name, "reason", r)
			} else {
				m.log.Warn("listener panicked", "callback", name, "reason", r, "stack", string(debugStack()))
			}
		}
	}()
	fn()
}

// NotifyStateChanged fans a state transition out to every subscriber,
// isolating each from the others' and its own panics.
func (m *Manager) NotifyStateChanged(h playback.PlaybackHandle, newState, oldState playback.State) {
	for _, s := range m.snapshot() {
		if s.listener.OnStateChanged == nil {
			continue
		}
		l := s.listener
		m.safeCall("OnStateChanged", func() { l.OnStateChanged(h, newState, oldState) })
	}
}

// NotifyPlaybackError fans a playback error out to every subscriber.
func (m *Manager) NotifyPlaybackError(h *playback.PlaybackHandle, message string) {
	for _, s := range m.snapshot() {
		if s.listener.OnPlaybackError == nil {
			continue
		}
		l := s.listener
		m.safeCall("OnPlaybackError", func() { l.OnPlaybackError(h, message) })
	}
}

func (m *Manager) notifyProgress(h playback.PlaybackHandle, position, total uint32) {
	for _, s := range m.snapshot() {
		if s.listener.OnProgress == nil {
			continue
		}
		l := s.listener
		m.safeCall("OnProgress", func() { l.OnProgress(h, position, total) })
	}
}

// notifyPlaybackComplete emits PLAYING->FINISHED then the completion
// callback, exactly once per handle.
func (m *Manager) notifyPlaybackComplete(h playback.PlaybackHandle) {
	m.mu.Lock()
	already := m.completed
	m.completed = true
	m.mu.Unlock()
	if already {
		return
	}

	m.NotifyStateChanged(h, playback.Finished, playback.Playing)
	for _, s := range m.snapshot() {
		if s.listener.OnPlaybackComplete == nil {
			continue
		}
		l := s.listener
		m.safeCall("OnPlaybackComplete", func() { l.OnPlaybackComplete(h) })
	}
}

// StartMonitoring implements start_monitoring: stops any existing
// timer, records the handle/total/latency params, and — if there is at
// least one subscriber — schedules update_progress at a fixed
// interval, firing immediately at t=0.
func (m *Manager) StartMonitoring(h playback.PlaybackHandle, totalFrames uint32, latency LatencyParams) {
	m.stopMonitoringLocked(true)

	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.current = h
	m.hasCurrent = true
	m.startFrame = h.Start
	m.totalFrames = totalFrames
	m.latency = latency
	m.completed = false

	if len(m.snapshot()) == 0 {
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.monitoring = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runTimer(ctx)
}

func (m *Manager) runTimer(ctx context.Context) {
	defer m.wg.Done()

	m.tick()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Manager) tick() {
	m.mu.Lock()
	if !m.hasCurrent {
		m.mu.Unlock()
		return
	}
	h := m.current
	total := m.totalFrames
	start := m.startFrame
	latency := m.latency
	m.mu.Unlock()

	if !m.source.IsActive(h) {
		m.handleStopped(h)
		return
	}

	decoded, err := m.source.RawPosition(h)
	if err != nil {
		if errors.Is(err, native.InvalidHandle) {
			m.handleStopped(h)
			return
		}
		m.log.Warn("progress tick: position read failed", "error", err)
		return
	}

	hearing := hearingPosition(decoded, start, latency)
	m.notifyProgress(h, hearing, total)

	if h.End != playback.EndUnbounded && hearing >= h.End {
		m.handleStopped(h)
	}
}

// handleStopped marks h inactive, fires completion, and stops the
// timer. It runs on the timer goroutine itself, so it cancels the timer
// without waiting for that goroutine to exit.
func (m *Manager) handleStopped(h playback.PlaybackHandle) {
	m.source.Deactivate(h)
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.monitoring = false
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.notifyPlaybackComplete(h)
}

// StopMonitoring implements stop_monitoring: clears the handle and
// cancels the timer with a bounded wait, then forced cancellation.
func (m *Manager) StopMonitoring() {
	m.stopMonitoringLocked(true)
}

func (m *Manager) stopMonitoringLocked(clearHandle bool) {
	m.mu.Lock()
	cancel := m.cancel
	wasMonitoring := m.monitoring
	m.cancel = nil
	m.monitoring = false
	if clearHandle {
		m.hasCurrent = false
	}
	m.mu.Unlock()

	if !wasMonitoring || cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() { m.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		m.log.Warn("progress timer did not stop within bound; forced")
	}
}

// Shutdown implements shutdown: idempotent, clears subscribers, and
// cancels the timer. Any further AddListener is a no-op.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	m.mu.Unlock()

	m.stopMonitoringLocked(true)
	empty := make([]subscriber, 0)
	m.subs.Store(&empty)
}

func debugStack() []byte {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return buf[:n]
}
