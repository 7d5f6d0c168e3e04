// Package engine implements the audio engine facade and its lifecycle
// state: the single entry point that orchestrates the native system,
// loading, playback, and listener managers, enforcing operation order
// and the single-playback rule.
package engine

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaban/audioengine/internal/handle"
	"github.com/shaban/audioengine/internal/listening"
	"github.com/shaban/audioengine/internal/loading"
	"github.com/shaban/audioengine/internal/native"
	"github.com/shaban/audioengine/internal/nativesystem"
	"github.com/shaban/audioengine/internal/playback"
)

// Config configures a new Engine.
type Config struct {
	Native           native.Config
	Logger           *slog.Logger
	ProgressInterval time.Duration
	SystemFactory    nativesystem.Factory

	// ErrorHandler, if set, additionally receives every native error
	// the loading and playback managers tolerate rather than return to
	// the caller (e.g. a channel stop failing during cleanup). Nil by
	// default, so nothing beyond the existing structured logging fires
	// unless the caller opts in.
	ErrorHandler ErrorHandler
}

// Engine is the facade over the native system, handle, loading,
// playback, and listener managers.
type Engine struct {
	lifecycle *Lifecycle
	nsys      *nativesystem.Manager
	handles   *handle.Manager
	loader    *loading.Manager
	pbMgr     *playback.Manager
	pbState   *playback.StateMachine
	listeners *listening.Manager
	log       *slog.Logger
	native    native.Config

	opMu sync.Mutex // serializes load/play/pause/resume/stop/seek
}

// New builds an Engine in state UNINIT. Call Initialize before using
// it.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var onError func(error)
	if cfg.ErrorHandler != nil {
		onError = cfg.ErrorHandler.HandleError
	}

	lifecycle := NewLifecycle()
	nsys := nativesystem.NewManager(cfg.SystemFactory, logger)
	handles := handle.NewManager()
	pbMgr := playback.NewManager(logger, onError)

	e := &Engine{
		lifecycle: lifecycle,
		nsys:      nsys,
		handles:   handles,
		pbMgr:     pbMgr,
		pbState:   playback.NewStateMachine(),
		listeners: listening.NewManager(pbMgr, cfg.ProgressInterval, logger),
		log:       logger,
		native:    cfg.Native,
	}
	e.loader = loading.NewManager(
		namedSystem{nsys},
		handles,
		func() error { return e.lifecycle.CheckStateAny(Initialized) },
		logger,
		onError,
	)
	return e
}

// namedSystem adapts nativesystem.Manager's System() accessor to the
// native.SystemAPI the loading/playback managers expect, resolved
// lazily since the system isn't created until Initialize succeeds.
type namedSystem struct{ nsys *nativesystem.Manager }

func (n namedSystem) Init(maxChannels int, flags native.InitFlags) error { return n.nsys.System().Init(maxChannels, flags) }
func (n namedSystem) Update() error                                     { return n.nsys.System().Update() }
func (n namedSystem) Release() error                                    { return n.nsys.System().Release() }
func (n namedSystem) SetDSPBufferSize(l uint32, c int) error            { return n.nsys.System().SetDSPBufferSize(l, c) }
func (n namedSystem) DSPBufferSize() (uint32, int, error)               { return n.nsys.System().DSPBufferSize() }
func (n namedSystem) SetSoftwareFormat(sr, sm, rs int) error            { return n.nsys.System().SetSoftwareFormat(sr, sm, rs) }
func (n namedSystem) SoftwareFormat() (int, int, int, error)            { return n.nsys.System().SoftwareFormat() }
func (n namedSystem) Version() (uint32, error)                          { return n.nsys.System().Version() }
func (n namedSystem) CreateSound(path string, flags native.SoundCreateFlags) (native.SoundAPI, error) {
	return n.nsys.System().CreateSound(path, flags)
}
func (n namedSystem) PlaySound(sound native.SoundAPI, paused bool) (native.ChannelAPI, error) {
	return n.nsys.System().PlaySound(sound, paused)
}

// Initialize moves the engine UNINIT -> INITIALIZING (claiming the
// attempt), runs the heavy native setup outside the state lock, then
// INITIALIZING -> {INITIALIZED, CLOSED}.
func (e *Engine) Initialize() error {
	if err := e.lifecycle.TransitionTo(Initializing, nil); err != nil {
		return &EngineError{Op: "initialize", Err: err}
	}

	if err := e.nsys.Initialize(e.native); err != nil {
		_ = e.lifecycle.TransitionTo(Closed, nil)
		return &EngineError{Op: "initialize", Err: err}
	}

	_ = e.lifecycle.TransitionTo(Initialized, nil)
	return nil
}

// LoadAudio loads a new audio file as the current audio. Loading while
// a previous audio is playing stops that playback first (emitting
// STOPPED) before delegating to the loading manager.
func (e *Engine) LoadAudio(path string) (handle.AudioHandle, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if prev, ok := e.pbMgr.CurrentPlayback(); ok {
		old := e.pbState.Current()
		e.pbMgr.Stop()
		e.pbState.TransitionToStopped()
		e.listeners.StopMonitoring()
		e.listeners.NotifyStateChanged(prev, playback.Stopped, old)
	}

	return e.loader.Load(path)
}

// GetMetadata implements get_metadata(audio).
func (e *Engine) GetMetadata(audio handle.AudioHandle) (loading.AudioMetadata, error) {
	if !e.handles.IsValid(audio) {
		return loading.AudioMetadata{}, &EngineError{Op: "get_metadata", Err: errors.New("audio handle is not current")}
	}
	meta, ok := e.loader.CurrentMetadata()
	if !ok {
		return loading.AudioMetadata{}, &EngineError{Op: "get_metadata", Err: errors.New("no metadata available")}
	}
	return meta, nil
}

func (e *Engine) latencyParams(sourceRate int) listening.LatencyParams {
	length, numBuffers, ok := e.nsys.DSPBuffer()
	if !ok {
		return listening.LatencyParams{}
	}
	outputRate, ok := e.nsys.OutputSampleRate()
	if !ok {
		return listening.LatencyParams{}
	}
	return listening.LatencyParams{
		BufferLength: length,
		NumBuffers:   numBuffers,
		OutputRate:   outputRate,
		SourceRate:   sourceRate,
	}
}

// Play implements play(audio) — full-file playback.
func (e *Engine) Play(audio handle.AudioHandle) (playback.PlaybackHandle, error) {
	meta, err := e.GetMetadata(audio)
	if err != nil {
		return playback.PlaybackHandle{}, err
	}
	return e.play(audio, 0, playback.EndUnbounded, false, meta)
}

// PlayRange implements play(audio, start, end): handle validity is
// checked first (via GetMetadata), then the range itself.
func (e *Engine) PlayRange(audio handle.AudioHandle, start, end uint32) (playback.PlaybackHandle, error) {
	meta, err := e.GetMetadata(audio)
	if err != nil {
		return playback.PlaybackHandle{}, err
	}
	if end < start {
		return playback.PlaybackHandle{}, &playback.PlaybackError{Kind: playback.InvalidRange}
	}
	return e.play(audio, start, end, true, meta)
}

func (e *Engine) play(audio handle.AudioHandle, start, end uint32, isRange bool, meta loading.AudioMetadata) (playback.PlaybackHandle, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if err := e.lifecycle.CheckStateAny(Initialized); err != nil {
		return playback.PlaybackHandle{}, &EngineError{Op: "play", Err: err}
	}
	if !e.handles.IsValid(audio) {
		return playback.PlaybackHandle{}, &playback.PlaybackError{Kind: playback.NotCurrent}
	}

	if e.pbMgr.HasActivePlayback() {
		if !isRange {
			return playback.PlaybackHandle{}, ErrConcurrentOperation
		}
		if prev, ok := e.pbMgr.CurrentPlayback(); ok {
			old := e.pbState.Current()
			e.pbMgr.Stop()
			e.pbState.TransitionToStopped()
			e.listeners.NotifyStateChanged(prev, playback.Stopped, old)
		}
	}

	_, sound, _, ok := e.handles.Current()
	if !ok || sound == nil {
		return playback.PlaybackHandle{}, &playback.PlaybackError{Kind: playback.NotCurrent}
	}

	system := namedSystem{e.nsys}
	h, err := e.pbMgr.PlayRange(system, sound, audio, start, end, isRange)
	if err != nil {
		return playback.PlaybackHandle{}, err
	}

	e.pbState.TransitionToStopped()
	e.pbState.CompareAndSet(playback.Stopped, playback.Playing)

	totalFrames := meta.FrameCount
	if end != playback.EndUnbounded {
		totalFrames = end - start
	}
	e.listeners.StartMonitoring(h, totalFrames, e.latencyParams(meta.SampleRate))
	e.listeners.NotifyStateChanged(h, playback.Playing, playback.Stopped)

	return h, nil
}

// Pause implements pause(p).
func (e *Engine) Pause(p playback.PlaybackHandle) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if !e.pbMgr.IsActive(p) {
		return &playback.PlaybackError{Kind: playback.NotActive}
	}
	old := e.pbState.Current()
	if err := e.pbMgr.Pause(); err != nil {
		return err
	}
	if e.pbState.CompareAndSet(playback.Playing, playback.Paused) {
		e.listeners.NotifyStateChanged(p, playback.Paused, old)
	}
	return nil
}

// Resume implements resume(p).
func (e *Engine) Resume(p playback.PlaybackHandle) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if !e.pbMgr.IsActive(p) {
		return &playback.PlaybackError{Kind: playback.NotActive}
	}
	old := e.pbState.Current()
	if err := e.pbMgr.Resume(); err != nil {
		if errors.Is(err, native.InvalidHandle) {
			return &playback.PlaybackError{Kind: playback.ChannelLost, Err: err}
		}
		return err
	}
	if e.pbState.CompareAndSet(playback.Paused, playback.Playing) {
		e.listeners.NotifyStateChanged(p, playback.Playing, old)
	}
	return nil
}

// Stop implements stop(p).
func (e *Engine) Stop(p playback.PlaybackHandle) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if !e.pbMgr.IsActive(p) {
		return nil
	}
	old := e.pbState.Current()
	if err := e.pbMgr.Stop(); err != nil {
		return err
	}
	e.pbState.TransitionToStopped()
	e.listeners.StopMonitoring()
	e.listeners.NotifyStateChanged(p, playback.Stopped, old)
	return nil
}

// Seek implements seek(p, frame): validates handle identity, then
// brackets the seek with a transient SEEKING notification pair.
func (e *Engine) Seek(p playback.PlaybackHandle, frame uint32) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if !e.pbMgr.IsActive(p) {
		return &playback.PlaybackError{Kind: playback.NotActive}
	}
	if !e.pbState.ValidateSeekAllowed() {
		return &playback.PlaybackError{Kind: playback.NotActive}
	}

	old := e.pbState.Current()
	e.listeners.NotifyStateChanged(p, playback.Seeking, old)
	err := e.pbMgr.Seek(frame)
	e.listeners.NotifyStateChanged(p, old, playback.Seeking)
	return err
}

// GetState implements get_state(playback): the sole non-mutating entry
// point permitted to opportunistically reap a stale handle, without
// ever firing listener callbacks from this (getter) call path (Design
// Note "concurrent get_state reaping").
func (e *Engine) GetState(p playback.PlaybackHandle) playback.State {
	if !e.pbMgr.IsActive(p) {
		return playback.Stopped
	}
	if e.pbMgr.CheckPlaybackFinished() {
		e.pbState.HandleChannelInvalid()
		return playback.Stopped
	}
	if e.pbMgr.IsPaused() {
		return playback.Paused
	}
	return playback.Playing
}

// GetPosition implements get_position.
func (e *Engine) GetPosition(p playback.PlaybackHandle) uint32 {
	if !e.pbMgr.IsActive(p) {
		return 0
	}
	return e.pbMgr.GetPosition()
}

// IsPlaying, IsPaused, IsStopped implement the corresponding
// derived queries.
func (e *Engine) IsPlaying(p playback.PlaybackHandle) bool { return e.GetState(p) == playback.Playing }
func (e *Engine) IsPaused(p playback.PlaybackHandle) bool  { return e.GetState(p) == playback.Paused }
func (e *Engine) IsStopped(p playback.PlaybackHandle) bool { return e.GetState(p) == playback.Stopped }

// AddPlaybackListener implements add_playback_listener.
func (e *Engine) AddPlaybackListener(l listening.PlaybackListener) listening.Token {
	return e.listeners.AddListener(l)
}

// RemovePlaybackListener implements remove_playback_listener.
func (e *Engine) RemovePlaybackListener(tok listening.Token) {
	e.listeners.RemoveListener(tok)
}

// Close performs an idempotent engine teardown. It never fails the
// caller; teardown errors are logged, not returned.
func (e *Engine) Close() error {
	switch e.lifecycle.GetState() {
	case Initialized:
		_ = e.lifecycle.TransitionTo(Closing, func() error {
			if p, ok := e.pbMgr.CurrentPlayback(); ok {
				e.pbMgr.Stop()
				e.listeners.NotifyStateChanged(p, playback.Stopped, e.pbState.Current())
			}
			e.pbState.TransitionToStopped()
			e.listeners.Shutdown()
			if _, sound, _, ok := e.handles.Current(); ok && sound != nil {
				if err := sound.Release(); err != nil {
					e.log.Warn("close: release sound failed", "error", err)
				}
			}
			e.handles.Clear()
			if err := e.nsys.Shutdown(); err != nil {
				e.log.Warn("close: shutdown native system failed", "error", err)
			}
			return nil
		})
		_ = e.lifecycle.TransitionTo(Closed, nil)
		return nil
	case Initializing:
		e.lifecycle.CompareAndSet(Initializing, Closed)
		return nil
	default:
		return nil
	}
}

