// Package loading validates and loads one audio file at a time,
// extracts its metadata, and enforces the single-current-sound
// invariant via the handle manager.
package loading

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/shaban/audioengine/internal/handle"
	"github.com/shaban/audioengine/internal/native"
)

// Manager owns the "loading lock" and coordinates native sound
// creation/release with the handle manager.
type Manager struct {
	mu          sync.Mutex
	system      native.SystemAPI
	handles     *handle.Manager
	ensureReady func() error
	log         *slog.Logger
	onError     func(error)

	metadata    AudioMetadata
	hasMetadata bool
}

// NewManager builds a Manager. system is the native system to create
// sounds on; handles tracks the current AudioHandle; ensureReady is
// called before touching native code and must return an error unless
// the engine is in a state that permits loading — the engine facade
// supplies this to avoid an import cycle with the engine package, which
// owns the lifecycle state.
// onError, if non-nil, is additionally called with every native error
// this Manager tolerates rather than returns to the caller, letting
// the engine facade route such errors through its own ErrorHandler.
func NewManager(system native.SystemAPI, handles *handle.Manager, ensureReady func() error, logger *slog.Logger, onError func(error)) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{system: system, handles: handles, ensureReady: ensureReady, log: logger, onError: onError}
}

func (m *Manager) reportTolerated(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

// canonicalize resolves path to an absolute, symlink-free form and
// classifies failures before any native call.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &LoadError{Kind: PathInvalid, Path: path, Err: err}
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", &LoadError{Kind: FileNotFound, Path: path, Err: err}
	}
	if err != nil {
		return "", &LoadError{Kind: PathInvalid, Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &LoadError{Kind: PathInvalid, Path: path, Err: fmt.Errorf("is a directory")}
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &LoadError{Kind: PathInvalid, Path: path, Err: err}
	}
	return resolved, nil
}

// Load validates and loads path as the current sound, returning the
// handle for it. Returns an unchanged handle if path resolves to the
// file already loaded.
func (m *Manager) Load(path string) (handle.AudioHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	canonical, err := canonicalize(path)
	if err != nil {
		return handle.AudioHandle{}, err
	}

	if current, _, currentPath, ok := m.handles.Current(); ok && currentPath == canonical {
		return current, nil
	}

	if err := m.ensureReady(); err != nil {
		return handle.AudioHandle{}, err
	}

	newSound, err := m.system.CreateSound(canonical, native.CreateAccurateTime)
	if err != nil {
		return handle.AudioHandle{}, mapNativeError(canonical, err)
	}

	if _, prevSound, _, ok := m.handles.Current(); ok && prevSound != nil {
		if releaseErr := prevSound.Release(); releaseErr != nil {
			m.log.Warn("release previous sound failed", "path", canonical, "error", releaseErr)
			m.reportTolerated(fmt.Errorf("loading: release previous sound %s: %w", canonical, releaseErr))
		}
	}

	meta, err := extractMetadata(newSound)
	if err != nil {
		m.log.Warn("extract metadata failed", "path", canonical, "error", err)
		m.reportTolerated(fmt.Errorf("loading: extract metadata %s: %w", canonical, err))
		meta = AudioMetadata{}
	}

	newHandle := m.handles.Create(newSound, canonical)
	m.metadata = meta
	m.hasMetadata = true

	m.log.Debug("audio loaded", "path", canonical, "handle", newHandle.String(), "frames", meta.FrameCount)
	return newHandle, nil
}

// CurrentMetadata implements get_current_metadata. ok is false if
// nothing is currently loaded.
func (m *Manager) CurrentMetadata() (AudioMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasMetadata {
		return AudioMetadata{}, false
	}
	return m.metadata, true
}

// ReleaseAll implements release_all: releases the current sound and
// clears the handle manager's current handle.
func (m *Manager) ReleaseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var releaseErr error
	if _, sound, _, ok := m.handles.Current(); ok && sound != nil {
		releaseErr = sound.Release()
	}
	m.handles.Clear()
	m.hasMetadata = false
	m.metadata = AudioMetadata{}
	return releaseErr
}
