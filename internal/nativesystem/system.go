// Package nativesystem creates, configures, and releases the native
// mixer instance, and reports its version/buffer/format info for the
// listener manager's latency math.
package nativesystem

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaban/audioengine/internal/native"
)

const (
	// DSPBufferLength and DSPBufferCount fix the mixer's DSP buffer
	// geometry: 256 samples x 4 buffers.
	DSPBufferLength = 256
	DSPBufferCount  = 4

	outputSampleRate    = 48000
	outputSpeakerModeMono = 0
	outputRawSpeakers   = 0
	initMaxChannels     = 2
)

// Factory creates the underlying native system for a given loader
// config. The default, Load, dlopens the real library; tests inject a
// fake to exercise Manager without one.
type Factory func(cfg native.Config) (*native.Library, native.SystemAPI, error)

// Load is the default Factory: loads the native library and creates a
// system on it.
func Load(cfg native.Config) (*native.Library, native.SystemAPI, error) {
	lib, err := native.Load(cfg)
	if err != nil {
		return nil, nil, err
	}
	sys, err := native.SystemCreate(lib)
	if err != nil {
		lib.Close()
		return nil, nil, err
	}
	return lib, sys, nil
}

// Manager owns the single native system instance for the playback
// engine (the facade orchestrates it; the bulk reader owns a wholly
// separate instance and must not share the playback system's).
type Manager struct {
	mu      sync.Mutex
	factory Factory
	log     *slog.Logger

	lib         *native.Library
	sys         native.SystemAPI
	initialized bool
}

// NewManager builds a Manager. A nil factory defaults to Load; a nil
// logger defaults to slog.Default().
func NewManager(factory Factory, logger *slog.Logger) *Manager {
	if factory == nil {
		factory = Load
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{factory: factory, log: logger}
}

// Initialize creates and configures the native system. Fails if
// already initialized; concurrent callers race on the mutex and
// exactly one succeeds.
func (m *Manager) Initialize(cfg native.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return fmt.Errorf("nativesystem: already initialized")
	}

	lib, sys, err := m.factory(cfg)
	if err != nil {
		return fmt.Errorf("nativesystem: create system: %w", err)
	}

	if err := sys.SetDSPBufferSize(DSPBufferLength, DSPBufferCount); err != nil {
		sys.Release()
		return fmt.Errorf("nativesystem: set dsp buffer: %w", err)
	}
	if err := sys.SetSoftwareFormat(outputSampleRate, outputSpeakerModeMono, outputRawSpeakers); err != nil {
		sys.Release()
		return fmt.Errorf("nativesystem: set software format: %w", err)
	}
	if err := sys.Init(initMaxChannels, native.InitNormal); err != nil {
		sys.Release()
		return fmt.Errorf("nativesystem: init: %w", err)
	}

	m.lib = lib
	m.sys = sys
	m.initialized = true
	m.log.Debug("native system initialized", "bufferLength", DSPBufferLength, "numBuffers", DSPBufferCount, "sampleRate", outputSampleRate)
	return nil
}

// Update pumps the native system. Safe to call in any engine state; a
// no-op if not initialized.
func (m *Manager) Update() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil
	}
	return m.sys.Update()
}

// Shutdown releases the native system. Idempotent.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil
	}
	err := m.sys.Release()
	if m.lib != nil {
		m.lib.Close()
	}
	m.sys = nil
	m.lib = nil
	m.initialized = false
	m.log.Debug("native system shut down")
	return err
}

// System returns the underlying native system for managers layered on
// top. Returns nil if not initialized.
func (m *Manager) System() native.SystemAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sys
}

// VersionInfo returns a formatted version descriptor, or "" if not
// initialized.
func (m *Manager) VersionInfo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ""
	}
	v, err := m.sys.Version()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", (v>>16)&0xFF, (v>>8)&0xFF, v&0xFF)
}

// BufferInfo returns a formatted DSP buffer descriptor, or "" if not
// initialized.
func (m *Manager) BufferInfo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ""
	}
	length, count, err := m.sys.DSPBufferSize()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", length, count)
}

// FormatInfo returns a formatted output-format descriptor, or "" if
// not initialized.
func (m *Manager) FormatInfo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ""
	}
	sr, speakerMode, raw, err := m.sys.SoftwareFormat()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dHz mode=%d raw=%d", sr, speakerMode, raw)
}

// DSPBuffer returns the raw buffer geometry (used by the listener
// manager's latency compensation) and whether the system is
// initialized.
func (m *Manager) DSPBuffer() (length uint32, numBuffers int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return 0, 0, false
	}
	l, n, err := m.sys.DSPBufferSize()
	if err != nil {
		return 0, 0, false
	}
	return l, n, true
}

// OutputSampleRate returns the configured mixer output sample rate and
// whether the system is initialized.
func (m *Manager) OutputSampleRate() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return 0, false
	}
	sr, _, _, err := m.sys.SoftwareFormat()
	if err != nil {
		return 0, false
	}
	return sr, true
}

// IsInitialized reports whether Initialize has succeeded and Shutdown
// has not yet been called.
func (m *Manager) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}
