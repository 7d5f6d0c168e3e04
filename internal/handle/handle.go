// Package handle mints an AudioHandle for each loaded sound and
// answers validity/currency checks so stale handles from a previous
// load are rejected rather than silently acting on the wrong sound.
package handle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/shaban/audioengine/internal/native"
)

// AudioHandle identifies one loaded-sound generation. It is a value
// type: copying it is cheap and safe, and a stale copy simply fails
// Manager.IsValid once a newer handle has been minted.
type AudioHandle struct {
	id         uuid.UUID
	generation uint64
}

// Zero reports whether h is the unset AudioHandle (no sound ever
// loaded through this Manager).
func (h AudioHandle) Zero() bool {
	return h.generation == 0
}

func (h AudioHandle) String() string {
	if h.Zero() {
		return "<no-handle>"
	}
	return h.id.String()
}

// Manager owns the single current AudioHandle/sound/path triple: only
// one sound can be loaded at a time. Minting a new handle invalidates
// the previous one immediately, regardless of whether the previous
// sound has actually been released yet.
type Manager struct {
	mu         sync.Mutex
	generation uint64
	current    AudioHandle
	sound      native.SoundAPI
	path       string
}

// NewManager returns an empty Manager (Zero handle, no sound loaded).
func NewManager() *Manager {
	return &Manager{}
}

// Create mints a new AudioHandle bound to sound and path, replacing
// whatever handle/sound/path was previously current. The caller is
// responsible for releasing the previous sound, if any (the loading
// manager creates the new sound, releases the old one, and then calls
// Create).
func (m *Manager) Create(sound native.SoundAPI, path string) AudioHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	h := AudioHandle{id: uuid.New(), generation: m.generation}
	m.current = h
	m.sound = sound
	m.path = path
	return h
}

// IsValid reports whether h is exactly the current handle: its
// generation counter and identity must both match (a forged or
// coincidentally-reused generation number without the matching id is
// never valid).
func (m *Manager) IsValid(h AudioHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isCurrentLocked(h)
}

// IsCurrent is an alias for IsValid; callers use whichever reads
// better at the call site.
func (m *Manager) IsCurrent(h AudioHandle) bool {
	return m.IsValid(h)
}

func (m *Manager) isCurrentLocked(h AudioHandle) bool {
	if h.Zero() || m.current.Zero() {
		return false
	}
	return h.generation == m.current.generation && h.id == m.current.id
}

// Current returns the current handle, sound, and path. ok is false if
// nothing has ever been loaded or Clear was called since.
func (m *Manager) Current() (h AudioHandle, sound native.SoundAPI, path string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Zero() {
		return AudioHandle{}, nil, "", false
	}
	return m.current, m.sound, m.path, true
}

// Clear invalidates the current handle without minting a new one. Used
// when the current sound is released and nothing replaces it, e.g. on
// release_all or engine close.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = AudioHandle{}
	m.sound = nil
	m.path = ""
}
