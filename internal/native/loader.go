package native

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ebitengine/purego"
)

// LoadingMode selects how the shared library is located.
type LoadingMode int

const (
	// Packaged resolves the library by name from the OS library search
	// path (next to the executable, or the system loader's default
	// search locations).
	Packaged LoadingMode = iota
	// Unpackaged resolves the library from an explicit filesystem path
	// (LibraryPath), for development trees where the library isn't
	// installed alongside the binary.
	Unpackaged
)

// LibraryType selects between the release and diagnostic build of the
// native library. Both expose the identical ABI; Logging additionally
// writes verbose native-side diagnostics to its own log sink.
type LibraryType int

const (
	Standard LibraryType = iota
	Logging
)

// Config controls how the native library is located.
type Config struct {
	LoadingMode LoadingMode
	LibraryType LibraryType
	// LibraryPath is a directory (Packaged) or a file or directory
	// (Unpackaged), platform-specific. Empty means "search the default
	// locations".
	LibraryPath string
}

func (t LibraryType) baseName() string {
	if t == Logging {
		return "audiocoreL"
	}
	return "audiocore"
}

func platformFileName(base string) string {
	switch runtime.GOOS {
	case "windows":
		return base + ".dll"
	case "darwin":
		return "lib" + base + ".dylib"
	default:
		return "lib" + base + ".so"
	}
}

// resolvePath computes the path (or bare name) to hand to the dynamic
// loader for the given configuration.
func resolvePath(cfg Config) string {
	fileName := platformFileName(cfg.LibraryType.baseName())
	switch cfg.LoadingMode {
	case Unpackaged:
		if cfg.LibraryPath == "" {
			return fileName
		}
		// LibraryPath may itself be the library file, or a directory
		// containing it.
		if filepath.Ext(cfg.LibraryPath) != "" {
			return cfg.LibraryPath
		}
		return filepath.Join(cfg.LibraryPath, fileName)
	default: // Packaged
		if cfg.LibraryPath != "" {
			return filepath.Join(cfg.LibraryPath, fileName)
		}
		return fileName
	}
}

// Library is the set of native entry points the engine calls through.
// Every field is bound once at Load time via purego.RegisterLibFunc and
// never reassigned afterward, so concurrent callers need no additional
// synchronization to invoke them.
type Library struct {
	handle uintptr
	path   string

	// System_*
	systemCreate          func() uintptr
	systemInit            func(sys uintptr, maxChannels int32, flags uint32) int32
	systemUpdate          func(sys uintptr) int32
	systemRelease         func(sys uintptr) int32
	systemSetDSPBufferSize func(sys uintptr, bufferLength uint32, numBuffers int32) int32
	systemGetDSPBufferSize func(sys uintptr, bufferLength *uint32, numBuffers *int32) int32
	systemSetSoftwareFormat func(sys uintptr, sampleRate int32, speakerMode int32, numRawSpeakers int32) int32
	systemGetSoftwareFormat func(sys uintptr, sampleRate *int32, speakerMode *int32, numRawSpeakers *int32) int32
	systemGetVersion      func(sys uintptr, version *uint32) int32
	systemCreateSound     func(sys uintptr, path string, mode uint32, sound *uintptr) int32
	systemPlaySound       func(sys uintptr, sound uintptr, paused int32, channel *uintptr) int32

	// Sound_*
	soundRelease    func(sound uintptr) int32
	soundGetFormat  func(sound uintptr, soundType *int32, format *int32, channels *int32, bits *int32) int32
	soundGetDefaults func(sound uintptr, frequency *float32, priority *int32) int32
	soundGetLength  func(sound uintptr, length *uint32, lengthType int32) int32
	soundLock       func(sound uintptr, offset, length uint32, ptr1 *uintptr, ptr2 *uintptr, len1, len2 *uint32) int32
	soundUnlock     func(sound uintptr, ptr1, ptr2 uintptr, len1, len2 uint32) int32

	// Channel_*
	channelStop       func(channel uintptr) int32
	channelSetPaused  func(channel uintptr, paused int32) int32
	channelGetPaused  func(channel uintptr, paused *int32) int32
	channelSetPosition func(channel uintptr, position uint32, postype int32) int32
	channelGetPosition func(channel uintptr, position *uint32, postype int32) int32
	channelIsPlaying  func(channel uintptr, playing *int32) int32
}

// Load locates and loads the native library per cfg, then binds every
// symbol the engine needs. It is safe to call Load multiple times with
// different configs to obtain independent Library handles (used by the
// bulk reader, which owns its own native system instance).
func Load(cfg Config) (*Library, error) {
	path := resolvePath(cfg)
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("native: load %q: %w", path, err)
	}

	lib := &Library{handle: handle, path: path}
	bind := func(fptr interface{}, name string) {
		purego.RegisterLibFunc(fptr, handle, name)
	}

	bind(&lib.systemCreate, "System_Create")
	bind(&lib.systemInit, "System_Init")
	bind(&lib.systemUpdate, "System_Update")
	bind(&lib.systemRelease, "System_Release")
	bind(&lib.systemSetDSPBufferSize, "System_SetDSPBufferSize")
	bind(&lib.systemGetDSPBufferSize, "System_GetDSPBufferSize")
	bind(&lib.systemSetSoftwareFormat, "System_SetSoftwareFormat")
	bind(&lib.systemGetSoftwareFormat, "System_GetSoftwareFormat")
	bind(&lib.systemGetVersion, "System_GetVersion")
	bind(&lib.systemCreateSound, "System_CreateSound")
	bind(&lib.systemPlaySound, "System_PlaySound")

	bind(&lib.soundRelease, "Sound_Release")
	bind(&lib.soundGetFormat, "Sound_GetFormat")
	bind(&lib.soundGetDefaults, "Sound_GetDefaults")
	bind(&lib.soundGetLength, "Sound_GetLength")
	bind(&lib.soundLock, "Sound_Lock")
	bind(&lib.soundUnlock, "Sound_Unlock")

	bind(&lib.channelStop, "Channel_Stop")
	bind(&lib.channelSetPaused, "Channel_SetPaused")
	bind(&lib.channelGetPaused, "Channel_GetPaused")
	bind(&lib.channelSetPosition, "Channel_SetPosition")
	bind(&lib.channelGetPosition, "Channel_GetPosition")
	bind(&lib.channelIsPlaying, "Channel_IsPlaying")

	return lib, nil
}

// Close unloads the library. Safe to call once; calling it while native
// objects created from it are still alive is undefined behavior at the
// native layer, same as the upstream library's own contract.
func (l *Library) Close() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}

// Path reports the resolved library path or name used by Load.
func (l *Library) Path() string { return l.path }
