package loading

import (
	"errors"
	"fmt"

	"github.com/shaban/audioengine/internal/native"
)

// LoadErrorKind classifies why load_audio failed.
type LoadErrorKind int

const (
	FileNotFound LoadErrorKind = iota
	Unsupported
	Corrupted
	OutOfMemory
	PathInvalid
	LoadFailed
)

func (k LoadErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case Unsupported:
		return "Unsupported"
	case Corrupted:
		return "Corrupted"
	case OutOfMemory:
		return "OutOfMemory"
	case PathInvalid:
		return "PathInvalid"
	default:
		return "LoadFailed"
	}
}

// LoadError is the error returned by load_audio failures. Kind is
// always set; Err carries the underlying native, filesystem, or
// path-validation cause for logging.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %q: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %q: %s", e.Path, e.Kind)
}

func (e *LoadError) Unwrap() error { return e.Err }

// mapNativeError converts a native creation failure into the matching
// LoadError kind.
func mapNativeError(path string, err error) *LoadError {
	switch {
	case errors.Is(err, native.FileNotFound):
		return &LoadError{Kind: FileNotFound, Path: path, Err: err}
	case errors.Is(err, native.BadFormat):
		return &LoadError{Kind: Unsupported, Path: path, Err: err}
	case errors.Is(err, native.CorruptFile):
		return &LoadError{Kind: Corrupted, Path: path, Err: err}
	case errors.Is(err, native.OutOfMemory):
		return &LoadError{Kind: OutOfMemory, Path: path, Err: err}
	default:
		return &LoadError{Kind: LoadFailed, Path: path, Err: err}
	}
}
