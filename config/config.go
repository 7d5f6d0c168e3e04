// Package config loads the engine's native-library resolution settings
// from a YAML file and resolves them against an explicit programmatic
// override, where an explicit field always beats a derived default.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaban/audioengine/internal/native"
)

// File is the on-disk shape of the engine's native-library config.
type File struct {
	LoadingMode string `yaml:"loading_mode"`
	LibraryType string `yaml:"library_type"`
	LibraryPath string `yaml:"library_path"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func (f File) loadingMode() native.LoadingMode {
	if f.LoadingMode == "unpackaged" {
		return native.Unpackaged
	}
	return native.Packaged
}

func (f File) libraryType() native.LibraryType {
	if f.LibraryType == "logging" {
		return native.Logging
	}
	return native.Standard
}

// Resolve merges a file-derived config with an explicit override.
// Every field of override that is non-zero wins; anything left at its
// zero value falls back to the value derived from file.
func Resolve(file File, override native.Config) native.Config {
	resolved := native.Config{
		LoadingMode: file.loadingMode(),
		LibraryType: file.libraryType(),
		LibraryPath: file.LibraryPath,
	}

	if override.LoadingMode != native.Packaged {
		resolved.LoadingMode = override.LoadingMode
	}
	if override.LibraryType != native.Standard {
		resolved.LibraryType = override.LibraryType
	}
	if override.LibraryPath != "" {
		resolved.LibraryPath = override.LibraryPath
	}
	return resolved
}
