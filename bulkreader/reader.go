// Package bulkreader decodes a whole audio file into a normalized
// float64 buffer, caches it per path, and serves random-range reads
// for waveform rendering on a background pool. It owns a private
// native system instance, entirely separate from the playback
// engine's.
package bulkreader

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaban/audioengine/internal/native"
)

const (
	maxChannels  = 32
	inFlightCap  = 4
)

// AudioData is the value type returned by a range read: interleaved
// normalized samples in [-1.0, 1.0].
type AudioData struct {
	Samples      []float64
	SampleRate   int
	ChannelCount int
	StartFrame   uint32
	FrameCount   uint32
}

type decoded struct {
	samples      []float64
	sampleRate   int
	channelCount int
	frameCount   uint32
}

// Future is the handle returned by ReadRange; Wait blocks until the
// background read completes.
type Future struct {
	done   chan struct{}
	result AudioData
	err    error
}

// Wait blocks until the read finishes and returns its result.
func (f *Future) Wait() (AudioData, error) {
	<-f.done
	return f.result, f.err
}

// Factory mirrors nativesystem.Factory, letting tests inject a fake
// system without a real native library loaded.
type Factory func(cfg native.Config) (*native.Library, native.SystemAPI, error)

func defaultFactory(cfg native.Config) (*native.Library, native.SystemAPI, error) {
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

// Reader owns the private decode-only native system and the per-path
// decode cache.
type Reader struct {
	log *slog.Logger
	lib *native.Library
	sys native.SystemAPI

	mu    sync.Mutex
	cache map[string]*decoded

	sem chan struct{}
}

// NewReader loads a private native system (32 channels, minimal init
// flags) and returns a Reader ready to serve reads.
func NewReader(cfg native.Config, factory Factory, logger *slog.Logger) (*Reader, error) {
	if factory == nil {
		factory = defaultFactory
	}
	if logger == nil {
		logger = slog.Default()
	}

	lib, sys, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("bulkreader: create system: %w", err)
	}
	if err := sys.Init(maxChannels, native.InitNormal); err != nil {
		sys.Release()
		return nil, fmt.Errorf("bulkreader: init: %w", err)
	}

	return &Reader{
		log:   logger,
		lib:   lib,
		sys:   sys,
		cache: make(map[string]*decoded),
		sem:   make(chan struct{}, inFlightCap),
	}, nil
}

// Close releases the private native system. Safe to call once.
func (r *Reader) Close() error {
	err := r.sys.Release()
	if r.lib != nil {
		r.lib.Close()
	}
	return err
}

// ReadRange dispatches a range read to the background pool and returns
// a Future immediately. Internally the decode-and-cache step runs under a
// synchronous critical section so concurrent reads of the same path
// decode it only once.
func (r *Reader) ReadRange(path string, startFrame, frameCount uint32) *Future {
	fut := &Future{done: make(chan struct{})}
	go func() {
		r.sem <- struct{}{}
		defer func() { <-r.sem }()
		defer close(fut.done)

		d, err := r.getOrDecode(path)
		if err != nil {
			fut.err = err
			return
		}
		fut.result = sliceRange(d, startFrame, frameCount)
	}()
	return fut
}

// getOrDecode returns the cached decode for path, decoding it first if
// this is the first request for that path.
func (r *Reader) getOrDecode(path string) (*decoded, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.cache[path]; ok {
		return d, nil
	}

	d, err := r.decodeFile(path)
	if err != nil {
		return nil, err
	}
	r.cache[path] = d
	r.log.Debug("bulkreader: decoded and cached", "path", path, "frames", d.frameCount)
	return d, nil
}

// decodeFile fully decodes path into a normalized sample buffer via
// the native system's Lock/Unlock.
func (r *Reader) decodeFile(path string) (*decoded, error) {
	sound, err := r.sys.CreateSound(path, native.CreateAccurateTime)
	if err != nil {
		return nil, fmt.Errorf("bulkreader: open %s: %w", path, err)
	}
	defer sound.Release()

	_, format, channels, bits, err := sound.Format()
	if err != nil {
		return nil, fmt.Errorf("bulkreader: format %s: %w", path, err)
	}
	_ = format

	frames, err := sound.LengthFrames()
	if err != nil {
		return nil, fmt.Errorf("bulkreader: length %s: %w", path, err)
	}

	totalBytes := frames * uint32(bytesPerFrame(channels, bits))
	a, b, err := sound.Lock(0, totalBytes)
	if err != nil {
		return nil, fmt.Errorf("bulkreader: lock %s: %w", path, err)
	}

	samples := make([]float64, 0, int(frames)*channels)
	samples = append(samples, normalizeSamples(bytesFromRegion(a), bits)...)
	samples = append(samples, normalizeSamples(bytesFromRegion(b), bits)...)

	if err := sound.Unlock(a, b); err != nil {
		return nil, fmt.Errorf("bulkreader: unlock %s: %w", path, err)
	}

	sampleRate, _, err := sound.Defaults()
	if err != nil {
		return nil, fmt.Errorf("bulkreader: defaults %s: %w", path, err)
	}

	return &decoded{
		samples:      samples,
		sampleRate:   int(sampleRate),
		channelCount: channels,
		frameCount:   uint32(len(samples) / channels),
	}, nil
}

// sliceRange extracts [startFrame, startFrame+frameCount) from d,
// truncating at EOF: the returned FrameCount may be less than requested.
func sliceRange(d *decoded, startFrame, frameCount uint32) AudioData {
	ch := d.channelCount
	if ch == 0 {
		ch = 1
	}

	if startFrame >= d.frameCount {
		return AudioData{SampleRate: d.sampleRate, ChannelCount: ch, StartFrame: startFrame, FrameCount: 0}
	}

	end := startFrame + frameCount
	if end > d.frameCount {
		end = d.frameCount
	}

	lo := int(startFrame) * ch
	hi := int(end) * ch
	out := make([]float64, hi-lo)
	copy(out, d.samples[lo:hi])

	return AudioData{
		Samples:      out,
		SampleRate:   d.sampleRate,
		ChannelCount: ch,
		StartFrame:   startFrame,
		FrameCount:   end - startFrame,
	}
}
