// Command audioengine-demo drives the audio engine facade from flags:
// load a file, optionally play a sub-range, pause and resume, and stop.
// It does not seek. It exists to exercise the facade end to end as a
// real cmd/ entrypoint.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/shaban/audioengine/config"
	"github.com/shaban/audioengine/engine"
	"github.com/shaban/audioengine/internal/native"
	"github.com/shaban/audioengine/internal/playback"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to engine.yaml (optional)")
		file       = pflag.StringP("file", "f", "", "audio file to load and play")
		start      = pflag.Uint32P("start", "s", 0, "range start frame (0 for full-file playback)")
		end        = pflag.Uint32P("end", "e", 0, "range end frame (0 for full-file playback)")
		pauseAfter = pflag.Duration("pause-after", 0, "pause this long after starting playback")
		libPath    = pflag.String("library-path", "", "override the native library search path")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "audioengine-demo: --file is required")
		pflag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	nativeCfg := native.Config{}
	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			logger.Error("load config", "error", err)
			os.Exit(1)
		}
		nativeCfg = config.Resolve(f, native.Config{LibraryPath: *libPath})
	} else if *libPath != "" {
		nativeCfg.LibraryPath = *libPath
	}

	eng := engine.New(engine.Config{Native: nativeCfg, Logger: logger})
	if err := eng.Initialize(); err != nil {
		logger.Error("initialize engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	h, err := eng.LoadAudio(*file)
	if err != nil {
		logger.Error("load audio", "error", err)
		os.Exit(1)
	}

	meta, err := eng.GetMetadata(h)
	if err != nil {
		logger.Error("get metadata", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded", "file", *file, "sampleRate", meta.SampleRate, "channels", meta.ChannelCount, "frames", meta.FrameCount, "duration", meta.DurationSeconds)

	var p playback.PlaybackHandle
	if *end > *start {
		p, err = eng.PlayRange(h, *start, *end)
	} else {
		p, err = eng.Play(h)
	}
	if err != nil {
		logger.Error("play", "error", err)
		os.Exit(1)
	}

	runDemo(eng, p, *pauseAfter, logger)
	logger.Info("done", "playback", p.String())
}

// runDemo optionally pauses and resumes p, polls GetState until p is no
// longer Playing, and finally stops it. It does not seek.
func runDemo(eng *engine.Engine, p playback.PlaybackHandle, pauseAfter time.Duration, logger *slog.Logger) {
	if pauseAfter > 0 {
		time.Sleep(pauseAfter)
		if err := eng.Pause(p); err != nil {
			logger.Warn("pause failed", "error", err)
		} else {
			logger.Info("paused", "position", eng.GetPosition(p))
			time.Sleep(pauseAfter)
			if err := eng.Resume(p); err != nil {
				logger.Warn("resume failed", "error", err)
			}
		}
	}

	for eng.GetState(p) == playback.Playing {
		time.Sleep(50 * time.Millisecond)
	}

	if err := eng.Stop(p); err != nil {
		logger.Warn("stop failed", "error", err)
	}
}
