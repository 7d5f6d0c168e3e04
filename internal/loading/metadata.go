package loading

import (
	"github.com/shaban/audioengine/internal/native"
)

// AudioMetadata describes a loaded sound.
type AudioMetadata struct {
	SampleRate      int
	ChannelCount    int
	BitsPerSample   int
	Format          string
	FrameCount      uint32
	DurationSeconds float64
}

func formatTag(t native.SoundType) string {
	switch t {
	case native.SoundWAV:
		return "WAV"
	case native.SoundAIFF:
		return "AIFF"
	case native.SoundMP3:
		return "MP3"
	case native.SoundOGGVorbis:
		return "OGG"
	case native.SoundFLAC:
		return "FLAC"
	case native.SoundOpus:
		return "Opus"
	case native.SoundRAW:
		return "RAW"
	default:
		return "Unknown"
	}
}

// extractMetadata reads sound's format, defaults, and length and
// computes duration as frames/frequency rather than from the
// milliseconds accessor, for precision.
func extractMetadata(sound native.SoundAPI) (AudioMetadata, error) {
	soundType, _, channels, bits, err := sound.Format()
	if err != nil {
		return AudioMetadata{}, err
	}
	frequency, _, err := sound.Defaults()
	if err != nil {
		return AudioMetadata{}, err
	}
	frames, err := sound.LengthFrames()
	if err != nil {
		return AudioMetadata{}, err
	}

	var duration float64
	if frequency > 0 {
		duration = float64(frames) / float64(frequency)
	}

	return AudioMetadata{
		SampleRate:      int(frequency),
		ChannelCount:    channels,
		BitsPerSample:   bits,
		Format:          formatTag(soundType),
		FrameCount:      frames,
		DurationSeconds: duration,
	}, nil
}
