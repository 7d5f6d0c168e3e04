package listening

import "github.com/shaban/audioengine/internal/playback"

// PlaybackListener holds the four optional callbacks a subscriber may
// provide. A nil field means the subscriber isn't interested in that
// event; Manager never calls a nil field.
type PlaybackListener struct {
	OnProgress         func(h playback.PlaybackHandle, positionFrames, totalFrames uint32)
	OnStateChanged     func(h playback.PlaybackHandle, newState, oldState playback.State)
	OnPlaybackComplete func(h playback.PlaybackHandle)
	OnPlaybackError    func(h *playback.PlaybackHandle, message string)
}

// Token identifies a registered PlaybackListener for removal.
type Token uint64
