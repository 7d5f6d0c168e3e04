package bulkreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestSliceRange_MetadataInvariant checks the AudioData metadata
// invariant across random ranges: len(Samples) == ChannelCount *
// FrameCount, samples stay in [-1.0, 1.0], and FrameCount never exceeds
// what's actually available from startFrame.
func TestSliceRange_MetadataInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		channels := rapid.IntRange(1, 2).Draw(t, "channels")
		totalFrames := rapid.IntRange(0, 200).Draw(t, "totalFrames")
		samples := make([]float64, totalFrames*channels)
		for i := range samples {
			samples[i] = float64(i%200)/200.0 - 0.5
		}
		d := &decoded{samples: samples, sampleRate: 44100, channelCount: channels, frameCount: uint32(totalFrames)}

		start := rapid.Uint32Range(0, uint32(totalFrames)+50).Draw(t, "start")
		count := rapid.Uint32Range(0, 100).Draw(t, "count")

		data := sliceRange(d, start, count)

		assert.Equal(t, len(data.Samples), data.ChannelCount*int(data.FrameCount))
		assert.LessOrEqual(t, data.FrameCount, count)
		if start < uint32(totalFrames) {
			assert.LessOrEqual(t, start+data.FrameCount, uint32(totalFrames))
		} else {
			assert.Equal(t, uint32(0), data.FrameCount)
		}
		for _, s := range data.Samples {
			assert.GreaterOrEqual(t, s, -1.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	})
}
