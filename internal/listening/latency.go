package listening

// LatencyParams describes the native mixer geometry and the rates
// needed to convert a decoded PCM position into the position the user
// is actually hearing.
type LatencyParams struct {
	BufferLength uint32
	NumBuffers   int
	OutputRate   int
	SourceRate   int
}

// valid reports whether every rate/geometry field is usable; if any
// is zero the caller must fall back to the uncompensated position.
func (p LatencyParams) valid() bool {
	return p.BufferLength != 0 && p.NumBuffers != 0 && p.OutputRate != 0 && p.SourceRate != 0
}

// hearingPosition applies the latency-compensation formula: given the
// decoded (native-reported) position and the playback's start frame,
// returns the absolute frame the user is currently hearing.
func hearingPosition(decoded, startFrame uint32, p LatencyParams) uint32 {
	if !p.valid() {
		return decoded
	}

	leadOut := p.BufferLength*uint32(max(0, p.NumBuffers-1)) + p.BufferLength/2

	leadSrc := leadOut
	if p.SourceRate != p.OutputRate {
		leadSrc = uint32(roundRatio(uint64(leadOut)*uint64(p.SourceRate), uint64(p.OutputRate)))
	}

	var rel uint32
	if decoded > startFrame {
		rel = decoded - startFrame
	}
	if leadSrc > rel {
		leadSrc = rel
	}

	return startFrame + (rel - leadSrc)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// roundRatio computes round(num/den) using integer arithmetic only.
func roundRatio(num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	return (num + den/2) / den
}
