// Package session is a thin touchpoint between the audio engine facade
// and an external RPC/session collaborator. It is deliberately not a
// transport or RPC implementation: it only names the boundary type the
// session object reports to its gateway, and a minimal adapter that
// turns engine facade callbacks into that shape.
package session

import (
	"github.com/shaban/audioengine/engine"
	"github.com/shaban/audioengine/internal/listening"
	"github.com/shaban/audioengine/internal/playback"
)

// StateChanged is what the session collaborator reports to the RPC
// gateway on every playback state transition.
type StateChanged struct {
	Previous playback.State
	Current  playback.State
	Context  playback.PlaybackHandle
}

// Reporter is implemented by whatever forwards StateChanged values on
// (the RPC gateway, a test spy, a log sink).
type Reporter interface {
	ReportStateChanged(StateChanged)
}

// Adapter subscribes to an Engine's playback listener and republishes
// every state change as a StateChanged to a Reporter. It owns no state
// of its own beyond the subscription token.
type Adapter struct {
	engine   *engine.Engine
	reporter Reporter
	token    listening.Token
}

// NewAdapter registers the adapter as a playback listener on eng and
// returns it. Call Close to unsubscribe.
func NewAdapter(eng *engine.Engine, reporter Reporter) *Adapter {
	a := &Adapter{engine: eng, reporter: reporter}
	a.token = eng.AddPlaybackListener(listening.PlaybackListener{
		OnStateChanged: func(h playback.PlaybackHandle, newState, oldState playback.State) {
			reporter.ReportStateChanged(StateChanged{Previous: oldState, Current: newState, Context: h})
		},
	})
	return a
}

// Close unsubscribes the adapter from its engine.
func (a *Adapter) Close() {
	a.engine.RemovePlaybackListener(a.token)
}
