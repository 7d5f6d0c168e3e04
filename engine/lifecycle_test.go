package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_LegalTransitionSequence(t *testing.T) {
	l := NewLifecycle()
	require.NoError(t, l.TransitionTo(Initializing, nil))
	require.NoError(t, l.TransitionTo(Initialized, nil))
	assert.Equal(t, Initialized, l.GetState())

	require.NoError(t, l.TransitionTo(Closing, nil))
	require.NoError(t, l.TransitionTo(Closed, nil))
	require.NoError(t, l.TransitionTo(Initializing, nil))
}

func TestLifecycle_IllegalTransitionRejected(t *testing.T) {
	l := NewLifecycle()
	err := l.TransitionTo(Initialized, nil)
	assert.Error(t, err)
	assert.Equal(t, Uninit, l.GetState())
}

func TestLifecycle_RollsBackOnActionFailure(t *testing.T) {
	l := NewLifecycle()
	boom := errors.New("boom")
	err := l.TransitionTo(Initializing, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Uninit, l.GetState())
}

func TestLifecycle_CompareAndSet(t *testing.T) {
	l := NewLifecycle()
	assert.True(t, l.CompareAndSet(Uninit, Initializing))
	assert.False(t, l.CompareAndSet(Uninit, Initializing))
	assert.False(t, l.CompareAndSet(Initializing, Closing))
}

func TestLifecycle_CheckStateAny(t *testing.T) {
	l := NewLifecycle()
	assert.NoError(t, l.CheckStateAny(Uninit, Initializing))
	assert.Error(t, l.CheckStateAny(Initialized))
}

func TestLifecycle_ExecuteInState(t *testing.T) {
	l := NewLifecycle()
	require.NoError(t, l.TransitionTo(Initializing, nil))
	ran := false
	require.NoError(t, l.ExecuteInState(Initializing, func() error { ran = true; return nil }))
	assert.True(t, ran)

	assert.Error(t, l.ExecuteInState(Initialized, func() error { return nil }))
}
