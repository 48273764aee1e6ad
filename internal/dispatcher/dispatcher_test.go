package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezewish/codex-potter-sub000/internal/events"
)

func TestHandleEventRetryableErrorPlansRetryWithoutEndingTurn(t *testing.T) {
	d := New()
	ev := events.Event{Msg: &events.ErrorMsg{Message: "stream disconnected before completion"}}

	result := d.HandleEvent(ev)
	require.NotNil(t, result.RecoveryUpdate)
	assert.Equal(t, uint32(1), result.RecoveryUpdate.Attempt)
	require.NotNil(t, result.RetryOp)
	assert.False(t, result.TurnEnded)
}

func TestHandleEventNonRetryableErrorEndsTurn(t *testing.T) {
	d := New()
	ev := events.Event{Msg: &events.ErrorMsg{Message: "totally unrecoverable"}}

	result := d.HandleEvent(ev)
	assert.Nil(t, result.RecoveryUpdate)
	assert.True(t, result.TurnEnded)
	assert.Equal(t, ExitCompleted, result.Exit.Reason)
}

func TestHandleEventTurnCompleteDuringRetryStreakDoesNotEndTurn(t *testing.T) {
	d := New()
	_ = d.HandleEvent(events.Event{Msg: &events.ErrorMsg{Message: "error sending request for url: timed out"}})

	result := d.HandleEvent(events.Event{Msg: &events.TurnComplete{}})
	assert.False(t, result.TurnEnded)
}

func TestHandleEventSessionConfiguredTracksThreadID(t *testing.T) {
	d := New()
	_ = d.HandleEvent(events.Event{Msg: &events.SessionConfigured{ThreadID: "T1"}})
	assert.Equal(t, "T1", d.ThreadID())
}

func TestHandleEventCoalescesExploringExecCommands(t *testing.T) {
	d := New()
	read := &events.ExecCommandEnd{ParsedCmd: []byte(`{"kind":"read"}`)}

	result := d.HandleEvent(events.Event{Msg: read})
	assert.Nil(t, result.CoalescedExploring)

	result = d.HandleEvent(events.Event{Msg: &events.AgentMessage{Message: "done looking"}})
	require.Len(t, result.CoalescedExploring, 1)
}

func TestHandleEventGiveUpExitsFatal(t *testing.T) {
	d := New()
	for i := 0; i < 11; i++ {
		result := d.HandleEvent(events.Event{Msg: &events.ErrorMsg{Message: "unexpected status 503 from server"}})
		if i == 10 {
			require.NotNil(t, result.RecoveryGaveUp)
			assert.True(t, result.TurnEnded)
			assert.Equal(t, ExitFatal, result.Exit.Reason)
		}
	}
}
