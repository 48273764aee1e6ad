package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/breezewish/codex-potter-sub000/internal/events"
)

func TestMsgStateDoneMarkerInLastAgentMessage(t *testing.T) {
	s := &msgState{}
	last := "task finished DONE_MARKER"
	s.observe(&events.TurnComplete{LastAgentMessage: &last})
	assert.True(t, s.doneMarkerSeen)
	assert.True(t, s.turnCompleteSeen)
}

func TestMsgStateDoneMarkerInAccumulatedDeltas(t *testing.T) {
	s := &msgState{}
	s.observe(&events.AgentMessageDelta{Delta: "working... "})
	s.observe(&events.AgentMessageDelta{Delta: "DONE_MARKER"})
	s.observe(&events.TurnComplete{})
	assert.True(t, s.doneMarkerSeen)
}

func TestMsgStateAgentMessageIgnoredAfterDeltas(t *testing.T) {
	s := &msgState{}
	s.observe(&events.AgentMessageDelta{Delta: "DONE_MARKER"})
	s.observe(&events.AgentMessage{Message: "no marker here"})
	s.observe(&events.TurnComplete{})
	assert.True(t, s.doneMarkerSeen)
}

func TestMsgStateTurnAbortedAndErrorEndTurn(t *testing.T) {
	s1 := &msgState{}
	s1.observe(&events.TurnAborted{})
	assert.True(t, s1.turnCompleteSeen)

	s2 := &msgState{}
	s2.observe(&events.ErrorMsg{Message: "boom"})
	assert.True(t, s2.turnCompleteSeen)
}

func TestBuildArgsDefault(t *testing.T) {
	args := buildArgs(Config{SandboxMode: SandboxDefault})
	assert.Equal(t, []string{"app-server"}, args)
}

func TestBuildArgsSandboxAndBypass(t *testing.T) {
	args := buildArgs(Config{SandboxMode: SandboxReadOnly, BypassApprovalsAndSandbox: true})
	assert.Equal(t, []string{"--dangerously-bypass-approvals-and-sandbox", "--sandbox", "read-only", "app-server"}, args)
}

func TestSandboxWireValue(t *testing.T) {
	assert.Equal(t, "readOnly", SandboxReadOnly.wireValue())
	assert.Equal(t, "workspaceWrite", SandboxWorkspaceWrite.wireValue())
	assert.Equal(t, "dangerFullAccess", SandboxDangerFullAccess.wireValue())
	assert.Equal(t, "workspaceWrite", SandboxDefault.wireValue())
}
