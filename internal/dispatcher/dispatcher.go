// Package dispatcher implements CodexPotter's event-stream dispatcher
// (§4.6): the per-turn consumer of backend UI events that drives stream
// recovery, tracks the active thread id, coalesces exploring tool calls,
// and decides when a turn ends. It is the one package that bridges the
// core (internal/backend, internal/events, internal/recovery) into
// bubbletea message-producing glue, since the widget tree itself is out of
// scope but the messages a TUI consumes are not. Grounded on the teacher's
// internal/pubsub + bubbletea wiring (tea.Msg-producing helpers feeding a
// Program's Update loop) generalized to this turn-rendering contract.
package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
	"github.com/breezewish/codex-potter-sub000/internal/events"
	"github.com/breezewish/codex-potter-sub000/internal/recovery"
)

// ExitReason is why a turn's render loop stopped, mirroring §4.6.
type ExitReason int

const (
	ExitCompleted ExitReason = iota
	ExitUserRequested
	ExitTaskFailed
	ExitFatal
)

// ExitInfo carries the reason plus, for TaskFailed/Fatal, the detail
// message.
type ExitInfo struct {
	Reason ExitReason
	Detail string // valid for ExitTaskFailed/ExitFatal
}

// AppExitInfo is the dispatcher's result for one turn, per §4.6.
type AppExitInfo struct {
	TokenUsage *events.TokenCount
	ThreadID   string
	Exit       ExitInfo
}

// EventMsg wraps one events.Event as a tea.Msg, the minimal adapter a
// bubbletea Program needs to fold backend/UI events into its Update loop.
type EventMsg struct {
	Event events.Event
}

// UserQuitMsg is sent by the TUI layer (out of scope here) to request a
// clean user-initiated exit from the current turn.
type UserQuitMsg struct{}

// Dispatcher holds the per-turn state described in §4.6: recovery state,
// the active thread id, and the in-progress "exploring" coalescing cell.
type Dispatcher struct {
	recovery       *recovery.State
	threadID       string
	exploring      *exploringCell
	lastTokenUsage *events.TokenCount
}

// New returns a fresh Dispatcher for one turn.
func New() *Dispatcher {
	return &Dispatcher{recovery: recovery.New()}
}

// exploringCell accumulates consecutive "exploring" ExecCommandEnd events
// (read/list/search parsed-command kinds) into one coalesced unit.
type exploringCell struct {
	commands []events.ExecCommandEnd
}

// isExploringExecCommand classifies a parsed_cmd payload's "kind" field as
// "exploring" (read/list/search), matching the TUI's transcript-coalescing
// behavior so a long `ls`/`grep`/`cat` chain renders as one cell instead of
// one per command.
func isExploringExecCommand(ev *events.ExecCommandEnd) bool {
	kind := parsedCmdKind(ev.ParsedCmd)
	switch kind {
	case "read", "list_files", "search":
		return true
	default:
		return false
	}
}

func parsedCmdKind(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.Kind
}

// DispatchResult is what HandleEvent asks the turn-rendering loop to do
// next.
type DispatchResult struct {
	// RetryOp is non-nil when the dispatcher wants a "Continue" op
	// resubmitted after sleeping for RetrySleep.
	RetryOp    *backend.Op
	RetrySleep time.Duration
	// RecoveryUpdate/RecoveryGaveUp, when non-nil, should be forwarded to
	// the UI as the corresponding Potter* synthetic events before anything
	// else in this result is acted on.
	RecoveryUpdate *events.PotterStreamRecoveryUpdate
	RecoveryGaveUp *events.PotterStreamRecoveryGaveUp
	// TurnEnded is true when this event finalizes the turn (§4.6's
	// should_exit_on_turn_end contract, or a non-retryable ErrorMsg).
	TurnEnded bool
	// Exit is valid when TurnEnded is true.
	Exit ExitInfo
	// CoalescedExploring, when non-nil, is a just-flushed run of
	// consecutive exploring ExecCommandEnd events the UI should render as
	// one cell.
	CoalescedExploring []events.ExecCommandEnd
}

// HandleEvent implements §4.6's per-event contract: retry planning, thread
// id tracking, turn-end detection, and exploring-cell coalescing.
func (d *Dispatcher) HandleEvent(ev events.Event) DispatchResult {
	var result DispatchResult

	if sc, ok := ev.Msg.(*events.SessionConfigured); ok {
		d.threadID = sc.ThreadID
	}

	if tc, ok := ev.Msg.(*events.TokenCount); ok {
		d.lastTokenUsage = tc
	}

	if errMsg, ok := ev.Msg.(*events.ErrorMsg); ok {
		plan := d.recovery.PlanRetry(errMsg)
		switch plan.Decision {
		case recovery.DecisionRetry:
			result.RecoveryUpdate = &events.PotterStreamRecoveryUpdate{
				Attempt:      plan.Attempt,
				MaxAttempts:  plan.MaxAttempts,
				ErrorMessage: errMsg.Message,
			}
			op := backend.NewTextInputOp("Continue")
			result.RetryOp = &op
			result.RetrySleep = plan.Backoff
			d.recovery.ObserveEvent(ev.Msg)
			return d.flushExploring(result)
		case recovery.DecisionGiveUp:
			result.RecoveryGaveUp = &events.PotterStreamRecoveryGaveUp{
				ErrorMessage: errMsg.Message,
				Attempts:     plan.Attempts,
				MaxAttempts:  plan.MaxAttempts,
			}
			result.TurnEnded = true
			result.Exit = ExitInfo{Reason: ExitFatal, Detail: errMsg.Message}
			return d.flushExploring(result)
		}
	}

	d.recovery.ObserveEvent(ev.Msg)

	if execEnd, ok := ev.Msg.(*events.ExecCommandEnd); ok && isExploringExecCommand(execEnd) {
		if d.exploring == nil {
			d.exploring = &exploringCell{}
		}
		d.exploring.commands = append(d.exploring.commands, *execEnd)
		return result
	}

	result = d.flushExploring(result)

	// A retryable error has already returned above, so an ErrorMsg reaching
	// this point is not retryable and ends the turn.
	if _, isErr := ev.Msg.(*events.ErrorMsg); isErr || d.recovery.ShouldExitOnTurnEnd(ev.Msg) {
		result.TurnEnded = true
		result.Exit = d.exitForTurnEnd(ev.Msg)
	}

	return result
}

func (d *Dispatcher) exitForTurnEnd(msg events.EventMsg) ExitInfo {
	switch msg.(type) {
	case *events.TurnComplete:
		return ExitInfo{Reason: ExitCompleted}
	case *events.TurnAborted:
		return ExitInfo{Reason: ExitUserRequested}
	default:
		return ExitInfo{Reason: ExitCompleted}
	}
}

func (d *Dispatcher) flushExploring(result DispatchResult) DispatchResult {
	if d.exploring == nil || len(d.exploring.commands) == 0 {
		return result
	}
	result.CoalescedExploring = d.exploring.commands
	d.exploring = nil
	return result
}

// ThreadID returns the thread id recorded from the most recent
// SessionConfigured event.
func (d *Dispatcher) ThreadID() string { return d.threadID }

// Finish builds the AppExitInfo §4.6 specifies once the turn's render loop
// has decided to stop.
func (d *Dispatcher) Finish(exit ExitInfo) AppExitInfo {
	return AppExitInfo{TokenUsage: d.lastTokenUsage, ThreadID: d.threadID, Exit: exit}
}

// ListenCmd adapts a <-chan events.Event into a tea.Cmd that resolves to an
// EventMsg, the glue SPEC_FULL.md §11 wires bubbletea through, mirroring the
// teacher's pubsub.ListenCmd shape specialized to this channel type instead
// of a generic broker subscription.
func ListenCmd(ctx context.Context, eventsCh <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-eventsCh:
			if !ok {
				return nil
			}
			return EventMsg{Event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}
