// Package recovery implements CodexPotter's per-round stream-recovery state
// machine: classifying retryable errors, computing exponential backoff, and
// deciding whether a TurnComplete/TurnAborted event should end the round.
package recovery

import (
	"strconv"
	"strings"
	"time"

	"github.com/breezewish/codex-potter-sub000/internal/events"
)

// MaxContinueRetries bounds the number of automatic "Continue" resubmissions
// issued for one unbroken streak of retryable errors.
const MaxContinueRetries = 10

// State tracks retries since the last observed activity event, for one
// round.
type State struct {
	continueSendsSinceActivity uint32
}

// New returns a fresh recovery state with no retries recorded.
func New() *State {
	return &State{}
}

// IsInRetryStreak reports whether a retryable error has been observed since
// the last activity event.
func (s *State) IsInRetryStreak() bool {
	return s.continueSendsSinceActivity > 0
}

// ObserveEvent resets the retry counter whenever msg counts as activity.
func (s *State) ObserveEvent(msg events.EventMsg) {
	if IsActivityEvent(msg) {
		s.continueSendsSinceActivity = 0
	}
}

// Decision is the outcome of PlanRetry.
type Decision int

const (
	// DecisionNone means the error was not retryable; the round ends normally.
	DecisionNone Decision = iota
	// DecisionRetry means the caller should emit a recovery-update event,
	// sleep for Backoff, then resubmit "Continue".
	DecisionRetry
	// DecisionGiveUp means the retry budget is exhausted; the round ends fatally.
	DecisionGiveUp
)

// Plan is the result of classifying one error against the current state.
type Plan struct {
	Decision     Decision
	Attempt      uint32        // valid when Decision == DecisionRetry
	MaxAttempts  uint32        // valid when Decision != DecisionNone
	Backoff      time.Duration // valid when Decision == DecisionRetry
	Attempts     uint32        // valid when Decision == DecisionGiveUp
}

// PlanRetry classifies err and, if retryable, advances the retry counter.
// Errors below the retry cap return DecisionRetry with the attempt number
// and backoff duration; at the cap, DecisionGiveUp. Non-retryable errors
// return DecisionNone and do not touch the counter.
func (s *State) PlanRetry(err *events.ErrorMsg) Plan {
	if !IsRetryableStreamError(err) {
		return Plan{Decision: DecisionNone}
	}
	if s.continueSendsSinceActivity >= MaxContinueRetries {
		return Plan{Decision: DecisionGiveUp, Attempts: s.continueSendsSinceActivity, MaxAttempts: MaxContinueRetries}
	}
	attempt := s.continueSendsSinceActivity + 1
	backoff := backoffForAttempt(attempt)
	s.continueSendsSinceActivity++
	return Plan{Decision: DecisionRetry, Attempt: attempt, MaxAttempts: MaxContinueRetries, Backoff: backoff}
}

// backoffForAttempt computes the exponential backoff for a 1-indexed retry
// attempt: 0s for the first, then 2^(n-2) seconds for n >= 2. The shift is
// clamped at 63 so the formula never produces undefined behavior if the
// cap is ever raised.
func backoffForAttempt(n uint32) time.Duration {
	if n <= 1 {
		return 0
	}
	shift := n - 2
	if shift > 63 {
		shift = 63
	}
	return time.Duration(uint64(1)<<shift) * time.Second
}

// ShouldExitOnTurnEnd decides whether a TurnComplete or TurnAborted event
// should end the round, consulting the retry-streak state for TurnComplete.
func (s *State) ShouldExitOnTurnEnd(msg events.EventMsg) bool {
	switch m := msg.(type) {
	case *events.TurnComplete:
		return !s.IsInRetryStreak()
	case *events.TurnAborted:
		switch m.Reason {
		case events.TurnAbortReplaced:
			return false
		case events.TurnAbortInterrupted, events.TurnAbortReviewEnded:
			return true
		default:
			return true
		}
	default:
		return false
	}
}

// IsActivityEvent reports whether msg counts as activity for stream
// recovery: any agent message/reasoning content, a completed tool call, a
// plan update, or a TurnComplete carrying a non-empty last agent message.
func IsActivityEvent(msg events.EventMsg) bool {
	switch m := msg.(type) {
	case *events.TurnComplete:
		return m.LastAgentMessage != nil && *m.LastAgentMessage != ""
	case *events.AgentMessage, *events.AgentMessageDelta,
		*events.AgentReasoning, *events.AgentReasoningDelta,
		*events.AgentReasoningRawContent, *events.AgentReasoningRawContentDelta,
		*events.AgentReasoningSectionBreak,
		*events.ExecCommandEnd, *events.PatchApplyEnd, *events.PlanUpdate,
		*events.ViewImageToolCall, *events.WebSearchEnd:
		return true
	default:
		_ = m
		return false
	}
}

// IsRetryableStreamError reports whether err represents a transient
// streaming/network failure recoverable by a follow-up "Continue". Errors
// whose CodexErrorInfo kind is in the retryable set are retryable outright;
// every other error (absent CodexErrorInfo, or any other kind, recognized or
// not) falls back to a tight message-substring match.
func IsRetryableStreamError(err *events.ErrorMsg) bool {
	if err == nil {
		return false
	}
	if err.CodexErrorInfo != nil {
		switch err.CodexErrorInfo.Kind {
		case events.CodexErrorHTTPConnectionFailed,
			events.CodexErrorResponseStreamConnectionFailed,
			events.CodexErrorResponseStreamDisconnected,
			events.CodexErrorResponseTooManyFailedAttempts,
			events.CodexErrorInternalServerError:
			return true
		}
	}

	message := err.Message
	if strings.Contains(message, "stream disconnected before completion") {
		return true
	}
	if strings.Contains(message, "error sending request for url") {
		return true
	}
	if code, ok := parseUnexpectedStatusCode(message); ok {
		return isRetryableHTTPStatus(code)
	}
	return false
}

func parseUnexpectedStatusCode(message string) (int, bool) {
	const marker = "unexpected status "
	idx := strings.Index(message, marker)
	if idx < 0 {
		return 0, false
	}
	rest := message[idx+len(marker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return code, true
}

func isRetryableHTTPStatus(code int) bool {
	return code == 408 || code == 429 || (code >= 500 && code < 600)
}
