// Package events models the Codex app server's event stream: the typed
// EventMsg sum type emitted as the payload of "codex/event/*" notifications,
// plus the CodexPotter-synthetic variants produced only by the round runner.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type enumerates every EventMsg variant, tagged by the wire's "type" field
// (snake_case).
type Type string

const (
	TypeSessionConfigured Type = "session_configured"
	TypeTurnStarted       Type = "turn_started"
	TypeTurnComplete      Type = "turn_complete"
	TypeTurnAborted       Type = "turn_aborted"
	TypeError             Type = "error"
	TypeWarning           Type = "warning"
	TypeStreamError       Type = "stream_error"

	TypeAgentMessage                  Type = "agent_message"
	TypeAgentMessageDelta             Type = "agent_message_delta"
	TypeAgentReasoning                Type = "agent_reasoning"
	TypeAgentReasoningDelta           Type = "agent_reasoning_delta"
	TypeAgentReasoningRawContent      Type = "agent_reasoning_raw_content"
	TypeAgentReasoningRawContentDelta Type = "agent_reasoning_raw_content_delta"
	TypeAgentReasoningSectionBreak    Type = "agent_reasoning_section_break"

	TypeExecCommandEnd   Type = "exec_command_end"
	TypePatchApplyEnd    Type = "patch_apply_end"
	TypeWebSearchEnd     Type = "web_search_end"
	TypeViewImageToolCall Type = "view_image_tool_call"
	TypePlanUpdate       Type = "plan_update"

	TypeTokenCount        Type = "token_count"
	TypeContextCompacted  Type = "context_compacted"
	TypeDeprecationNotice Type = "deprecation_notice"

	// CodexPotter-synthetic: never emitted by the server.
	TypePotterSessionStarted          Type = "potter_session_started"
	TypePotterRoundStarted            Type = "potter_round_started"
	TypePotterStreamRecoveryUpdate    Type = "potter_stream_recovery_update"
	TypePotterStreamRecoveryRecovered Type = "potter_stream_recovery_recovered"
	TypePotterStreamRecoveryGaveUp    Type = "potter_stream_recovery_gave_up"
	TypePotterRoundFinished           Type = "potter_round_finished"
	TypePotterSessionSucceeded        Type = "potter_session_succeeded"

	// TypeUnknown is the required fallthrough for future event types the
	// decoder does not recognize; it never appears literally on the wire.
	TypeUnknown Type = "unknown"
)

// TurnComplete has two historical wire aliases that must both decode.
const (
	wireTypeTurnCompleteAlias = "task_complete"
)

// EventMsg is the sum type over every event payload. Concrete variants below
// each implement it; Type reports the variant's wire tag.
type EventMsg interface {
	Type() Type
}

// CodexErrorInfo enumerates the server's structured error causes. On the
// wire this is a Rust enum with no serde tag attribute, so it is externally
// tagged: a unit variant decodes as a bare JSON string ("bad_request"), a
// data-carrying variant decodes as a single-key object whose key is the
// variant name ({"http_connection_failed": {"http_status_code": 503}}).
// The retryable subset is classified by internal/recovery, not here.
type CodexErrorInfo struct {
	Kind CodexErrorKind
	// HTTPStatusCode is set only for the data-carrying Kind values below.
	HTTPStatusCode *int
}

// CodexErrorKind is the discriminant of CodexErrorInfo, matching the
// variant's snake_case name on the wire.
type CodexErrorKind string

const (
	CodexErrorContextWindowExceeded          CodexErrorKind = "context_window_exceeded"
	CodexErrorUsageLimitExceeded             CodexErrorKind = "usage_limit_exceeded"
	CodexErrorHTTPConnectionFailed           CodexErrorKind = "http_connection_failed"
	CodexErrorResponseStreamConnectionFailed CodexErrorKind = "response_stream_connection_failed"
	CodexErrorInternalServerError            CodexErrorKind = "internal_server_error"
	CodexErrorUnauthorized                   CodexErrorKind = "unauthorized"
	CodexErrorBadRequest                     CodexErrorKind = "bad_request"
	CodexErrorSandboxError                   CodexErrorKind = "sandbox_error"
	CodexErrorResponseStreamDisconnected     CodexErrorKind = "response_stream_disconnected"
	CodexErrorResponseTooManyFailedAttempts  CodexErrorKind = "response_too_many_failed_attempts"
	CodexErrorThreadRollbackFailed           CodexErrorKind = "thread_rollback_failed"
	CodexErrorOther                          CodexErrorKind = "other"
	// CodexErrorUnknown covers variants this build does not recognize;
	// tolerating them is required by the "extensible enumerations" design
	// note. It never appears literally on the wire.
	CodexErrorUnknown CodexErrorKind = ""
)

// codexErrorDataKinds are the CodexErrorInfo variants that carry an
// http_status_code field and so decode/encode as a single-key object
// instead of a bare string.
var codexErrorDataKinds = map[CodexErrorKind]bool{
	CodexErrorHTTPConnectionFailed:           true,
	CodexErrorResponseStreamConnectionFailed: true,
	CodexErrorResponseStreamDisconnected:     true,
	CodexErrorResponseTooManyFailedAttempts:  true,
}

type codexErrorInfoData struct {
	HTTPStatusCode *int `json:"http_status_code"`
}

// MarshalJSON encodes CodexErrorInfo in the original's externally-tagged
// shape: a bare string for unit variants, a single-key-wrapped object for
// variants that carry http_status_code.
func (c CodexErrorInfo) MarshalJSON() ([]byte, error) {
	if codexErrorDataKinds[c.Kind] {
		return json.Marshal(map[string]codexErrorInfoData{
			string(c.Kind): {HTTPStatusCode: c.HTTPStatusCode},
		})
	}
	return json.Marshal(string(c.Kind))
}

// UnmarshalJSON decodes CodexErrorInfo from either wire shape. An
// unrecognized variant name still decodes into Kind rather than failing,
// per the "extensible enumerations" design note.
func (c *CodexErrorInfo) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		c.Kind = CodexErrorKind(bare)
		c.HTTPStatusCode = nil
		return nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("events: decode codex_error_info: %w", err)
	}
	if len(wrapped) != 1 {
		return fmt.Errorf("events: decode codex_error_info: expected a single-key object, got %d keys", len(wrapped))
	}
	for kind, raw := range wrapped {
		var data codexErrorInfoData
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("events: decode codex_error_info %s payload: %w", kind, err)
		}
		c.Kind = CodexErrorKind(kind)
		c.HTTPStatusCode = data.HTTPStatusCode
	}
	return nil
}

// Event is the envelope carried as the params of a "codex/event/<name>"
// notification: {id, msg}. id correlates to a submission but the core only
// passes it through.
type Event struct {
	ID  string
	Msg EventMsg
}

type eventWire struct {
	ID  string          `json:"id"`
	Msg json.RawMessage `json:"msg"`
}

type msgTypeProbe struct {
	Type string `json:"type"`
}

// UnmarshalJSON decodes {id, msg} into an Event, dispatching msg to the
// concrete EventMsg variant named by msg.type. Unrecognized types decode to
// an Unknown fallthrough instead of failing, per the "extensible
// enumerations" design note.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("events: decode envelope: %w", err)
	}
	e.ID = wire.ID

	var probe msgTypeProbe
	if err := json.Unmarshal(wire.Msg, &probe); err != nil {
		return fmt.Errorf("events: decode msg type probe: %w", err)
	}

	msg, err := decodeMsg(normalizeType(probe.Type), wire.Msg)
	if err != nil {
		return err
	}
	e.Msg = msg
	return nil
}

// MarshalJSON encodes an Event back to its wire envelope.
func (e Event) MarshalJSON() ([]byte, error) {
	var msgBytes json.RawMessage
	var err error
	if e.Msg != nil {
		msgBytes, err = json.Marshal(e.Msg)
		if err != nil {
			return nil, err
		}
	} else {
		msgBytes = json.RawMessage("null")
	}
	return json.Marshal(eventWire{ID: e.ID, Msg: msgBytes})
}

func normalizeType(wire string) Type {
	if wire == wireTypeTurnCompleteAlias {
		return TypeTurnComplete
	}
	return Type(wire)
}

func decodeMsg(t Type, raw json.RawMessage) (EventMsg, error) {
	var msg EventMsg
	switch t {
	case TypeSessionConfigured:
		msg = &SessionConfigured{}
	case TypeTurnStarted:
		msg = &TurnStarted{}
	case TypeTurnComplete:
		msg = &TurnComplete{}
	case TypeTurnAborted:
		msg = &TurnAborted{}
	case TypeError:
		msg = &ErrorMsg{}
	case TypeWarning:
		msg = &Warning{}
	case TypeStreamError:
		msg = &StreamError{}
	case TypeAgentMessage:
		msg = &AgentMessage{}
	case TypeAgentMessageDelta:
		msg = &AgentMessageDelta{}
	case TypeAgentReasoning:
		msg = &AgentReasoning{}
	case TypeAgentReasoningDelta:
		msg = &AgentReasoningDelta{}
	case TypeAgentReasoningRawContent:
		msg = &AgentReasoningRawContent{}
	case TypeAgentReasoningRawContentDelta:
		msg = &AgentReasoningRawContentDelta{}
	case TypeAgentReasoningSectionBreak:
		msg = &AgentReasoningSectionBreak{}
	case TypeExecCommandEnd:
		msg = &ExecCommandEnd{}
	case TypePatchApplyEnd:
		msg = &PatchApplyEnd{}
	case TypeWebSearchEnd:
		msg = &WebSearchEnd{}
	case TypeViewImageToolCall:
		msg = &ViewImageToolCall{}
	case TypePlanUpdate:
		msg = &PlanUpdate{}
	case TypeTokenCount:
		msg = &TokenCount{}
	case TypeContextCompacted:
		msg = &ContextCompacted{}
	case TypeDeprecationNotice:
		msg = &DeprecationNotice{}
	case TypePotterSessionStarted:
		msg = &PotterSessionStarted{}
	case TypePotterRoundStarted:
		msg = &PotterRoundStarted{}
	case TypePotterStreamRecoveryUpdate:
		msg = &PotterStreamRecoveryUpdate{}
	case TypePotterStreamRecoveryRecovered:
		msg = &PotterStreamRecoveryRecovered{}
	case TypePotterStreamRecoveryGaveUp:
		msg = &PotterStreamRecoveryGaveUp{}
	case TypePotterRoundFinished:
		msg = &PotterRoundFinished{}
	case TypePotterSessionSucceeded:
		msg = &PotterSessionSucceeded{}
	default:
		return &Unknown{RawType: string(t), Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("events: decode %s payload: %w", t, err)
	}
	return msg, nil
}

// ---- Lifecycle ----

// SessionConfigured reports the thread created by thread/start, either from
// the server directly or synthesized by the backend driver from the
// thread/start response.
type SessionConfigured struct {
	TypeField         string          `json:"type"`
	ThreadID          string          `json:"thread_id"`
	Model             string          `json:"model"`
	ModelProvider     string          `json:"model_provider"`
	Cwd               string          `json:"cwd"`
	ReasoningEffort   *string         `json:"reasoning_effort,omitempty"`
	RolloutPath       string          `json:"rollout_path"`
	HistoryLogID      int64           `json:"history_log_id"`
	HistoryEntryCount int64           `json:"history_entry_count"`
	InitialMessages   json.RawMessage `json:"initial_messages,omitempty"`
	ForkedFromID      *string         `json:"forked_from_id,omitempty"`
}

func (e *SessionConfigured) Type() Type { return TypeSessionConfigured }

// TurnStarted reports the start of a turn.
type TurnStarted struct {
	TypeField           string `json:"type"`
	ModelContextWindow *int64 `json:"model_context_window,omitempty"`
}

func (e *TurnStarted) Type() Type { return TypeTurnStarted }

// TurnComplete reports the end of a turn; decodes both "turn_complete" and
// the historical "task_complete" alias.
type TurnComplete struct {
	TypeField        string  `json:"type"`
	LastAgentMessage *string `json:"last_agent_message,omitempty"`
}

func (e *TurnComplete) Type() Type { return TypeTurnComplete }

// TurnAbortReason enumerates why a turn was aborted.
type TurnAbortReason string

const (
	TurnAbortInterrupted TurnAbortReason = "interrupted"
	TurnAbortReplaced    TurnAbortReason = "replaced"
	TurnAbortReviewEnded TurnAbortReason = "review_ended"
)

// TurnAborted reports a turn ending without completion.
type TurnAborted struct {
	TypeField string          `json:"type"`
	Reason    TurnAbortReason `json:"reason"`
}

func (e *TurnAborted) Type() Type { return TypeTurnAborted }

// ErrorMsg reports a fatal or potentially-retryable server error.
type ErrorMsg struct {
	TypeField      string          `json:"type"`
	Message        string          `json:"message"`
	CodexErrorInfo *CodexErrorInfo `json:"codex_error_info,omitempty"`
}

func (e *ErrorMsg) Type() Type { return TypeError }

// Warning reports a non-fatal server warning.
type Warning struct {
	TypeField string `json:"type"`
	Message   string `json:"message"`
}

func (e *Warning) Type() Type { return TypeWarning }

// StreamError reports a transport-level streaming failure, distinct from a
// structured ErrorMsg.
type StreamError struct {
	TypeField          string  `json:"type"`
	Message            string  `json:"message"`
	AdditionalDetails  *string `json:"additional_details,omitempty"`
}

func (e *StreamError) Type() Type { return TypeStreamError }

// ---- Stream content ----

type AgentMessage struct {
	TypeField string `json:"type"`
	Message   string `json:"message"`
}

func (e *AgentMessage) Type() Type { return TypeAgentMessage }

type AgentMessageDelta struct {
	TypeField string `json:"type"`
	Delta     string `json:"delta"`
}

func (e *AgentMessageDelta) Type() Type { return TypeAgentMessageDelta }

type AgentReasoning struct {
	TypeField string `json:"type"`
	Text      string `json:"text"`
}

func (e *AgentReasoning) Type() Type { return TypeAgentReasoning }

type AgentReasoningDelta struct {
	TypeField string `json:"type"`
	Delta     string `json:"delta"`
}

func (e *AgentReasoningDelta) Type() Type { return TypeAgentReasoningDelta }

type AgentReasoningRawContent struct {
	TypeField string `json:"type"`
	Text      string `json:"text"`
}

func (e *AgentReasoningRawContent) Type() Type { return TypeAgentReasoningRawContent }

type AgentReasoningRawContentDelta struct {
	TypeField string `json:"type"`
	Delta     string `json:"delta"`
}

func (e *AgentReasoningRawContentDelta) Type() Type { return TypeAgentReasoningRawContentDelta }

type AgentReasoningSectionBreak struct {
	TypeField    string `json:"type"`
	ItemID       *string `json:"item_id,omitempty"`
	SummaryIndex *int    `json:"summary_index,omitempty"`
}

func (e *AgentReasoningSectionBreak) Type() Type { return TypeAgentReasoningSectionBreak }

// ---- Tool results ----

// FileChangeKind is the discriminant of FileChange, matching its "type"
// wire field.
type FileChangeKind string

const (
	FileChangeAdd    FileChangeKind = "add"
	FileChangeDelete FileChangeKind = "delete"
	FileChangeUpdate FileChangeKind = "update"
)

// FileChange describes one file touched by a patch application. On the
// wire this is a Rust enum tagged by a "type" field: Add/Delete carry the
// file's full content, Update carries a unified diff and an optional move
// destination.
type FileChange struct {
	Kind        FileChangeKind
	Content     string  // set for FileChangeAdd and FileChangeDelete
	UnifiedDiff string  // set for FileChangeUpdate
	MovePath    *string // set for FileChangeUpdate when the file was moved
}

type fileChangeTypeProbe struct {
	Type string `json:"type"`
}

// MarshalJSON encodes FileChange in the original's {"type": ..., ...}
// shape, varying the payload fields by Kind.
func (f FileChange) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FileChangeAdd, FileChangeDelete:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}{Type: string(f.Kind), Content: f.Content})
	case FileChangeUpdate:
		return json.Marshal(struct {
			Type        string  `json:"type"`
			UnifiedDiff string  `json:"unified_diff"`
			MovePath    *string `json:"move_path,omitempty"`
		}{Type: string(f.Kind), UnifiedDiff: f.UnifiedDiff, MovePath: f.MovePath})
	default:
		return nil, fmt.Errorf("events: encode file change: unknown kind %q", f.Kind)
	}
}

// UnmarshalJSON decodes FileChange, dispatching on its "type" field.
func (f *FileChange) UnmarshalJSON(data []byte) error {
	var probe fileChangeTypeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("events: decode file change type probe: %w", err)
	}

	switch FileChangeKind(probe.Type) {
	case FileChangeAdd, FileChangeDelete:
		var v struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("events: decode file change %s payload: %w", probe.Type, err)
		}
		f.Kind = FileChangeKind(probe.Type)
		f.Content = v.Content
		f.UnifiedDiff = ""
		f.MovePath = nil
	case FileChangeUpdate:
		var v struct {
			UnifiedDiff string  `json:"unified_diff"`
			MovePath    *string `json:"move_path,omitempty"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("events: decode file change update payload: %w", err)
		}
		f.Kind = FileChangeUpdate
		f.UnifiedDiff = v.UnifiedDiff
		f.MovePath = v.MovePath
		f.Content = ""
	default:
		return fmt.Errorf("events: decode file change: unknown type %q", probe.Type)
	}
	return nil
}

type ExecCommandEnd struct {
	TypeField        string          `json:"type"`
	CallID           string          `json:"call_id"`
	TurnID           string          `json:"turn_id"`
	Command          []string        `json:"command"`
	Cwd              string          `json:"cwd"`
	ParsedCmd        json.RawMessage `json:"parsed_cmd,omitempty"`
	Source           string          `json:"source"`
	InteractionInput *string         `json:"interaction_input,omitempty"`
	Stdout           string          `json:"stdout"`
	Stderr           string          `json:"stderr"`
	AggregatedOutput string          `json:"aggregated_output"`
	ExitCode         int             `json:"exit_code"`
	Duration         time.Duration   `json:"duration"`
	FormattedOutput  string          `json:"formatted_output"`
}

func (e *ExecCommandEnd) Type() Type { return TypeExecCommandEnd }

// UnmarshalJSON allows Duration to be decoded from a float number of
// seconds, matching the server's wire representation.
func (e *ExecCommandEnd) UnmarshalJSON(data []byte) error {
	type alias ExecCommandEnd
	aux := struct {
		Duration float64 `json:"duration"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Duration = time.Duration(aux.Duration * float64(time.Second))
	return nil
}

func (e ExecCommandEnd) MarshalJSON() ([]byte, error) {
	type alias ExecCommandEnd
	return json.Marshal(struct {
		Duration float64 `json:"duration"`
		alias
	}{
		Duration: e.Duration.Seconds(),
		alias:    alias(e),
	})
}

type PatchApplyEnd struct {
	TypeField string                `json:"type"`
	CallID    string                `json:"call_id"`
	TurnID    string                `json:"turn_id"`
	Stdout    string                `json:"stdout"`
	Stderr    string                `json:"stderr"`
	Success   bool                  `json:"success"`
	Changes   map[string]FileChange `json:"changes"`
}

func (e *PatchApplyEnd) Type() Type { return TypePatchApplyEnd }

type WebSearchEnd struct {
	TypeField string `json:"type"`
	CallID    string `json:"call_id"`
	Query     string `json:"query"`
}

func (e *WebSearchEnd) Type() Type { return TypeWebSearchEnd }

type ViewImageToolCall struct {
	TypeField string `json:"type"`
	CallID    string `json:"call_id"`
	Path      string `json:"path"`
}

func (e *ViewImageToolCall) Type() Type { return TypeViewImageToolCall }

// PlanStep is one line of a plan update.
type PlanStep struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

type PlanUpdate struct {
	TypeField   string     `json:"type"`
	Explanation *string    `json:"explanation,omitempty"`
	Plan        []PlanStep `json:"plan"`
}

func (e *PlanUpdate) Type() Type { return TypePlanUpdate }

// ---- Context / telemetry ----

type TokenCount struct {
	TypeField  string          `json:"type"`
	Info       json.RawMessage `json:"info,omitempty"`
	RateLimits json.RawMessage `json:"rate_limits,omitempty"`
}

func (e *TokenCount) Type() Type { return TypeTokenCount }

type ContextCompacted struct {
	TypeField string `json:"type"`
}

func (e *ContextCompacted) Type() Type { return TypeContextCompacted }

type DeprecationNotice struct {
	TypeField string  `json:"type"`
	Summary   string  `json:"summary"`
	Details   *string `json:"details,omitempty"`
}

func (e *DeprecationNotice) Type() Type { return TypeDeprecationNotice }

// ---- CodexPotter-synthetic ----

type PotterSessionStarted struct {
	TypeField      string  `json:"type"`
	UserMessage    *string `json:"user_message,omitempty"`
	WorkingDir     string  `json:"working_dir"`
	ProjectDir     string  `json:"project_dir"`
	UserPromptFile string  `json:"user_prompt_file"`
}

func (e *PotterSessionStarted) Type() Type { return TypePotterSessionStarted }

type PotterRoundStarted struct {
	TypeField string `json:"type"`
	Current   uint32 `json:"current"`
	Total     uint32 `json:"total"`
}

func (e *PotterRoundStarted) Type() Type { return TypePotterRoundStarted }

type PotterStreamRecoveryUpdate struct {
	TypeField    string `json:"type"`
	Attempt      uint32 `json:"attempt"`
	MaxAttempts  uint32 `json:"max_attempts"`
	ErrorMessage string `json:"error_message"`
}

func (e *PotterStreamRecoveryUpdate) Type() Type { return TypePotterStreamRecoveryUpdate }

type PotterStreamRecoveryRecovered struct {
	TypeField string `json:"type"`
}

func (e *PotterStreamRecoveryRecovered) Type() Type { return TypePotterStreamRecoveryRecovered }

type PotterStreamRecoveryGaveUp struct {
	TypeField    string `json:"type"`
	ErrorMessage string `json:"error_message"`
	Attempts     uint32 `json:"attempts"`
	MaxAttempts  uint32 `json:"max_attempts"`
}

func (e *PotterStreamRecoveryGaveUp) Type() Type { return TypePotterStreamRecoveryGaveUp }

// RoundOutcome enumerates how a round ended, as recorded in the rollout
// journal's round_finished record.
type RoundOutcome string

const (
	RoundOutcomeCompleted     RoundOutcome = "completed"
	RoundOutcomeUserRequested RoundOutcome = "user_requested"
	RoundOutcomeTaskFailed    RoundOutcome = "task_failed"
	RoundOutcomeFatal         RoundOutcome = "fatal"
)

type PotterRoundFinished struct {
	TypeField string       `json:"type"`
	Outcome   RoundOutcome `json:"outcome"`
}

func (e *PotterRoundFinished) Type() Type { return TypePotterRoundFinished }

type PotterSessionSucceeded struct {
	TypeField      string  `json:"type"`
	Rounds         uint32  `json:"rounds"`
	DurationSecs   uint64  `json:"duration_secs"`
	UserPromptFile string  `json:"user_prompt_file"`
	GitCommitStart string  `json:"git_commit_start"`
	GitCommitEnd   string  `json:"git_commit_end"`
}

func (e *PotterSessionSucceeded) Type() Type { return TypePotterSessionSucceeded }

// Unknown is the required fallthrough variant so that event types this
// build does not recognize never crash decoding.
type Unknown struct {
	RawType string
	Raw     json.RawMessage
}

func (e *Unknown) Type() Type { return TypeUnknown }

func (e Unknown) MarshalJSON() ([]byte, error) {
	return e.Raw, nil
}
