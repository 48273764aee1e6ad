package jsonrpc

import "encoding/json"

// Method names for ClientRequest and ClientNotification, tagged on the wire
// exactly as shown (several deliberately do not match their Go identifier's
// CamelCase, e.g. "thread/start").
const (
	MethodInitialize    = "initialize"
	MethodThreadStart   = "thread/start"
	MethodThreadRollback = "thread/rollback"
	MethodTurnStart     = "turn/start"
	MethodInitialized   = "initialized"
)

// ServerRequest methods the backend driver auto-answers.
const (
	MethodCommandExecutionApproval = "item/commandExecution/requestApproval"
	MethodFileChangeApproval       = "item/fileChange/requestApproval"
	MethodApplyPatch               = "applyPatch"
	MethodExecCommand              = "execCommand"
)

// ClientInfo identifies CodexPotter to the app server during initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Version string `json:"version"`
}

// InitializeParams is the params payload of the "initialize" request.
type InitializeParams struct {
	ClientInfo ClientInfo `json:"clientInfo"`
}

// ThreadStartConfig is the optional nested config object on thread/start.
type ThreadStartConfig struct {
	CodexHome *string `json:"codexHome,omitempty"`
}

// ThreadStartParams is the params payload of the "thread/start" request.
// Optional fields are serialized as null, never omitted, per the wire
// stability rule in the codec contract.
type ThreadStartParams struct {
	Model                 *string            `json:"model"`
	ModelProvider         *string            `json:"modelProvider"`
	Cwd                   *string            `json:"cwd"`
	ApprovalPolicy        string             `json:"approvalPolicy"`
	Sandbox               string             `json:"sandbox"`
	Config                *ThreadStartConfig `json:"config"`
	BaseInstructions      *string            `json:"baseInstructions"`
	DeveloperInstructions *string            `json:"developerInstructions"`
	ExperimentalRawEvents bool               `json:"experimentalRawEvents"`
}

// ThreadStartResponse is the decoded result of a successful "thread/start"
// request, used to synthesize the SessionConfigured event.
type ThreadStartResponse struct {
	ThreadID          string            `json:"threadId"`
	Model             string            `json:"model"`
	ModelProvider     string            `json:"modelProvider"`
	Cwd               string            `json:"cwd"`
	ReasoningEffort   *string           `json:"reasoningEffort,omitempty"`
	RolloutPath       string            `json:"rolloutPath"`
	HistoryLogID      int64             `json:"historyLogId"`
	HistoryEntryCount int64             `json:"historyEntryCount"`
	InitialMessages   []json.RawMessage `json:"initialMessages,omitempty"`
	ForkedFromID      *string           `json:"forkedFromId,omitempty"`
}

// InputItem is one element of a turn's input array. Only the "text" variant
// is produced by CodexPotter itself (the initial prompt and "Continue"
// follow-ups); other variants may arrive from upstream callers and are
// passed through opaquely.
type InputItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextInput builds a text InputItem.
func TextInput(text string) InputItem {
	return InputItem{Type: "text", Text: text}
}

// TurnStartParams is the params payload of the "turn/start" request.
type TurnStartParams struct {
	ThreadID              string             `json:"threadId"`
	Input                 []InputItem        `json:"input"`
	OutputSchema          json.RawMessage    `json:"outputSchema"`
	ApprovalPolicy        *string            `json:"approvalPolicy"`
	Sandbox               *string            `json:"sandbox"`
	Config                *ThreadStartConfig `json:"config"`
	BaseInstructions      *string            `json:"baseInstructions"`
	DeveloperInstructions *string            `json:"developerInstructions"`
}

// ThreadRollbackParams is the params payload of the "thread/rollback"
// request.
type ThreadRollbackParams struct {
	ThreadID     string `json:"threadId"`
	NumMessages  int    `json:"numMessages"`
}

// ExecPolicyAmendment is a transparent array of shell-policy amendment
// strings: it serializes as a plain JSON array, not an object.
type ExecPolicyAmendment []string

// ApprovalDecisionResult is the result object CodexPotter returns for the
// four approval-style server methods it auto-answers.
type ApprovalDecisionResult struct {
	Decision string `json:"decision"`
}

// MustMarshal panics on marshal failure; used only for values CodexPotter
// constructs itself and knows to be well-formed.
func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
