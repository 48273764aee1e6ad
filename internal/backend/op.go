package backend

import (
	"encoding/json"

	"github.com/breezewish/codex-potter-sub000/internal/jsonrpc"
)

// OpKind discriminates the ops a caller can submit to a running backend.
type OpKind int

const (
	// OpUserInput submits a new turn with the given input items.
	OpUserInput OpKind = iota
	// OpInterrupt is currently a no-op: the single-turn driver does not
	// track the active turn id needed to route turn/interrupt.
	OpInterrupt
	// OpGetHistoryEntryRequest is currently a no-op.
	OpGetHistoryEntryRequest
)

// Op is one message the round runner or dispatcher submits to the backend
// driver over the ops channel.
type Op struct {
	Kind OpKind
	// Items and OutputSchema are valid for OpUserInput.
	Items        []jsonrpc.InputItem
	OutputSchema json.RawMessage
}

// NewUserInputOp builds a UserInput op carrying items as the turn's input.
func NewUserInputOp(items []jsonrpc.InputItem, outputSchema json.RawMessage) Op {
	return Op{Kind: OpUserInput, Items: items, OutputSchema: outputSchema}
}

// NewTextInputOp builds a UserInput op from a single text prompt, the shape
// used for both the initial prompt and stream-recovery's "Continue"
// follow-up.
func NewTextInputOp(text string) Op {
	return NewUserInputOp([]jsonrpc.InputItem{jsonrpc.TextInput(text)}, nil)
}

// NewInterruptOp builds an Interrupt op.
func NewInterruptOp() Op { return Op{Kind: OpInterrupt} }

// NewGetHistoryEntryOp builds a GetHistoryEntryRequest op.
func NewGetHistoryEntryOp() Op { return Op{Kind: OpGetHistoryEntryRequest} }
