// Package jsonrpc implements CodexPotter's newline-delimited JSON-RPC 2.0-ish
// wire codec: one JSON object per line, terminated by '\n', tagged by a
// "method" field on requests and notifications.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// RequestID is either a signed 64-bit integer or a string, matching the app
// server's id space. The zero value is the integer id 0; use NewIntID /
// NewStringID to construct one explicitly.
type RequestID struct {
	isString bool
	i        int64
	s        string
}

// NewIntID builds an integer-valued RequestID.
func NewIntID(i int64) RequestID {
	return RequestID{i: i}
}

// NewStringID builds a string-valued RequestID.
func NewStringID(s string) RequestID {
	return RequestID{isString: true, s: s}
}

// IsString reports whether the id is string-valued.
func (id RequestID) IsString() bool { return id.isString }

// Int returns the integer value (valid only when !IsString()).
func (id RequestID) Int() int64 { return id.i }

// Str returns the string value (valid only when IsString()).
func (id RequestID) Str() string { return id.s }

// Equal reports whether two ids denote the same request.
func (id RequestID) Equal(other RequestID) bool {
	if id.isString != other.isString {
		return false
	}
	if id.isString {
		return id.s == other.s
	}
	return id.i == other.i
}

// String renders the id for logging and as a map key.
func (id RequestID) String() string {
	if id.isString {
		return id.s
	}
	return fmt.Sprintf("%d", id.i)
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.s)
	}
	return json.Marshal(id.i)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		*id = RequestID{i: asInt}
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = RequestID{isString: true, s: asString}
		return nil
	}
	return fmt.Errorf("jsonrpc: id is neither an integer nor a string: %s", string(data))
}

// Kind discriminates the four message shapes on the wire.
type Kind int

const (
	KindRequest Kind = iota
	KindResponse
	KindErrorResponse
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindErrorResponse:
		return "error_response"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// RPCError is the JSON-RPC error object carried by an ErrorResponse message.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ErrMethodNotFound is the standard JSON-RPC code for an unrecognized method.
const ErrMethodNotFound = -32601

// Message is the sum type over the four wire shapes: Request, Response,
// ErrorResponse, Notification. Only the fields relevant to Kind are
// meaningful; callers should inspect Kind before reading other fields.
type Message struct {
	Kind   Kind
	ID     RequestID // valid for Request, Response, ErrorResponse
	Method string    // valid for Request, Notification
	// HasParams distinguishes "params omitted entirely" (required for
	// notifications with no payload, e.g. "initialized") from "params is an
	// empty object".
	HasParams bool
	Params    json.RawMessage // valid for Request, Notification when HasParams
	Result    json.RawMessage // valid for Response
	Err       *RPCError       // valid for ErrorResponse
}

// NewRequest builds a client→server (or server→client) request message.
func NewRequest(id RequestID, method string, params json.RawMessage) Message {
	return Message{Kind: KindRequest, ID: id, Method: method, HasParams: params != nil, Params: params}
}

// NewNotification builds a notification message. Pass nil params to omit the
// params field entirely from the wire form, as required for "initialized".
func NewNotification(method string, params json.RawMessage) Message {
	return Message{Kind: KindNotification, Method: method, HasParams: params != nil, Params: params}
}

// NewResponse builds a success response correlated to id.
func NewResponse(id RequestID, result json.RawMessage) Message {
	return Message{Kind: KindResponse, ID: id, Result: result}
}

// NewErrorResponse builds an error response correlated to id.
func NewErrorResponse(id RequestID, code int, message string, data json.RawMessage) Message {
	return Message{Kind: KindErrorResponse, ID: id, Err: &RPCError{Code: code, Message: message, Data: data}}
}
