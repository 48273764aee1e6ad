package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeRequestIncludesParamsAndID(t *testing.T) {
	msg := NewRequest(NewIntID(1), MethodInitialize, MustMarshal(InitializeParams{
		ClientInfo: ClientInfo{Name: "codex-potter", Title: "codex-potter", Version: "0.1.0"},
	}))

	line, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), line[len(line)-1])

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(line[:len(line)-1], &raw))
	assert.Contains(t, raw, "method")
	assert.Contains(t, raw, "id")
	assert.Contains(t, raw, "params")
}

func TestEncodeNotificationWithoutParamsOmitsParamsField(t *testing.T) {
	msg := NewNotification(MethodInitialized, nil)

	line, err := Encode(msg)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(line[:len(line)-1], &raw))
	assert.NotContains(t, raw, "params")
	assert.NotContains(t, raw, "id")
	assert.Equal(t, `"initialized"`, string(raw["method"]))
}

func TestEncodeOptionalFieldsSerializeAsNullNotOmitted(t *testing.T) {
	params := ThreadStartParams{
		Model:          nil,
		ModelProvider:  nil,
		Cwd:            nil,
		ApprovalPolicy: "never",
		Sandbox:        "readOnly",
		Config:         nil,
	}
	b, err := json.Marshal(params)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Contains(t, raw, "model")
	assert.Equal(t, "null", string(raw["model"]))
	require.Contains(t, raw, "config")
	assert.Equal(t, "null", string(raw["config"]))
}

func TestDecodeResponse(t *testing.T) {
	line := []byte(`{"id":1,"result":{"ok":true}}`)
	msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindResponse, msg.Kind)
	assert.Equal(t, int64(1), msg.ID.Int())
}

func TestDecodeErrorResponse(t *testing.T) {
	line := []byte(`{"id":42,"error":{"code":-32601,"message":"unsupported server request \"strangeMethod\""}}`)
	msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindErrorResponse, msg.Kind)
	assert.Equal(t, int64(42), msg.ID.Int())
	assert.Equal(t, ErrMethodNotFound, msg.Err.Code)
}

func TestDecodeNotification(t *testing.T) {
	line := []byte(`{"method":"codex/event/test","params":{"id":"1","msg":{"type":"turn_complete"}}}`)
	msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindNotification, msg.Kind)
	assert.Equal(t, "codex/event/test", msg.Method)
	assert.True(t, msg.HasParams)
}

func TestDecodeMalformedLineReturnsDecodeErrorWithOffendingLine(t *testing.T) {
	line := []byte(`not json at all`)
	_, err := Decode(line)
	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, string(line), decodeErr.Line)
}

func TestDecodeUnrecognizedShapeIsDecodeError(t *testing.T) {
	// Neither method, nor result, nor error: matches no known message shape.
	line := []byte(`{"id":1,"foo":"bar"}`)
	_, err := Decode(line)
	require.Error(t, err)
}

func TestRequestIDRoundTripsIntAndString(t *testing.T) {
	intID := NewIntID(7)
	b, err := json.Marshal(intID)
	require.NoError(t, err)
	assert.Equal(t, "7", string(b))

	var decoded RequestID
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.True(t, decoded.Equal(intID))

	strID := NewStringID("abc")
	b, err = json.Marshal(strID)
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(b))

	var decodedStr RequestID
	require.NoError(t, json.Unmarshal(b, &decodedStr))
	assert.True(t, decodedStr.Equal(strID))
}

// TestEncodeDecodeRoundTrip is the universal property from spec.md §8:
// for all well-formed messages M, decode(encode(M)) == M.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom([]Kind{KindRequest, KindNotification, KindResponse, KindErrorResponse}).Draw(t, "kind")
		var msg Message
		switch kind {
		case KindRequest:
			id := genID(t)
			msg = NewRequest(id, rapid.StringMatching(`[a-z/]{3,20}`).Draw(t, "method"), MustMarshal(map[string]int{"x": rapid.IntRange(0, 100).Draw(t, "x")}))
		case KindNotification:
			hasParams := rapid.Bool().Draw(t, "hasParams")
			var params json.RawMessage
			if hasParams {
				params = MustMarshal(map[string]int{"y": rapid.IntRange(0, 100).Draw(t, "y")})
			}
			msg = NewNotification(rapid.StringMatching(`[a-z/]{3,20}`).Draw(t, "method"), params)
		case KindResponse:
			id := genID(t)
			msg = NewResponse(id, MustMarshal(map[string]bool{"ok": rapid.Bool().Draw(t, "ok")}))
		case KindErrorResponse:
			id := genID(t)
			msg = NewErrorResponse(id, rapid.IntRange(-32700, -32000).Draw(t, "code"), rapid.StringMatching(`[a-zA-Z ]{1,30}`).Draw(t, "message"), nil)
		}

		line, err := Encode(msg)
		require.NoError(t, err)
		decoded, err := Decode(line[:len(line)-1])
		require.NoError(t, err)

		assert.Equal(t, msg.Kind, decoded.Kind)
		assert.Equal(t, msg.Method, decoded.Method)
		assert.Equal(t, msg.HasParams, decoded.HasParams)
		if msg.Kind == KindRequest || msg.Kind == KindResponse || msg.Kind == KindErrorResponse {
			assert.True(t, msg.ID.Equal(decoded.ID))
		}
	})
}

func genID(t *rapid.T) RequestID {
	if rapid.Bool().Draw(t, "isString") {
		return NewStringID(rapid.StringMatching(`[a-zA-Z0-9-]{1,10}`).Draw(t, "strID"))
	}
	return NewIntID(rapid.Int64Range(0, 1_000_000).Draw(t, "intID"))
}
