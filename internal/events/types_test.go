package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestCodexErrorInfoDecodesRealisticWireShapes fixes the externally-tagged
// shape against JSON shaped the way protocol.rs actually produces it, not
// against this package's own (formerly wrong) struct tags.
func TestCodexErrorInfoDecodesRealisticWireShapes(t *testing.T) {
	var unitVariant CodexErrorInfo
	require.NoError(t, json.Unmarshal([]byte(`"bad_request"`), &unitVariant))
	assert.Equal(t, CodexErrorBadRequest, unitVariant.Kind)
	assert.Nil(t, unitVariant.HTTPStatusCode)

	var dataVariant CodexErrorInfo
	require.NoError(t, json.Unmarshal([]byte(`{"response_stream_disconnected":{"http_status_code":503}}`), &dataVariant))
	assert.Equal(t, CodexErrorResponseStreamDisconnected, dataVariant.Kind)
	require.NotNil(t, dataVariant.HTTPStatusCode)
	assert.Equal(t, 503, *dataVariant.HTTPStatusCode)

	var nullStatus CodexErrorInfo
	require.NoError(t, json.Unmarshal([]byte(`{"http_connection_failed":{"http_status_code":null}}`), &nullStatus))
	assert.Equal(t, CodexErrorHTTPConnectionFailed, nullStatus.Kind)
	assert.Nil(t, nullStatus.HTTPStatusCode)

	var other CodexErrorInfo
	require.NoError(t, json.Unmarshal([]byte(`"some_future_variant"`), &other))
	assert.Equal(t, CodexErrorKind("some_future_variant"), other.Kind)
}

// TestFileChangeDecodesRealisticWireShapes fixes FileChange's internally
// "type"-tagged shape against realistic PatchApplyEnd.changes entries.
func TestFileChangeDecodesRealisticWireShapes(t *testing.T) {
	var add FileChange
	require.NoError(t, json.Unmarshal([]byte(`{"type":"add","content":"package main\n"}`), &add))
	assert.Equal(t, FileChangeAdd, add.Kind)
	assert.Equal(t, "package main\n", add.Content)

	var del FileChange
	require.NoError(t, json.Unmarshal([]byte(`{"type":"delete","content":"old contents\n"}`), &del))
	assert.Equal(t, FileChangeDelete, del.Kind)
	assert.Equal(t, "old contents\n", del.Content)

	var upd FileChange
	require.NoError(t, json.Unmarshal([]byte(`{"type":"update","unified_diff":"@@ -1 +1 @@\n-a\n+b\n","move_path":"new/path.go"}`), &upd))
	assert.Equal(t, FileChangeUpdate, upd.Kind)
	assert.Equal(t, "@@ -1 +1 @@\n-a\n+b\n", upd.UnifiedDiff)
	require.NotNil(t, upd.MovePath)
	assert.Equal(t, "new/path.go", *upd.MovePath)

	var updNoMove FileChange
	require.NoError(t, json.Unmarshal([]byte(`{"type":"update","unified_diff":"diff"}`), &updNoMove))
	assert.Equal(t, FileChangeUpdate, updNoMove.Kind)
	assert.Nil(t, updNoMove.MovePath)
}

// TestPatchApplyEndDecodesRealisticChangesMap exercises FileChange through
// its real container, the way a PatchApplyEnd event actually arrives.
func TestPatchApplyEndDecodesRealisticChangesMap(t *testing.T) {
	raw := []byte(`{
		"type": "patch_apply_end",
		"call_id": "call-1",
		"turn_id": "turn-1",
		"stdout": "",
		"stderr": "",
		"success": true,
		"changes": {
			"src/main.go": {"type": "add", "content": "package main\n"},
			"README.md": {"type": "update", "unified_diff": "@@ -1 +1 @@\n-old\n+new\n"}
		}
	}`)
	var end PatchApplyEnd
	require.NoError(t, json.Unmarshal(raw, &end))
	require.Contains(t, end.Changes, "src/main.go")
	assert.Equal(t, FileChangeAdd, end.Changes["src/main.go"].Kind)
	require.Contains(t, end.Changes, "README.md")
	assert.Equal(t, FileChangeUpdate, end.Changes["README.md"].Kind)
}

// TestErrorEventDecodesRealisticCodexErrorInfo exercises CodexErrorInfo
// through its real container, an "error" event.
func TestErrorEventDecodesRealisticCodexErrorInfo(t *testing.T) {
	raw := []byte(`{"type":"error","message":"unexpected status 503","codex_error_info":{"response_stream_disconnected":{"http_status_code":503}}}`)
	var msg ErrorMsg
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.NotNil(t, msg.CodexErrorInfo)
	assert.Equal(t, CodexErrorResponseStreamDisconnected, msg.CodexErrorInfo.Kind)
	require.NotNil(t, msg.CodexErrorInfo.HTTPStatusCode)
	assert.Equal(t, 503, *msg.CodexErrorInfo.HTTPStatusCode)
}

// TestExecCommandEndDecodesFloatDuration fixes ExecCommandEnd's seconds-as-
// float wire representation against a realistic payload.
func TestExecCommandEndDecodesFloatDuration(t *testing.T) {
	raw := []byte(`{
		"type": "exec_command_end",
		"call_id": "call-1",
		"turn_id": "turn-1",
		"command": ["ls", "-la"],
		"cwd": "/repo",
		"source": "agent",
		"stdout": "out",
		"stderr": "",
		"aggregated_output": "out",
		"exit_code": 0,
		"duration": 1.5,
		"formatted_output": "out"
	}`)
	var end ExecCommandEnd
	require.NoError(t, json.Unmarshal(raw, &end))
	assert.Equal(t, []string{"ls", "-la"}, end.Command)
	assert.Equal(t, int64(1_500_000_000), end.Duration.Nanoseconds())
}

// TestEventRoundTrip is the universal property from spec.md §8: for every
// well-formed event payload E, decode(encode(E)) reproduces E's fields.
// Covers the three types whose custom marshaling this package hand-rolls.
func TestEventRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom([]string{"codex_error_info", "file_change", "exec_command_end"}).Draw(t, "kind")

		switch kind {
		case "codex_error_info":
			isData := rapid.Bool().Draw(t, "isData")
			var info CodexErrorInfo
			if isData {
				dataKind := rapid.SampledFrom([]CodexErrorKind{
					CodexErrorHTTPConnectionFailed,
					CodexErrorResponseStreamConnectionFailed,
					CodexErrorResponseStreamDisconnected,
					CodexErrorResponseTooManyFailedAttempts,
				}).Draw(t, "dataKind")
				info.Kind = dataKind
				if rapid.Bool().Draw(t, "hasStatus") {
					status := rapid.IntRange(400, 599).Draw(t, "status")
					info.HTTPStatusCode = &status
				}
			} else {
				info.Kind = rapid.SampledFrom([]CodexErrorKind{
					CodexErrorContextWindowExceeded,
					CodexErrorUsageLimitExceeded,
					CodexErrorInternalServerError,
					CodexErrorUnauthorized,
					CodexErrorBadRequest,
					CodexErrorSandboxError,
					CodexErrorThreadRollbackFailed,
					CodexErrorOther,
				}).Draw(t, "unitKind")
			}

			b, err := json.Marshal(info)
			require.NoError(t, err)
			var decoded CodexErrorInfo
			require.NoError(t, json.Unmarshal(b, &decoded))
			assert.Equal(t, info, decoded)

		case "file_change":
			fcKind := rapid.SampledFrom([]FileChangeKind{FileChangeAdd, FileChangeDelete, FileChangeUpdate}).Draw(t, "fcKind")
			var fc FileChange
			fc.Kind = fcKind
			switch fcKind {
			case FileChangeAdd, FileChangeDelete:
				fc.Content = rapid.String().Draw(t, "content")
			case FileChangeUpdate:
				fc.UnifiedDiff = rapid.String().Draw(t, "diff")
				if rapid.Bool().Draw(t, "hasMove") {
					move := rapid.String().Draw(t, "movePath")
					fc.MovePath = &move
				}
			}

			b, err := json.Marshal(fc)
			require.NoError(t, err)
			var decoded FileChange
			require.NoError(t, json.Unmarshal(b, &decoded))
			assert.Equal(t, fc, decoded)

		case "exec_command_end":
			end := ExecCommandEnd{
				TypeField: string(TypeExecCommandEnd),
				CallID:    rapid.StringMatching(`[a-z0-9-]{1,10}`).Draw(t, "callID"),
				TurnID:    rapid.StringMatching(`[a-z0-9-]{1,10}`).Draw(t, "turnID"),
				Command:   []string{rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "cmd")},
				Cwd:       rapid.StringMatching(`/[a-z/]{0,10}`).Draw(t, "cwd"),
				Source:    rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "source"),
				ExitCode:  rapid.IntRange(0, 255).Draw(t, "exitCode"),
			}

			b, err := json.Marshal(end)
			require.NoError(t, err)
			var decoded ExecCommandEnd
			require.NoError(t, json.Unmarshal(b, &decoded))
			assert.Equal(t, end, decoded)
		}
	})
}

// TestEventEnvelopeUnknownTypeDoesNotFail confirms the "extensible
// enumerations" fallthrough still holds alongside the new custom decoders.
func TestEventEnvelopeUnknownTypeDoesNotFail(t *testing.T) {
	raw := []byte(`{"id":"1","msg":{"type":"some_future_event","extra":true}}`)
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	unknown, ok := ev.Msg.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, "some_future_event", unknown.RawType)
}
