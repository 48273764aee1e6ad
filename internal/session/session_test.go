package session_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
	"github.com/breezewish/codex-potter-sub000/internal/config"
	"github.com/breezewish/codex-potter-sub000/internal/round"
	"github.com/breezewish/codex-potter-sub000/internal/session"
)

// fakeCodexScript mirrors internal/round's fixture: a minimal shell process
// standing in for the codex app-server child across one full round.
func fakeCodexScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-codex.sh")
	script := `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    *'"method":"initialize"'*)
      echo '{"id":1,"result":{}}'
      ;;
    *'"method":"thread/start"'*)
      id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
      echo "{\"id\":$id,\"result\":{\"threadId\":\"thread-1\",\"model\":\"m\",\"modelProvider\":\"p\",\"cwd\":\"/\",\"rolloutPath\":\"\",\"historyLogId\":0,\"historyEntryCount\":0}}"
      ;;
    *'"method":"turn/start"'*)
      id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
      echo '{"method":"codex/event/turn_complete","params":{"id":"","msg":{"type":"turn_complete","last_agent_message":"all done DONE_MARKER"}}}'
      echo "{\"id\":$id,\"result\":{}}"
      ;;
  esac
done
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunOneRoundCompletesAndExhaustsBudget(t *testing.T) {
	workdir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := session.Options{
		CLI: config.CLIConfig{
			CodexBin: fakeCodexScript(t),
			Rounds:   1,
			Sandbox:  backend.SandboxDefault,
		},
		Workdir:    workdir,
		UserPrompt: "fix the bug",
		NewRenderer: func() round.TurnRenderer {
			return session.NewHeadlessRenderer(io.Discard)
		},
	}

	result, err := session.Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Empty(t, result.FatalMessage)

	entries, err := os.ReadDir(filepath.Join(workdir, ".codexpotter", "projects"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
