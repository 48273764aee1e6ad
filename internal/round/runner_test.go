package round_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
	"github.com/breezewish/codex-potter-sub000/internal/dispatcher"
	"github.com/breezewish/codex-potter-sub000/internal/events"
	"github.com/breezewish/codex-potter-sub000/internal/journal"
	"github.com/breezewish/codex-potter-sub000/internal/round"
)

// fakeCodexScript writes a minimal shell script standing in for the codex
// app-server child: it answers initialize and thread/start, then on
// turn/start emits a turn_complete event carrying the done marker before
// responding. Grounded on the teacher's base_process_test.go pattern of
// driving subprocess-owning code against a small "sh -c" fake process
// rather than the real binary.
func fakeCodexScript(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-codex.sh")
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

// scriptedRenderer is a round.TurnRenderer stub that submits the given
// prompt and ends the turn as soon as it observes a TurnComplete event,
// standing in for the real dispatcher-driven renderer in round tests.
type scriptedRenderer struct{}

func (scriptedRenderer) RenderTurn(ctx context.Context, prompt string, opsOut chan<- backend.Op, uiEvents <-chan events.Event, fatalExit <-chan string) (dispatcher.AppExitInfo, error) {
	d := dispatcher.New()
	select {
	case opsOut <- backend.NewTextInputOp(prompt):
	case <-ctx.Done():
		return dispatcher.AppExitInfo{}, ctx.Err()
	}
	for {
		select {
		case msg := <-fatalExit:
			return d.Finish(dispatcher.ExitInfo{Reason: dispatcher.ExitFatal, Detail: msg}), nil
		case ev, ok := <-uiEvents:
			if !ok {
				return d.Finish(dispatcher.ExitInfo{Reason: dispatcher.ExitFatal, Detail: "closed"}), nil
			}
			result := d.HandleEvent(ev)
			if result.TurnEnded {
				return d.Finish(result.Exit), nil
			}
		case <-ctx.Done():
			return dispatcher.AppExitInfo{}, ctx.Err()
		}
	}
}

func newTestContext(t *testing.T, workdir string) round.Context {
	t.Helper()
	progressDir := filepath.Join(workdir, ".codexpotter", "projects", "20260731_1")
	require.NoError(t, os.MkdirAll(progressDir, 0o755))
	progressFileRel := filepath.Join(".codexpotter", "projects", "20260731_1", "MAIN.md")
	require.NoError(t, os.WriteFile(filepath.Join(workdir, progressFileRel), []byte("---\nfinite_incantatem: false\n---\n"), 0o644))

	return round.Context{
		CodexBin:          fakeCodexScript(t),
		DeveloperPrompt:   "be helpful",
		BackendLaunch:     backend.Config{SandboxMode: backend.SandboxDefault},
		TurnPrompt:        "do the thing",
		Workdir:           workdir,
		ProgressFileRel:   progressFileRel,
		UserPromptFile:    progressFileRel,
		GitCommitStart:    "",
		PotterRolloutPath: filepath.Join(progressDir, "potter-rollout.jsonl"),
		ProjectStartedAt:  time.Now(),
	}
}

func TestRunPotterRoundWritesJournalAndDoesNotStop(t *testing.T) {
	workdir := t.TempDir()
	rc := newTestContext(t, workdir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := round.RunPotterRound(ctx, rc, round.Options{RoundCurrent: 1, RoundTotal: 3}, scriptedRenderer{})
	require.NoError(t, err)
	require.Equal(t, dispatcher.ExitCompleted, result.Exit.Reason)
	require.False(t, result.StopDueToFiniteIncantatem)

	lines, err := journal.ReadLines(rc.PotterRolloutPath)
	require.NoError(t, err)
	require.NotEmpty(t, lines)

	var sawRoundStarted, sawRoundConfigured, sawRoundFinished bool
	for _, l := range lines {
		switch l.Type {
		case journal.TypeRoundStarted:
			sawRoundStarted = true
		case journal.TypeRoundConfigured:
			sawRoundConfigured = true
		case journal.TypeRoundFinished:
			sawRoundFinished = true
		}
	}
	require.True(t, sawRoundStarted, "expected a round_started journal line")
	require.True(t, sawRoundConfigured, "expected a round_configured journal line")
	require.True(t, sawRoundFinished, "expected a round_finished journal line")
}

func TestRunPotterRoundStopsOnFiniteIncantatem(t *testing.T) {
	workdir := t.TempDir()
	rc := newTestContext(t, workdir)
	require.NoError(t, os.WriteFile(filepath.Join(workdir, rc.ProgressFileRel), []byte("---\nfinite_incantatem: true\n---\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := round.RunPotterRound(ctx, rc, round.Options{RoundCurrent: 1, RoundTotal: 3}, scriptedRenderer{})
	require.NoError(t, err)
	require.Equal(t, dispatcher.ExitCompleted, result.Exit.Reason)
	require.True(t, result.StopDueToFiniteIncantatem)
}

func TestContinuePotterRoundReplaysPriorEventsAndSendsContinue(t *testing.T) {
	workdir := t.TempDir()
	rc := newTestContext(t, workdir)

	replayed := &events.AgentMessage{Message: "earlier turn output"}
	var seenReplay bool
	var sentPrompt string
	renderer := recordingRenderer{
		onFirstOp: func(prompt string) { sentPrompt = prompt },
		onEvent: func(ev events.Event) {
			if am, ok := ev.Msg.(*events.AgentMessage); ok && am == replayed {
				seenReplay = true
			}
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := round.ContinuePotterRound(ctx, rc, round.ContinueOptions{
		RoundCurrent:    1,
		RoundTotal:      3,
		ResumeThreadID:  "thread-1",
		ReplayEventMsgs: []events.EventMsg{replayed},
	}, renderer)
	require.NoError(t, err)
	require.Equal(t, dispatcher.ExitCompleted, result.Exit.Reason)
	require.Equal(t, "Continue", sentPrompt)
	require.True(t, seenReplay, "expected the replayed event to reach the renderer")

	lines, err := journal.ReadLines(rc.PotterRolloutPath)
	require.NoError(t, err)
	for _, l := range lines {
		require.NotEqual(t, journal.TypeRoundStarted, l.Type, "ContinuePotterRound must not record a new round_started line")
	}
}

// recordingRenderer is a round.TurnRenderer that records the first
// submitted op's prompt and every observed event, ending the turn when its
// dispatcher reports the turn ended (here, the fake server's TurnComplete).
type recordingRenderer struct {
	onFirstOp func(prompt string)
	onEvent   func(ev events.Event)
}

func (r recordingRenderer) RenderTurn(ctx context.Context, prompt string, opsOut chan<- backend.Op, uiEvents <-chan events.Event, fatalExit <-chan string) (dispatcher.AppExitInfo, error) {
	d := dispatcher.New()
	r.onFirstOp(prompt)
	select {
	case opsOut <- backend.NewTextInputOp(prompt):
	case <-ctx.Done():
		return dispatcher.AppExitInfo{}, ctx.Err()
	}
	for {
		select {
		case msg := <-fatalExit:
			return d.Finish(dispatcher.ExitInfo{Reason: dispatcher.ExitFatal, Detail: msg}), nil
		case ev, ok := <-uiEvents:
			if !ok {
				return d.Finish(dispatcher.ExitInfo{Reason: dispatcher.ExitFatal, Detail: "closed"}), nil
			}
			r.onEvent(ev)
			result := d.HandleEvent(ev)
			if result.TurnEnded {
				return d.Finish(result.Exit), nil
			}
		case <-ctx.Done():
			return dispatcher.AppExitInfo{}, ctx.Err()
		}
	}
}
