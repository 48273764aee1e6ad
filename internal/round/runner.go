// Package round implements CodexPotter's round runner (C6): it owns the
// four per-round channels (ops, backend-events, ui-events, fatal-exit),
// spawns the backend driver and a forwarder goroutine that performs the
// journal writes described in spec.md §4.4, and applies the stopping rule
// once a turn's render loop resolves. Grounded directly on
// original_source/cli/src/round_runner.rs's run_potter_round /
// continue_potter_round / run_potter_round_inner.
package round

import (
	"context"
	"fmt"
	"time"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
	"github.com/breezewish/codex-potter-sub000/internal/dispatcher"
	"github.com/breezewish/codex-potter-sub000/internal/events"
	"github.com/breezewish/codex-potter-sub000/internal/journal"
	"github.com/breezewish/codex-potter-sub000/internal/project"
)

// Context is the per-session configuration shared by every round, mirroring
// the original's PotterRoundContext.
type Context struct {
	CodexBin          string
	DeveloperPrompt   string
	BackendLaunch     backend.Config
	TurnPrompt        string
	Workdir           string
	ProgressFileRel   string
	UserPromptFile    string
	GitCommitStart    string
	PotterRolloutPath string
	ProjectStartedAt  time.Time
}

// SessionStartedInfo carries the fields of the one-time PotterSessionStarted
// event/journal record, emitted only for the first round of a session.
type SessionStartedInfo struct {
	UserMessage    *string
	WorkingDir     string
	ProjectDir     string
	UserPromptFile string
}

// Options configures a fresh round (run_potter_round).
type Options struct {
	SessionStarted         *SessionStartedInfo
	RoundCurrent           uint32
	RoundTotal             uint32
	SessionSucceededRounds uint32
}

// ContinueOptions configures resuming an unfinished round
// (continue_potter_round).
type ContinueOptions struct {
	RoundCurrent           uint32
	RoundTotal             uint32
	SessionSucceededRounds uint32
	ResumeThreadID         string
	ReplayEventMsgs        []events.EventMsg
}

// Result is a round's outcome, per §4.4's RoundResult contract.
type Result struct {
	Exit                      dispatcher.ExitInfo
	StopDueToFiniteIncantatem bool
}

// TurnRenderer is the interface the round runner drives once the backend is
// running: it consumes ops/UI-event/fatal-exit channels and resolves when
// the turn ends, returning the dispatcher's final AppExitInfo. A bubbletea
// Program implements this by looping its own Update/View cycle and feeding
// ops back through opsOut; the widget tree itself stays out of scope per
// spec.md §1, this interface is the seam.
type TurnRenderer interface {
	RenderTurn(ctx context.Context, prompt string, opsOut chan<- backend.Op, uiEvents <-chan events.Event, fatalExit <-chan string) (dispatcher.AppExitInfo, error)
}

type innerOptions struct {
	sessionStarted         *SessionStartedInfo
	roundCurrent           uint32
	roundTotal             uint32
	sessionSucceededRounds uint32
	prompt                 string
	resumeThreadID         string
	recordRoundStarted     bool
	recordRoundConfigured  bool
	replayEventMsgs        []events.EventMsg
}

// RunPotterRound runs a fresh round: sends rc.TurnPrompt as the initial
// input and records round_started/round_configured journal lines.
func RunPotterRound(ctx context.Context, rc Context, opts Options, renderer TurnRenderer) (Result, error) {
	return runPotterRoundInner(ctx, rc, innerOptions{
		sessionStarted:         opts.SessionStarted,
		roundCurrent:           opts.RoundCurrent,
		roundTotal:             opts.RoundTotal,
		sessionSucceededRounds: opts.SessionSucceededRounds,
		prompt:                 rc.TurnPrompt,
		recordRoundStarted:     true,
		recordRoundConfigured:  true,
	}, renderer)
}

// ContinuePotterRound resumes an unfinished round by replaying its prior
// events and sending the literal prompt "Continue".
//
// opts.ResumeThreadID is accepted for parity with the original's
// continue_potter_round contract, but this driver's handshake (§4.3) always
// issues a fresh thread/start: no thread/resume method is part of the wire
// protocol this spec names, so a genuinely resumed backend session is an
// open question left to a future backend revision. The replayed event
// stream still lets the UI show prior turns; only the live backend session
// is fresh rather than resumed.
func ContinuePotterRound(ctx context.Context, rc Context, opts ContinueOptions, renderer TurnRenderer) (Result, error) {
	return runPotterRoundInner(ctx, rc, innerOptions{
		roundCurrent:           opts.RoundCurrent,
		roundTotal:             opts.RoundTotal,
		sessionSucceededRounds: opts.SessionSucceededRounds,
		prompt:                 "Continue",
		resumeThreadID:         opts.ResumeThreadID,
		replayEventMsgs:        opts.ReplayEventMsgs,
	}, renderer)
}

func runPotterRoundInner(ctx context.Context, rc Context, opts innerOptions, renderer TurnRenderer) (Result, error) {
	ops := make(chan backend.Op)
	backendEvents := make(chan events.Event, 64)
	uiEvents := make(chan events.Event, 64)
	fatalExit := make(chan string, 1)

	if opts.sessionStarted != nil {
		uiEvents <- events.Event{Msg: &events.PotterSessionStarted{
			UserMessage:    opts.sessionStarted.UserMessage,
			WorkingDir:     opts.sessionStarted.WorkingDir,
			ProjectDir:     opts.sessionStarted.ProjectDir,
			UserPromptFile: opts.sessionStarted.UserPromptFile,
		}}
		if err := journal.AppendLine(rc.PotterRolloutPath, journal.NewSessionStarted(opts.sessionStarted.UserMessage, opts.sessionStarted.UserPromptFile)); err != nil {
			return Result{}, fmt.Errorf("round: append session_started: %w", err)
		}
	}

	uiEvents <- events.Event{Msg: &events.PotterRoundStarted{Current: opts.roundCurrent, Total: opts.roundTotal}}
	if opts.recordRoundStarted {
		if err := journal.AppendLine(rc.PotterRolloutPath, journal.NewRoundStarted(opts.roundCurrent, opts.roundTotal)); err != nil {
			return Result{}, fmt.Errorf("round: append round_started: %w", err)
		}
	}

	for _, msg := range opts.replayEventMsgs {
		uiEvents <- events.Event{Msg: msg}
	}

	roundCtx, cancelRound := context.WithCancel(ctx)
	defer cancelRound()

	forwarderDone := make(chan struct{})
	go runForwarder(roundCtx, rc, opts, backendEvents, uiEvents, fatalExit, forwarderDone)

	backendDone := make(chan error, 1)
	backendCfg := rc.BackendLaunch
	backendCfg.CodexBin = rc.CodexBin
	backendCfg.WorkDir = rc.Workdir
	developerPrompt := rc.DeveloperPrompt
	backendCfg.DeveloperInstructions = &developerPrompt

	go func() {
		defer close(backendDone)
		_, err := backend.Run(roundCtx, backendCfg, ops, backendEvents, fatalExit)
		if err != nil {
			backendDone <- err
		}
	}()

	exitInfo, err := renderer.RenderTurn(roundCtx, opts.prompt, ops, uiEvents, fatalExit)
	if err != nil {
		return Result{}, fmt.Errorf("round: render turn: %w", err)
	}
	// The renderer has returned and sends no more ops; closing the channel
	// makes the driver close the child's stdin so the child exits.
	close(ops)

	completed := exitInfo.Exit.Reason == dispatcher.ExitCompleted
	if !completed {
		cancelRound()
	}
	<-backendDone

	// The backend driver has no notion of a round's terminal outcome — only
	// the dispatcher (on the UI side, already resolved above) knows whether
	// the turn completed, was user-requested, failed, or hit a fatal error.
	// The round runner is therefore the one place that can translate
	// exitInfo into a PotterRoundFinished record, so it synthesizes it here
	// and feeds it back through backendEvents as if the backend had sent it,
	// letting the forwarder's existing per-event journal logic (§4.4 steps
	// 2-3) handle it uniformly with every other event.
	backendEvents <- events.Event{Msg: &events.PotterRoundFinished{Outcome: outcomeForExit(exitInfo.Exit.Reason)}}
	close(backendEvents)
	<-forwarderDone

	if !completed {
		return Result{Exit: exitInfo.Exit, StopDueToFiniteIncantatem: false}, nil
	}

	stop, stopErr := project.HasFiniteIncantatemTrue(rc.Workdir, rc.ProgressFileRel)
	if stopErr != nil {
		return Result{}, fmt.Errorf("round: check progress file finite_incantatem: %w", stopErr)
	}
	return Result{Exit: exitInfo.Exit, StopDueToFiniteIncantatem: stop}, nil
}

// outcomeForExit maps the dispatcher's ExitReason onto the journal's
// RoundOutcome tag, the two parallel enums spec.md §4.6 and §3's "Rollout
// journal" data model each define for the same four terminal states.
func outcomeForExit(reason dispatcher.ExitReason) events.RoundOutcome {
	switch reason {
	case dispatcher.ExitCompleted:
		return events.RoundOutcomeCompleted
	case dispatcher.ExitUserRequested:
		return events.RoundOutcomeUserRequested
	case dispatcher.ExitTaskFailed:
		return events.RoundOutcomeTaskFailed
	default:
		return events.RoundOutcomeFatal
	}
}

// runForwarder implements §4.4's forwarder task: journal writes at the
// round_configured/session_succeeded/round_finished milestones, then
// forwarding every event to the UI channel last.
func runForwarder(ctx context.Context, rc Context, opts innerOptions, backendEvents <-chan events.Event, uiEvents chan<- events.Event, fatalExit chan<- string, done chan<- struct{}) {
	defer close(done)
	hasRecordedRoundConfigured := !opts.recordRoundConfigured

	for {
		// Deliberately a plain blocked receive, not a select against
		// ctx.Done(): runPotterRoundInner always closes backendEvents after
		// sending the round's final synthetic PotterRoundFinished, and this
		// loop must drain that buffered event even though ctx is already
		// cancelled by then in the non-Completed exit path. Racing against
		// ctx.Done() here could lose that event to cancellation.
		event, ok := <-backendEvents
		if !ok {
			return
		}
		if !hasRecordedRoundConfigured {
			if sc, ok := event.Msg.(*events.SessionConfigured); ok {
				hasRecordedRoundConfigured = true
				rolloutPath, rolloutPathRaw, rolloutBaseDir := journal.ResolveRolloutPathForRecording(sc.RolloutPath, rc.Workdir)
				line := journal.NewRoundConfigured(sc.ThreadID, rolloutPath, rolloutPathRaw, rolloutBaseDir)
				if err := journal.AppendLine(rc.PotterRolloutPath, line); err != nil {
					sendFatal(fatalExit, fmt.Sprintf("failed to write %s: %v", rc.PotterRolloutPath, err))
					return
				}
			}
		}

		if finished, ok := event.Msg.(*events.PotterRoundFinished); ok && finished.Outcome == events.RoundOutcomeCompleted {
			succeeded, err := project.HasFiniteIncantatemTrue(rc.Workdir, rc.ProgressFileRel)
			if err == nil && succeeded {
				elapsed := time.Since(rc.ProjectStartedAt)
				gitCommitEnd := project.ResolveGitCommit(rc.Workdir)
				line := journal.NewSessionSucceeded(opts.sessionSucceededRounds, uint64(elapsed.Seconds()), rc.UserPromptFile, rc.GitCommitStart, gitCommitEnd)
				if err := journal.AppendLine(rc.PotterRolloutPath, line); err != nil {
					sendFatal(fatalExit, fmt.Sprintf("failed to write %s: %v", rc.PotterRolloutPath, err))
					return
				}
				succeededEvent := events.Event{Msg: &events.PotterSessionSucceeded{
					Rounds:         opts.sessionSucceededRounds,
					DurationSecs:   uint64(elapsed.Seconds()),
					UserPromptFile: rc.UserPromptFile,
					GitCommitStart: rc.GitCommitStart,
					GitCommitEnd:   gitCommitEnd,
				}}
				select {
				case uiEvents <- succeededEvent:
				case <-ctx.Done():
					return
				}
			}
		}

		if finished, ok := event.Msg.(*events.PotterRoundFinished); ok {
			line := journal.NewRoundFinished(finished.Outcome)
			if err := journal.AppendLine(rc.PotterRolloutPath, line); err != nil {
				sendFatal(fatalExit, fmt.Sprintf("failed to write %s: %v", rc.PotterRolloutPath, err))
				return
			}
		}

		select {
		case uiEvents <- event:
		case <-ctx.Done():
			return
		}
	}
}

func sendFatal(fatalExit chan<- string, message string) {
	select {
	case fatalExit <- message:
	default:
	}
}
