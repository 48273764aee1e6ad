// Package session implements CodexPotter's outer "at most N rounds" session
// loop (§4.4's "Session loop" paragraph): it initializes one project, then
// drives internal/round's RunPotterRound in sequence, stopping early when a
// round reports stop_due_to_finite_incantatem, propagating a user-requested
// or fatal exit immediately. Grounded on the original's main.rs session
// loop, re-pointed at internal/round's refactored round_runner.rs contract
// per SPEC_FULL.md §12 rather than main.rs's own inline, less complete
// duplicate of that loop.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
	"github.com/breezewish/codex-potter-sub000/internal/config"
	"github.com/breezewish/codex-potter-sub000/internal/dispatcher"
	"github.com/breezewish/codex-potter-sub000/internal/log"
	"github.com/breezewish/codex-potter-sub000/internal/project"
	"github.com/breezewish/codex-potter-sub000/internal/round"
	"github.com/breezewish/codex-potter-sub000/internal/telemetry"
)

// rolloutFilename matches the original's POTTER_ROLLOUT_FILENAME.
const rolloutFilename = "potter-rollout.jsonl"

// Options configures one invocation of Run: one user prompt driving at most
// CLI.Rounds rounds.
type Options struct {
	CLI        config.CLIConfig
	Workdir    string
	UserPrompt string
	Telemetry  *telemetry.Provider
	// NewRenderer builds a fresh TurnRenderer for each round; tests substitute
	// a scripted renderer, cmd/root.go wires the headless renderer in this
	// package.
	NewRenderer func() round.TurnRenderer
}

// Result is what Run reports to the CLI entry point, matching §6's exit-code
// contract (0 on clean finish or user-requested quit, 1 on fatal).
type Result struct {
	ExitCode     int
	FatalMessage string
}

// Run initializes a project for opts.UserPrompt and runs up to opts.CLI.Rounds
// fresh rounds, stopping early on finite_incantatem or a non-Completed exit.
//
// A genuinely interactive multi-prompt session (the original's outer
// `'session: loop` that re-prompts the user for a new instruction after a
// round loop ends) is out of scope: the interactive TUI prompt itself is a
// Non-goal (spec.md §1's "rendering... terminal graphics"), so this models
// exactly one user prompt per invocation, matching the narrow-interface
// depth SPEC_FULL.md §12 calls for.
func Run(ctx context.Context, opts Options) (Result, error) {
	init, err := project.InitProject(opts.Workdir, opts.UserPrompt, time.Now())
	if err != nil {
		return Result{}, fmt.Errorf("session: initialize project: %w", err)
	}
	projectStartedAt := time.Now()
	projectDirRel := filepath.Dir(init.ProgressFileRel)
	projectDir := filepath.Join(opts.Workdir, projectDirRel)
	potterRolloutPath := filepath.Join(projectDir, rolloutFilename)

	developerPrompt, err := project.RenderDeveloperPrompt(init.ProgressFileRel)
	if err != nil {
		return Result{}, fmt.Errorf("session: render developer prompt: %w", err)
	}

	log.Info(log.CatCLI, "session starting", "project_dir", projectDir, "rounds", opts.CLI.Rounds)

	rc := round.Context{
		CodexBin:        opts.CLI.CodexBin,
		DeveloperPrompt: developerPrompt,
		BackendLaunch: backend.Config{
			BypassApprovalsAndSandbox: opts.CLI.BypassApprovalsAndSandbox,
			SandboxMode:               opts.CLI.Sandbox,
		},
		TurnPrompt:        project.FixedPrompt(),
		Workdir:           opts.Workdir,
		ProgressFileRel:   init.ProgressFileRel,
		UserPromptFile:    init.ProgressFileRel,
		GitCommitStart:    init.GitCommitStart,
		PotterRolloutPath: potterRolloutPath,
		ProjectStartedAt:  projectStartedAt,
	}

	for roundIdx := 0; roundIdx < opts.CLI.Rounds; roundIdx++ {
		current := uint32(roundIdx + 1)
		total := uint32(opts.CLI.Rounds)

		roundCtx := ctx
		var endSpan func()
		if opts.Telemetry != nil {
			tctx, span := opts.Telemetry.StartRoundSpan(ctx, int(current), int(total))
			roundCtx = tctx
			endSpan = func() { span.End() }
		}

		var sessionStarted *round.SessionStartedInfo
		if roundIdx == 0 {
			userMessage := opts.UserPrompt
			sessionStarted = &round.SessionStartedInfo{
				UserMessage:    &userMessage,
				WorkingDir:     opts.Workdir,
				ProjectDir:     projectDir,
				UserPromptFile: init.ProgressFileRel,
			}
		}

		result, err := round.RunPotterRound(roundCtx, rc, round.Options{
			SessionStarted: sessionStarted,
			RoundCurrent:   current,
			RoundTotal:     total,
		}, opts.NewRenderer())

		if endSpan != nil {
			endSpan()
		}

		if err != nil {
			return Result{}, fmt.Errorf("session: round %d: %w", current, err)
		}

		switch result.Exit.Reason {
		case dispatcher.ExitUserRequested:
			log.Info(log.CatCLI, "session ended: user requested")
			return Result{ExitCode: 0}, nil
		case dispatcher.ExitFatal:
			log.Error(log.CatCLI, "session ended: fatal", "detail", result.Exit.Detail)
			return Result{ExitCode: 1, FatalMessage: result.Exit.Detail}, nil
		case dispatcher.ExitTaskFailed:
			log.Warn(log.CatCLI, "round did not complete", "detail", result.Exit.Detail)
			return Result{ExitCode: 0}, nil
		}

		if result.StopDueToFiniteIncantatem {
			log.Info(log.CatCLI, "session ended: finite_incantatem observed", "rounds", current)
			return Result{ExitCode: 0}, nil
		}
	}

	log.Info(log.CatCLI, "session ended: round budget exhausted", "rounds", opts.CLI.Rounds)
	return Result{ExitCode: 0}, nil
}
