package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/breezewish/codex-potter-sub000/internal/backend"
	"github.com/breezewish/codex-potter-sub000/internal/dispatcher"
	"github.com/breezewish/codex-potter-sub000/internal/events"
	"github.com/breezewish/codex-potter-sub000/internal/log"
	"github.com/breezewish/codex-potter-sub000/internal/round"
)

// headlessRenderer is the narrow round.TurnRenderer implementation CLI entry
// points drive when no interactive widget tree is wired: it submits the
// initial prompt, runs every event through a dispatcher.Dispatcher, resends
// recovery "Continue" ops, and echoes agent text/transcript events to out.
// A full bubbletea Program is the natural production implementation of this
// same interface; building one is out of scope per the terminal-graphics
// Non-goal, but dispatcher.ListenCmd/EventMsg remain the seam such a Program
// would use instead of this renderer's plain channel loop.
type headlessRenderer struct {
	out io.Writer
}

// NewHeadlessRenderer returns a round.TurnRenderer that renders turns as
// plain text written to out.
func NewHeadlessRenderer(out io.Writer) round.TurnRenderer {
	return &headlessRenderer{out: out}
}

func (r *headlessRenderer) RenderTurn(ctx context.Context, prompt string, opsOut chan<- backend.Op, uiEvents <-chan events.Event, fatalExit <-chan string) (dispatcher.AppExitInfo, error) {
	d := dispatcher.New()

	select {
	case opsOut <- backend.NewTextInputOp(prompt):
	case <-ctx.Done():
		return dispatcher.AppExitInfo{}, ctx.Err()
	}

	for {
		select {
		case msg, ok := <-fatalExit:
			if !ok {
				continue
			}
			return d.Finish(dispatcher.ExitInfo{Reason: dispatcher.ExitFatal, Detail: msg}), nil

		case ev, ok := <-uiEvents:
			if !ok {
				return d.Finish(dispatcher.ExitInfo{Reason: dispatcher.ExitFatal, Detail: "ui event channel closed unexpectedly"}), nil
			}

			r.echo(ev)

			result := d.HandleEvent(ev)
			if len(result.CoalescedExploring) > 0 {
				fmt.Fprintf(r.out, "[explored %d commands]\n", len(result.CoalescedExploring))
			}
			if result.RecoveryUpdate != nil {
				fmt.Fprintf(r.out, "[recovering: attempt %d/%d: %s]\n", result.RecoveryUpdate.Attempt, result.RecoveryUpdate.MaxAttempts, result.RecoveryUpdate.ErrorMessage)
			}
			if result.RecoveryGaveUp != nil {
				fmt.Fprintf(r.out, "[recovery gave up after %d attempts: %s]\n", result.RecoveryGaveUp.Attempts, result.RecoveryGaveUp.ErrorMessage)
			}

			if result.RetryOp != nil {
				if result.RetrySleep > 0 {
					timer := time.NewTimer(result.RetrySleep)
					select {
					case <-timer.C:
					case <-ctx.Done():
						timer.Stop()
						return dispatcher.AppExitInfo{}, ctx.Err()
					}
				}
				select {
				case opsOut <- *result.RetryOp:
				case <-ctx.Done():
					return dispatcher.AppExitInfo{}, ctx.Err()
				}
			}

			if result.TurnEnded {
				return d.Finish(result.Exit), nil
			}

		case <-ctx.Done():
			return dispatcher.AppExitInfo{}, ctx.Err()
		}
	}
}

func (r *headlessRenderer) echo(ev events.Event) {
	switch m := ev.Msg.(type) {
	case *events.AgentMessageDelta:
		fmt.Fprint(r.out, m.Delta)
	case *events.AgentMessage:
		fmt.Fprintln(r.out, m.Message)
	case *events.ErrorMsg:
		log.Warn(log.CatDispatcher, "backend error event", "message", m.Message)
	}
}
