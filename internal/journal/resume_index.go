package journal

import "fmt"

// SessionStartedIndex is the resume index's view of the single
// session_started record.
type SessionStartedIndex struct {
	UserMessage    *string
	UserPromptFile string
}

// SessionSucceededIndex is the resume index's view of a session_succeeded
// record nested inside a completed round.
type SessionSucceededIndex struct {
	Rounds         uint32
	DurationSecs   uint64
	UserPromptFile string
	GitCommitStart string
	GitCommitEnd   string
}

// CompletedRoundIndex is one fully-recorded round: round_started through
// round_finished, with its mandatory round_configured and optional
// session_succeeded.
type CompletedRoundIndex struct {
	RoundCurrent     uint32
	RoundTotal       uint32
	ThreadID         string
	RolloutPath      string
	SessionSucceeded *SessionSucceededIndex
	Outcome          string
}

// UnfinishedRoundIndex is a round that began (round_started +
// round_configured) but has no round_finished at EOF.
type UnfinishedRoundIndex struct {
	RoundCurrent uint32
	RoundTotal   uint32
	ThreadID     string
	RolloutPath  string
}

// ResumeIndex is the structured result of folding a journal's lines.
type ResumeIndex struct {
	SessionStarted SessionStartedIndex
	CompletedRounds []CompletedRoundIndex
	UnfinishedRound *UnfinishedRoundIndex
}

type roundBuilder struct {
	roundCurrent     uint32
	roundTotal       uint32
	configured       *configuredFields
	sessionSucceeded *SessionSucceededIndex
}

type configuredFields struct {
	threadID    string
	rolloutPath string
}

// BuildResumeIndex folds an ordered sequence of journal lines into a
// ResumeIndex, enforcing every structural invariant in the rollout
// journal's contract. All violations are reported as errors prefixed
// "potter-rollout: ", matching the Rust original's bail! messages.
func BuildResumeIndex(lines []Line) (*ResumeIndex, error) {
	var sessionStarted *SessionStartedIndex
	var completedRounds []CompletedRoundIndex
	var current *roundBuilder

	for _, line := range lines {
		switch line.Type {
		case TypeSessionStarted:
			if sessionStarted != nil || len(completedRounds) > 0 || current != nil {
				return nil, fmt.Errorf("potter-rollout: session_started must appear once at the top")
			}
			sessionStarted = &SessionStartedIndex{
				UserMessage:    line.UserMessage,
				UserPromptFile: line.UserPromptFile,
			}

		case TypeRoundStarted:
			if sessionStarted == nil {
				return nil, fmt.Errorf("potter-rollout: missing session_started before first round")
			}
			if current != nil {
				return nil, fmt.Errorf("potter-rollout: round_started before previous round_finished")
			}
			current = &roundBuilder{roundCurrent: line.Current, roundTotal: line.Total}

		case TypeRoundConfigured:
			if current == nil {
				return nil, fmt.Errorf("potter-rollout: round_configured before round_started")
			}
			if current.configured != nil {
				return nil, fmt.Errorf("potter-rollout: duplicate round_configured in a single round")
			}
			current.configured = &configuredFields{threadID: line.ThreadID, rolloutPath: line.RolloutPath}

		case TypeSessionSucceeded:
			if current == nil {
				return nil, fmt.Errorf("potter-rollout: session_succeeded outside a round")
			}
			if current.sessionSucceeded != nil {
				return nil, fmt.Errorf("potter-rollout: duplicate session_succeeded in a single round")
			}
			current.sessionSucceeded = &SessionSucceededIndex{
				Rounds:         line.Rounds,
				DurationSecs:   line.DurationSecs,
				UserPromptFile: line.UserPromptFile,
				GitCommitStart: line.GitCommitStart,
				GitCommitEnd:   line.GitCommitEnd,
			}

		case TypeRoundFinished:
			if current == nil {
				return nil, fmt.Errorf("potter-rollout: round_finished without round_started")
			}
			if current.configured == nil {
				return nil, fmt.Errorf("potter-rollout: round_finished without round_configured")
			}
			completedRounds = append(completedRounds, CompletedRoundIndex{
				RoundCurrent:     current.roundCurrent,
				RoundTotal:       current.roundTotal,
				ThreadID:         current.configured.threadID,
				RolloutPath:      current.configured.rolloutPath,
				SessionSucceeded: current.sessionSucceeded,
				Outcome:          string(line.Outcome),
			})
			current = nil

		default:
			return nil, fmt.Errorf("potter-rollout: unrecognized record type %q", line.Type)
		}
	}

	var unfinished *UnfinishedRoundIndex
	if current != nil {
		if current.sessionSucceeded != nil {
			return nil, fmt.Errorf("potter-rollout: session_succeeded without round_finished at EOF")
		}
		if current.configured == nil {
			return nil, fmt.Errorf("potter-rollout: missing round_configured at EOF")
		}
		unfinished = &UnfinishedRoundIndex{
			RoundCurrent: current.roundCurrent,
			RoundTotal:   current.roundTotal,
			ThreadID:     current.configured.threadID,
			RolloutPath:  current.configured.rolloutPath,
		}
	}

	if sessionStarted != nil && len(completedRounds) == 0 && unfinished == nil {
		return nil, fmt.Errorf("potter-rollout: session_started present but no rounds found")
	}

	if sessionStarted == nil {
		return nil, fmt.Errorf("potter-rollout: missing session_started before first round")
	}

	return &ResumeIndex{
		SessionStarted:  *sessionStarted,
		CompletedRounds: completedRounds,
		UnfinishedRound: unfinished,
	}, nil
}
