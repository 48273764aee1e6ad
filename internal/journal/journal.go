// Package journal implements CodexPotter's append-only rollout journal: a
// strict JSONL writer/reader for session and round boundary records, and
// the pure fold that reconstructs a resumable index from those records.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/breezewish/codex-potter-sub000/internal/events"
)

// Filename is the journal's basename within a project directory.
const Filename = "potter-rollout.jsonl"

// Type discriminates the five record shapes, tagged on the wire by "type"
// in snake_case.
type Type string

const (
	TypeSessionStarted   Type = "session_started"
	TypeRoundStarted     Type = "round_started"
	TypeRoundConfigured  Type = "round_configured"
	TypeSessionSucceeded Type = "session_succeeded"
	TypeRoundFinished    Type = "round_finished"
)

// Line is one record of the journal. Only the fields relevant to Type are
// meaningful, matching the flat-struct-with-optional-fields idiom the rest
// of this codebase uses for tagged wire payloads.
type Line struct {
	Type Type `json:"type"`

	// session_started
	UserMessage    *string `json:"user_message,omitempty"`
	UserPromptFile string  `json:"user_prompt_file,omitempty"`

	// round_started
	Current uint32 `json:"current,omitempty"`
	Total   uint32 `json:"total,omitempty"`

	// round_configured
	ThreadID       string  `json:"thread_id,omitempty"`
	RolloutPath    string  `json:"rollout_path,omitempty"`
	RolloutPathRaw *string `json:"rollout_path_raw,omitempty"`
	RolloutBaseDir *string `json:"rollout_base_dir,omitempty"`

	// session_succeeded
	Rounds         uint32 `json:"rounds,omitempty"`
	DurationSecs   uint64 `json:"duration_secs,omitempty"`
	GitCommitStart string `json:"git_commit_start,omitempty"`
	GitCommitEnd   string `json:"git_commit_end,omitempty"`

	// round_finished
	Outcome events.RoundOutcome `json:"outcome,omitempty"`
}

// NewSessionStarted builds a session_started record.
func NewSessionStarted(userMessage *string, userPromptFile string) Line {
	return Line{Type: TypeSessionStarted, UserMessage: userMessage, UserPromptFile: userPromptFile}
}

// NewRoundStarted builds a round_started record.
func NewRoundStarted(current, total uint32) Line {
	return Line{Type: TypeRoundStarted, Current: current, Total: total}
}

// NewRoundConfigured builds a round_configured record.
func NewRoundConfigured(threadID, rolloutPath string, rolloutPathRaw, rolloutBaseDir *string) Line {
	return Line{
		Type:           TypeRoundConfigured,
		ThreadID:       threadID,
		RolloutPath:    rolloutPath,
		RolloutPathRaw: rolloutPathRaw,
		RolloutBaseDir: rolloutBaseDir,
	}
}

// NewSessionSucceeded builds a session_succeeded record.
func NewSessionSucceeded(rounds uint32, durationSecs uint64, userPromptFile, gitCommitStart, gitCommitEnd string) Line {
	return Line{
		Type:           TypeSessionSucceeded,
		Rounds:         rounds,
		DurationSecs:   durationSecs,
		UserPromptFile: userPromptFile,
		GitCommitStart: gitCommitStart,
		GitCommitEnd:   gitCommitEnd,
	}
}

// NewRoundFinished builds a round_finished record.
func NewRoundFinished(outcome events.RoundOutcome) Line {
	return Line{Type: TypeRoundFinished, Outcome: outcome}
}

// AppendLine serializes line to one JSON-terminated-by-'\n' record and
// appends it to path, creating the parent directory and the file itself if
// necessary. The write is flushed before returning.
func AppendLine(path string, line Line) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("journal: create parent dir for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	b, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("journal: marshal %s record: %w", line.Type, err)
	}
	b = append(b, '\n')

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("journal: write %s: %w", path, err)
	}
	return f.Sync()
}

// ReadLines reads every record from path in order. Empty lines and
// unrecognized type values are hard read errors, matching the rollout
// journal's strict-reader contract.
func ReadLines(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	var lines []Line
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			return nil, fmt.Errorf("journal: %s:%d: empty line is not allowed", path, lineNo)
		}

		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("journal: %s:%d: decode record: %w", path, lineNo, err)
		}
		if !isKnownType(line.Type) {
			return nil, fmt.Errorf("journal: %s:%d: unrecognized record type %q", path, lineNo, line.Type)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: %s: scan: %w", path, err)
	}
	return lines, nil
}

func isKnownType(t Type) bool {
	switch t {
	case TypeSessionStarted, TypeRoundStarted, TypeRoundConfigured, TypeSessionSucceeded, TypeRoundFinished:
		return true
	default:
		return false
	}
}

// ResolveRolloutPathForRecording canonicalizes rawPath (resolved against
// baseDir if relative) for storage in a round_configured record. On
// success it returns the canonical path with no raw/base-dir fallback
// fields. On failure it returns the raw path as-is for rollout_path, plus
// the raw path and base dir again for debugging, matching the forwarder's
// "record the raw path plus rollout_base_dir for debugging" contract.
func ResolveRolloutPathForRecording(rawPath, baseDir string) (rolloutPath string, rolloutPathRaw, rolloutBaseDir *string) {
	abs := rawPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(baseDir, abs)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		raw := rawPath
		base := baseDir
		return rawPath, &raw, &base
	}
	return canonical, nil, nil
}
