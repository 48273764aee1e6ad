package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezewish/codex-potter-sub000/internal/events"
)

func TestAppendAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", Filename)

	want := []Line{
		NewSessionStarted(nil, "MAIN.md"),
		NewRoundStarted(1, 10),
		NewRoundConfigured("T1", "r.jsonl", nil, nil),
		NewRoundFinished(events.RoundOutcomeCompleted),
	}
	for _, l := range want {
		require.NoError(t, AppendLine(path, l))
	}

	got, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadLinesRejectsEmptyLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename)
	require.NoError(t, AppendLine(path, NewSessionStarted(nil, "MAIN.md")))

	// Inject an empty line by appending directly to the file.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadLines(path)
	require.Error(t, err)
}

func TestReadLinesRejectsUnrecognizedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"type":"something_else"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadLines(path)
	require.Error(t, err)
}

// Scenario 5 — resume round-trip.
func TestBuildResumeIndexUnfinishedRound(t *testing.T) {
	lines := []Line{
		NewSessionStarted(nil, "prompt.md"),
		NewRoundStarted(1, 10),
		NewRoundConfigured("T1", "r.jsonl", nil, nil),
	}

	idx, err := BuildResumeIndex(lines)
	require.NoError(t, err)
	assert.Empty(t, idx.CompletedRounds)
	require.NotNil(t, idx.UnfinishedRound)
	assert.Equal(t, uint32(1), idx.UnfinishedRound.RoundCurrent)
	assert.Equal(t, uint32(10), idx.UnfinishedRound.RoundTotal)
	assert.Equal(t, "T1", idx.UnfinishedRound.ThreadID)
	assert.Equal(t, "r.jsonl", idx.UnfinishedRound.RolloutPath)
}

func TestBuildResumeIndexRejectsMissingSessionStarted(t *testing.T) {
	_, err := BuildResumeIndex([]Line{NewRoundStarted(1, 10)})
	require.Error(t, err)
}

func TestBuildResumeIndexRejectsDuplicateSessionStarted(t *testing.T) {
	lines := []Line{
		NewSessionStarted(nil, "a"),
		NewRoundStarted(1, 1),
		NewRoundConfigured("T1", "r", nil, nil),
		NewRoundFinished(events.RoundOutcomeCompleted),
		NewSessionStarted(nil, "a"),
	}
	_, err := BuildResumeIndex(lines)
	require.Error(t, err)
}

func TestBuildResumeIndexRejectsRoundFinishedWithoutConfigured(t *testing.T) {
	lines := []Line{
		NewSessionStarted(nil, "a"),
		NewRoundStarted(1, 1),
		NewRoundFinished(events.RoundOutcomeCompleted),
	}
	_, err := BuildResumeIndex(lines)
	require.Error(t, err)
}

func TestBuildResumeIndexRejectsSessionStartedWithNoRounds(t *testing.T) {
	_, err := BuildResumeIndex([]Line{NewSessionStarted(nil, "a")})
	require.Error(t, err)
}

func TestBuildResumeIndexCompletedRoundWithSessionSucceeded(t *testing.T) {
	lines := []Line{
		NewSessionStarted(nil, "a"),
		NewRoundStarted(1, 1),
		NewRoundConfigured("T1", "r", nil, nil),
		NewSessionSucceeded(1, 42, "a", "deadbeef", "c0ffee"),
		NewRoundFinished(events.RoundOutcomeCompleted),
	}
	idx, err := BuildResumeIndex(lines)
	require.NoError(t, err)
	require.Len(t, idx.CompletedRounds, 1)
	require.NotNil(t, idx.CompletedRounds[0].SessionSucceeded)
	assert.Equal(t, "c0ffee", idx.CompletedRounds[0].SessionSucceeded.GitCommitEnd)
}
