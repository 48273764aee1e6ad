// Package backenderr defines the sentinel errors backing CodexPotter's error
// taxonomy, so callers can errors.Is/errors.As against a stable set of
// causes instead of matching strings, while every wrapped error still
// carries its original cause via %w.
package backenderr

import "errors"

var (
	// ErrSpawnFailed means the codex app-server child process could not be
	// started.
	ErrSpawnFailed = errors.New("backend: spawn failed")
	// ErrHandshakeFailed means initialize or thread/start failed, returned a
	// JSON-RPC error, or the response could not be decoded.
	ErrHandshakeFailed = errors.New("backend: handshake failed")
	// ErrDecodeFailed means a line from the child's stdout was not a valid
	// JSON-RPC message.
	ErrDecodeFailed = errors.New("backend: decode failed")
	// ErrChildExitedEarly means stdout closed before a TurnComplete/TurnAborted
	// was observed for the round.
	ErrChildExitedEarly = errors.New("backend: child exited before turn completed")
	// ErrJournalWriteFailed means an I/O error occurred appending a rollout
	// journal record.
	ErrJournalWriteFailed = errors.New("journal: write failed")
	// ErrResumeIndexMalformed means a rollout journal failed one of the
	// resume index's structural invariants.
	ErrResumeIndexMalformed = errors.New("journal: resume index malformed")
)
