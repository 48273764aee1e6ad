package backend

import (
	"io"
	"strings"
	"sync"
)

// stderrCaptureLimit bounds how much of the child's stderr the driver keeps
// in memory for diagnostics.
const stderrCaptureLimit = 32 * 1024

// stderrReadChunk is the read size for the drain goroutine; it is
// deliberately small relative to the cap so the overflow flag is set well
// before memory grows unbounded.
const stderrReadChunk = 4 * 1024

// stderrCapture bounds-captures a child process's stderr without ever
// blocking the driver: drain() runs in its own goroutine and only touches
// shared state behind a mutex.
type stderrCapture struct {
	mu       sync.Mutex
	buf      []byte
	overflow bool
}

func newStderrCapture() *stderrCapture {
	return &stderrCapture{buf: make([]byte, 0, stderrCaptureLimit)}
}

// drain reads r until EOF or error, never blocking the caller beyond the
// read itself. Intended to run in its own goroutine; returns when r is
// closed (including when the child process is killed on context abort).
func (c *stderrCapture) drain(r io.Reader) {
	chunk := make([]byte, stderrReadChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			c.append(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

func (c *stderrCapture) append(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := stderrCaptureLimit - len(c.buf)
	if remaining <= 0 {
		c.overflow = true
		return
	}
	if len(b) > remaining {
		b = b[:remaining]
		c.overflow = true
	}
	c.buf = append(c.buf, b...)
}

// Snapshot renders the captured stderr for inclusion in an error message:
// trailing CR/LF trimmed, suffixed with a truncation marker if the cap was
// exceeded.
func (c *stderrCapture) Snapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := strings.TrimRight(string(c.buf), "\r\n")
	if c.overflow {
		if s != "" {
			s += " "
		}
		s += "[stderr truncated]"
	}
	return s
}
