package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStderrCaptureSnapshotTrimsTrailingNewlines(t *testing.T) {
	c := newStderrCapture()
	c.drain(strings.NewReader("panic: boom\n\n"))
	assert.Equal(t, "panic: boom", c.Snapshot())
}

func TestStderrCaptureOverflowAppendsTruncatedMarker(t *testing.T) {
	c := newStderrCapture()
	c.drain(strings.NewReader(strings.Repeat("x", stderrCaptureLimit+4096)))
	snap := c.Snapshot()
	assert.True(t, strings.HasSuffix(snap, "[stderr truncated]"))
	assert.LessOrEqual(t, len(snap), stderrCaptureLimit+len("[stderr truncated]")+1)
}
