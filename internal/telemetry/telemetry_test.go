package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProviderNoopsSpans(t *testing.T) {
	p, err := NewProvider(false, nil)
	require.NoError(t, err)

	_, span := p.StartRoundSpan(context.Background(), 1, 10)
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestEnabledProviderWritesSpansToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(true, &buf)
	require.NoError(t, err)

	_, span := p.StartBackendSessionSpan(context.Background(), "codex")
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "codexpotter.backend_session")
}
