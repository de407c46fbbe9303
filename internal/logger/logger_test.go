package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Str("op", "sweep").Msg("done")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"op":"sweep"`)
	assert.Contains(t, out, "done")
}

func TestFromContextFallback(t *testing.T) {
	// A bare context yields a usable default logger rather than panicking.
	log := FromContext(context.Background())
	log.Debug().Msg("fallback")
}
