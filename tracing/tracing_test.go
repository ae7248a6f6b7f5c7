package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")

	require.NoError(t, Init("chipng", "0.0.1", fname))

	_, span := StartSpan(context.Background(), "executor.Execute", "INTERNAL")
	span.WithAttributes(map[string]string{"job.id": "j1"}).WithInt("image.width", 3)
	EndSpan(span, nil)
	_, failed := StartSpan(context.Background(), "executor.Execute", "CONSUMER")
	EndSpan(failed, errors.New("bleed: invalid dimensions"))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "executor.Execute")
	assert.Contains(t, string(data), "bleed: invalid dimensions")
	assert.NoError(t, Shutdown(context.Background()))
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.Nil(t, span.WithAttributes(map[string]string{"k": "v"}))
	assert.Nil(t, span.WithInt("k", 1))
	span.SetStatus(nil)
	EndSpan(nil, nil)
}
