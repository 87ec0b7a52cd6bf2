package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	id := NewRequestID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	got, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestWithContext(t *testing.T) {
	Init("debug", "text")
	ctx := ContextWithSessionID(ContextWithRequestID(context.Background(), "r-1"), "s-1")

	assert.NotNil(t, WithContext(ctx))
	assert.Same(t, Get(), WithContext(context.Background()))
}
