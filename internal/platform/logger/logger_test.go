package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, level("DEBUG"))
	assert.Equal(t, slog.LevelWarn, level("warning"))
	assert.Equal(t, slog.LevelError, level(" error "))
	assert.Equal(t, slog.LevelInfo, level(""))
	assert.Equal(t, slog.LevelInfo, level("verbose"))
	assert.NotNil(t, New())
}
