package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitAndSetLevel(t *testing.T) {
	l, err := Init("info", "json")
	require.NoError(t, err)
	require.NotNil(t, l)
	require.Equal(t, zapcore.InfoLevel, Level())

	require.NoError(t, SetLevel("debug"))
	require.Equal(t, zapcore.DebugLevel, Level())

	require.Error(t, SetLevel("loud"))
	require.Equal(t, zapcore.DebugLevel, Level())
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	_, err := Init("info", "xml")
	require.Error(t, err)
}
