package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDevelopmentLogsDebug(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))

	cfg := newConfig(true)
	require.Equal(t, "console", cfg.Encoding)
	require.Empty(t, cfg.InitialFields)
}

func TestNewProductionTagsService(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zap.DebugLevel))
	require.True(t, logger.Core().Enabled(zap.InfoLevel))

	cfg := newConfig(false)
	require.Equal(t, "json", cfg.Encoding)
	require.Equal(t, "ts", cfg.EncoderConfig.TimeKey)
	require.Equal(t, ServiceName, cfg.InitialFields["service"])
}
