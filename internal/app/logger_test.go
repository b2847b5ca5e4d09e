package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/campushub/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, ConfigureLogging("debug"))
	require.True(t, logger.Logger().Core().Enabled(zap.DebugLevel))

	// Blank and unknown levels both land on info.
	require.NoError(t, ConfigureLogging(""))
	require.False(t, logger.Logger().Core().Enabled(zap.DebugLevel))
	require.NoError(t, ConfigureLogging("chatty"))
	require.True(t, logger.Logger().Core().Enabled(zap.InfoLevel))
}
