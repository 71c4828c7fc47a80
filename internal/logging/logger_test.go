package logging

import (
	"testing"

	"github.com/mikey/linkguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_Level(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())

	cfg.Set("logging.level", "debug")
	logger, err := InitLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Set("logging.level", "shouting")
	cfg.Set("logging.format", "console")
	logger, err = InitLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestInitConsoleLogger(t *testing.T) {
	quiet, err := InitConsoleLogger(false, false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))

	verbose, err := InitConsoleLogger(true, true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
