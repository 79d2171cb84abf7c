package logger_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/tagrelease/internal/logger"
)

func TestSetOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, true)
	defer logger.SetOutput(os.Stderr, false)

	logger.SetDebug(false)
	logger.Debug().Msg("hidden")
	logger.Info().Str("package", "libfoo").Msg("Published")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"package":"libfoo"`)
	require.Contains(t, buf.String(), `"message":"Published"`)
}

func TestSetDebug(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, true)
	defer logger.SetOutput(os.Stderr, false)

	logger.SetDebug(true)
	defer logger.SetDebug(false)
	logger.Get().Debug().Msg("visible")

	require.Contains(t, buf.String(), "visible")
}
