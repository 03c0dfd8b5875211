package telemetry

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogHandlerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewSlogHandler(buf, false))
	logger.Debug("hidden debug")
	logger.Info("shown info", "pages", 3)
	require.NotContains(t, buf.String(), "hidden debug")
	require.Contains(t, buf.String(), "shown info")
	require.Contains(t, buf.String(), "pages=3")

	buf.Reset()
	logger = slog.New(NewSlogHandler(buf, true))
	logger.Debug("verbose debug")
	require.Contains(t, buf.String(), "verbose debug")
}
