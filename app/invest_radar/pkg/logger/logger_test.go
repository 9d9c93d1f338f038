package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(logrus.DebugLevel, &buf)

	l.WithField("run_id", "abc").WithField("state", "FanOut").Info("hello")

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "logger_test.go")
	assert.Contains(t, line, "hello run_id=abc state=FanOut")
}

func TestInitLoggerFallsBackToInfo(t *testing.T) {
	old := Log
	t.Cleanup(func() { Log = old })

	require.NoError(t, InitLogger("not-a-level", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
