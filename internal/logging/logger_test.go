package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"trace":   logrus.TraceLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, GetLevel(in), in)
	}
}

func TestSetup_JSONToFile(t *testing.T) {
	defer func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	}()

	file := filepath.Join(t.TempDir(), "fitness")
	Setup(Params{Level: "debug", JSON: true, File: file})
	logrus.WithField("userId", "u1").Debug("hello")

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	data, err := os.ReadFile(file + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"userId":"u1"`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
