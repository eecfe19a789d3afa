package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "parseLevel(%q)", tt.in)
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	require.NoError(t, Initialize(""))
	assert.False(t, getLogger().Core().Enabled(zapcore.ErrorLevel))
}

func TestInitializeFallsBackToEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	require.NoError(t, Initialize(""))
	assert.True(t, getLogger().Core().Enabled(zapcore.DebugLevel))
	setLogger(nil)
}

func TestLogSessionFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	setLogger(zap.New(core))
	defer setLogger(nil)

	LogSession("abc", "bound", zap.Int("port", 9999))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", ctx["session_id"])
	assert.Equal(t, "bound", ctx["event"])
	assert.EqualValues(t, 9999, ctx["port"])
}

func TestLogDatagramDumps(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	setLogger(zap.New(core))
	defer setLogger(nil)

	LogDatagram("received", "10.0.0.5:9999", []byte("ACK\x01"))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "41434b01", ctx["hex"])
	assert.Equal(t, "ACK.", ctx["ascii"])
	assert.EqualValues(t, 4, ctx["length"])
}

func TestLogDatagramSkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	setLogger(zap.New(core))
	defer setLogger(nil)

	LogDatagram("sent", "255.255.255.255:9999", []byte("DISCOVERY"))
	assert.Equal(t, 0, logs.Len())
}

func TestDumpLimit(t *testing.T) {
	data := []byte(strings.Repeat("A", dumpLimit+10))
	assert.True(t, strings.HasSuffix(hexDump(data), "..."))
	assert.Len(t, asciiDump(data), dumpLimit)
	assert.Equal(t, "", hexDump(nil))
	assert.Equal(t, "", asciiDump(nil))
}
