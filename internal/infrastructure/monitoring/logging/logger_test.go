package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newBufferLogger(level zapcore.Level) (Logger, *zaptest.Buffer) {
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, level)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelDebug, Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/radar/out.log"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestZapLogger_WritesTypedFields(t *testing.T) {
	l, buf := newBufferLogger(zapcore.DebugLevel)

	l.Info("blocker created",
		String("product_id", "p-1"),
		Int("count", 2),
		Bool("stale", false),
		Float64("coverage", 62.5),
		Duration("took", 150*time.Millisecond),
		Strings("markets", []string{"city-5", "city-6"}),
	)

	out := buf.String()
	assert.Contains(t, out, `"msg":"blocker created"`)
	assert.Contains(t, out, `"product_id":"p-1"`)
	assert.Contains(t, out, `"count":2`)
	assert.Contains(t, out, `"coverage":62.5`)
	assert.Contains(t, out, `"markets":["city-5","city-6"]`)
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(zapcore.WarnLevel)

	l.Debug("dropped")
	l.Info("dropped too")
	l.Warn("kept")

	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("radar").With(String("component", "escalations"))

	l.Error("history append failed", Err(errors.New("timeout")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "radar", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "escalations", ctx["component"])
	assert.Equal(t, "timeout", ctx["error"])
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestDefault_SetAndGet(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	SetDefault(nil)
	assert.Equal(t, prev, Default())

	l := NewNopLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x")
	assert.Equal(t, l, l.With(String("a", "b")).Named("n"))
	assert.NoError(t, l.Sync())
}
