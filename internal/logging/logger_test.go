package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/casewise/internal/model"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("INFO"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(""))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(model.LogConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Named("store").With(String("path", "/tmp/cases.json")).
		Warn("case store missing", Int("cases", 0), Err(errors.New("not found")))
	logger.Debug("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "case store missing", entry["msg"])
	assert.Equal(t, "casewise.store", entry["logger"])
	assert.Equal(t, "/tmp/cases.json", entry["path"])
	assert.Equal(t, "not found", entry["error"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(model.LogConfig{Level: "debug", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Debug("resolved", String("tier", "exact"))
	assert.Contains(t, buf.String(), "resolved")
	assert.Contains(t, buf.String(), "exact")
}

func TestNewWithWriter_Errors(t *testing.T) {
	_, err := NewWithWriter(model.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter(model.LogConfig{}, nil)
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("nothing")
	assert.NotNil(t, l.With(String("k", "v")).Named("x"))
}
