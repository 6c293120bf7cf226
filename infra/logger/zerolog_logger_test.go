package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
	l.With("tick", 3).Infof("child")
}

func TestZerologLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog(&buf, "runner", "warn")
	l.Infof("hidden")
	l.With("tick", 5).Warnf("halt %s", "now")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "runner", entry["component"])
	assert.Equal(t, "halt now", entry["message"])
	assert.Equal(t, float64(5), entry["tick"])
}

func TestZerologLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog(&buf, "c", "bogus")
	l.Debugf("skip")
	l.Infof("keep")
	assert.Contains(t, buf.String(), "keep")
	assert.NotContains(t, buf.String(), "skip")
}
