package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggersUsableBeforeInit(t *testing.T) {
	assert.NotNil(t, InfoLogger)
	assert.NotNil(t, ErrorLogger)
	assert.NotNil(t, DebugLogger)

	assert.NotPanics(t, func() {
		Info("startup message")
		Warn("startup warning")
		Debug("startup debug")
	})
}

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, InfoLogger)
	assert.NotNil(t, ErrorLogger)
	assert.NotNil(t, DebugLogger)
}

func TestInfo(t *testing.T) {
	var buf bytes.Buffer
	Init()
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Info("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestInfoWithKV(t *testing.T) {
	var buf bytes.Buffer
	Init()
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Info("checked in", "user_id", 42, "session_type", "regular")

	output := buf.String()
	assert.Contains(t, output, "checked in")
	assert.Contains(t, output, "user_id=42")
	assert.Contains(t, output, "session_type=regular")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	Init()
	ErrorLogger = log.New(&buf, "ERROR: ", 0)

	Error("test error")

	assert.Contains(t, buf.String(), "test error")
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	Init()
	ErrorLogger = log.New(&buf, "ERROR: ", 0)

	Errorf("failed for user %d", 7)

	assert.Contains(t, buf.String(), "failed for user 7")
}

func TestDebugf(t *testing.T) {
	var buf bytes.Buffer
	Init()
	DebugLogger = log.New(&buf, "DEBUG: ", 0)

	Debugf("value %s", "debug")

	assert.Contains(t, buf.String(), "value debug")
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Init()
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Warn("almost expired", "days_left", 1)

	output := buf.String()
	assert.Contains(t, output, "WARN")
	assert.Contains(t, output, "days_left=1")
}

func TestFormatKVOddArgs(t *testing.T) {
	out := formatKV("msg", []interface{}{"dangling"})
	assert.Equal(t, "msg dangling", out)
}
