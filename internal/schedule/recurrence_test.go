package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return parsed
}

func TestClampRecurrenceEnd(t *testing.T) {
	start := mustTime(t, "2025-01-06T10:00:00Z")

	t.Run("zero requested falls back to horizon", func(t *testing.T) {
		got := ClampRecurrenceEnd(start, time.Time{})
		assert.Equal(t, mustTime(t, "2025-04-06T00:00:00Z"), got)
	})

	t.Run("requested beyond horizon is clamped", func(t *testing.T) {
		got := ClampRecurrenceEnd(start, mustTime(t, "2026-01-01T00:00:00Z"))
		assert.Equal(t, mustTime(t, "2025-04-06T00:00:00Z"), got)
	})

	t.Run("requested inside horizon is kept", func(t *testing.T) {
		requested := mustTime(t, "2025-02-03T00:00:00Z")
		got := ClampRecurrenceEnd(start, requested)
		assert.Equal(t, requested, got)
	})
}

func TestExpandWeekly(t *testing.T) {
	start := mustTime(t, "2025-01-06T10:00:00Z")
	end := mustTime(t, "2025-01-06T11:00:00Z")

	t.Run("four weeks yields four children", func(t *testing.T) {
		until := mustTime(t, "2025-02-03T00:00:00Z")
		windows := ExpandWeekly(start, end, until)

		assert.Len(t, windows, 4)
		assert.Equal(t, mustTime(t, "2025-01-13T10:00:00Z"), windows[0].Start)
		assert.Equal(t, mustTime(t, "2025-01-13T11:00:00Z"), windows[0].End)
		assert.Equal(t, mustTime(t, "2025-02-03T10:00:00Z"), windows[3].Start)
	})

	t.Run("end before first child yields nothing", func(t *testing.T) {
		until := mustTime(t, "2025-01-10T00:00:00Z")
		assert.Empty(t, ExpandWeekly(start, end, until))
	})

	t.Run("end on a child date includes that child", func(t *testing.T) {
		until := mustTime(t, "2025-01-13T00:00:00Z")
		windows := ExpandWeekly(start, end, until)
		assert.Len(t, windows, 1)
		assert.Equal(t, mustTime(t, "2025-01-13T10:00:00Z"), windows[0].Start)
	})

	t.Run("horizon caps the series at 12 children", func(t *testing.T) {
		until := ClampRecurrenceEnd(start, time.Time{})
		windows := ExpandWeekly(start, end, until)
		assert.Len(t, windows, 12)
	})

	t.Run("seed duration is preserved across children", func(t *testing.T) {
		until := mustTime(t, "2025-02-10T00:00:00Z")
		for _, w := range ExpandWeekly(start, end, until) {
			assert.Equal(t, time.Hour, w.End.Sub(w.Start))
		}
	})
}
