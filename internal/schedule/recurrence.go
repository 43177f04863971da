package schedule

import "time"

// RecurrenceHorizonDays bounds how far a weekly series may extend past its
// seed. With weekly steps this caps a series at 12 generated children.
const RecurrenceHorizonDays = 90

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ClampRecurrenceEnd limits the requested series end to the horizon. A zero
// requested time means "as long as allowed".
func ClampRecurrenceEnd(start time.Time, requested time.Time) time.Time {
	horizon := dateOf(start.AddDate(0, 0, RecurrenceHorizonDays))
	if requested.IsZero() {
		return horizon
	}
	req := dateOf(requested)
	if req.After(horizon) {
		return horizon
	}
	return req
}

// ExpandWeekly generates the weekly child windows of a seed occupying
// [start, end). Children begin one week after the seed and continue while
// the child's calendar date does not pass the (already clamped) until date.
// The seed itself is not part of the result. The function is pure so the
// same expansion can back a dry-run preview.
func ExpandWeekly(start, end, until time.Time) []Window {
	duration := end.Sub(start)
	untilDate := dateOf(until)

	var windows []Window
	for cur := start.AddDate(0, 0, 7); !dateOf(cur).After(untilDate); cur = cur.AddDate(0, 0, 7) {
		windows = append(windows, Window{Start: cur, End: cur.Add(duration)})
	}
	return windows
}
