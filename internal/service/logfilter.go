package service

import (
	"strconv"

	"github.com/sakif/exercise-tracker/internal/model"
)

// dateStringLayout renders range bounds the way the log endpoint has always
// echoed them: day-of-week, month, zero-padded day, year.
const dateStringLayout = "Mon Jan 02 2006"

// LogView is the filtered, optionally truncated view of a user's exercise
// log plus the echoed range metadata.
//
// From and To are empty when the corresponding bound was absent or did not
// parse; they are never echoed back as a raw or null value. Count is nil
// unless a limit was supplied and parsed as an integer, in which case it
// echoes the REQUESTED limit, not the number of entries actually returned.
type LogView struct {
	Exercises []model.Exercise
	From      string
	To        string
	Count     *int
}

// FilterLog computes the date-bounded, optionally truncated view of an
// exercise list. It is pure: no store access, no side effects, and the
// input slice is never modified.
//
// Bounds are applied over each entry's date, inclusive on both ends. A
// from/to value that does not parse as a date is silently ignored, exactly
// as if it had been omitted. Original order is preserved; limit takes the
// head of the filtered sequence.
func FilterLog(exercises []model.Exercise, from, to, limit string) LogView {
	view := LogView{}

	fromTime, hasFrom := ParseDate(from)
	toTime, hasTo := ParseDate(to)
	if hasFrom {
		view.From = fromTime.Format(dateStringLayout)
	}
	if hasTo {
		view.To = toTime.Format(dateStringLayout)
	}

	filtered := make([]model.Exercise, 0, len(exercises))
	for _, ex := range exercises {
		switch {
		case hasFrom && hasTo:
			if !ex.Date.Before(fromTime) && !ex.Date.After(toTime) {
				filtered = append(filtered, ex)
			}
		case hasFrom:
			if !ex.Date.Before(fromTime) {
				filtered = append(filtered, ex)
			}
		case hasTo:
			if !ex.Date.After(toTime) {
				filtered = append(filtered, ex)
			}
		default:
			filtered = append(filtered, ex)
		}
	}

	if limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			// count echoes the requested limit even when the filtered list
			// is shorter. Preserved quirk of the published contract.
			view.Count = &n
			switch {
			case n < 0:
				filtered = filtered[:0]
			case n < len(filtered):
				filtered = filtered[:n]
			}
		}
	}

	view.Exercises = filtered
	return view
}
