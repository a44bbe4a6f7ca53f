package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"labreserve/internal/domain"
)

const maxOccurrences = 52

type window struct {
	Start time.Time
	End   time.Time
}

func parsePattern(raw string) (domain.RecurrencePattern, error) {
	p := domain.RecurrencePattern(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case domain.RecurDaily, domain.RecurWeekly, domain.RecurBiweekly, domain.RecurMonthly:
		return p, nil
	}
	return "", ErrInvalidRecurringPattern.WithMessage(fmt.Sprintf("unknown recurrence pattern %q", raw))
}

// expand returns count windows of the same length, stepping the start by
// pattern in loc so wall-clock times survive DST changes. Monthly steps keep
// the day of month, clamped to the month's last day.
func expand(start, end time.Time, pattern domain.RecurrencePattern, count int, loc *time.Location) ([]window, error) {
	if count < 1 || count > maxOccurrences {
		return nil, ErrInvalidRecurringPattern.WithMessage(
			fmt.Sprintf("occurrences must be between 1 and %d", maxOccurrences))
	}

	length := end.Sub(start)
	first := start.In(loc)
	out := make([]window, 0, count)
	for i := 0; i < count; i++ {
		var s time.Time
		switch pattern {
		case domain.RecurDaily:
			s = first.AddDate(0, 0, i)
		case domain.RecurWeekly:
			s = first.AddDate(0, 0, 7*i)
		case domain.RecurBiweekly:
			s = first.AddDate(0, 0, 14*i)
		case domain.RecurMonthly:
			s = addMonthsClamped(first, i)
		default:
			return nil, ErrInvalidRecurringPattern.WithMessage(fmt.Sprintf("unknown recurrence pattern %q", pattern))
		}
		out = append(out, window{Start: s, End: s.Add(length)})
	}
	return out, nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	month := now.With(t).BeginningOfMonth().AddDate(0, months, 0)
	lastDay := now.With(month).EndOfMonth().Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(month.Year(), month.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
