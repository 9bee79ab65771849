package inventory

import "time"

// Lapse selects the time bucket an inventory fetch filters on.
type Lapse string

const (
	LapseNone            Lapse = ""
	LapseToday           Lapse = "today"
	LapseThisWeek        Lapse = "this_week"
	LapseThisMonth       Lapse = "this_month"
	LapseLastThreeMonths Lapse = "last_3_months"
	LapseCustom          Lapse = "custom"
)

// Window is a tagged time-filter variant. Start and End are only meaningful
// for LapseCustom.
type Window struct {
	Lapse Lapse
	Start time.Time
	End   time.Time
}

// Validate checks a custom window's bounds. Both bounds are required and the
// range must not be inverted.
func (w Window) Validate() error {
	if w.Lapse != LapseCustom {
		return nil
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrInvalidArgument
	}
	if w.End.Before(w.Start) {
		return ErrInvalidArgument
	}
	return nil
}

// Contains reports whether a stock-taken timestamp falls inside the window
// relative to now. Comparisons use the local calendar, matching how the
// stock-taking clients record dates.
//
// Two quirks are kept deliberately for parity with the system this replaces:
// ThisMonth matches the month number only (an entry from the same month last
// year matches), and LastThreeMonths compares month numbers without year or
// wraparound handling, so in January the threshold is -2 and every month
// matches.
func (w Window) Contains(ts, now time.Time) bool {
	switch w.Lapse {
	case LapseNone:
		return true

	case LapseToday:
		y1, m1, d1 := ts.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2

	case LapseThisWeek:
		day := ts.Format("2006-01-02")
		for _, d := range currentWeekDates(now) {
			if day == d {
				return true
			}
		}
		return false

	case LapseThisMonth:
		return int(ts.Month()) == int(now.Month())

	case LapseLastThreeMonths:
		return int(ts.Month()) >= int(now.Month())-3

	case LapseCustom:
		return !ts.Before(w.Start) && !ts.After(w.End)
	}
	return false
}

// currentWeekDates returns the 7 calendar dates (YYYY-MM-DD) of the week
// containing now, starting on Sunday.
func currentWeekDates(now time.Time) []string {
	first := now.AddDate(0, 0, -int(now.Weekday()))
	dates := make([]string, 7)
	for i := 0; i < 7; i++ {
		dates[i] = first.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}

// emptyMessage is the window-specific "no entries" text returned instead of
// an empty list.
func (w Window) emptyMessage() string {
	switch w.Lapse {
	case LapseToday:
		return "No entries for today found"
	case LapseThisWeek:
		return "No entries for this week found"
	case LapseThisMonth:
		return "No entries for this month found"
	case LapseLastThreeMonths:
		return "No entries for the past 3 months found"
	case LapseCustom:
		return "No entries for the selected dates found"
	}
	return "No entries found"
}

// adminViewMessage describes the admin-only new-products bucket in the
// response metadata.
func (w Window) adminViewMessage(searched bool) string {
	var bucket string
	switch w.Lapse {
	case LapseToday:
		bucket = "today's"
	case LapseThisWeek:
		bucket = "this week's"
	case LapseThisMonth:
		bucket = "this month's"
	case LapseLastThreeMonths:
		bucket = "last 3 months'"
	case LapseCustom:
		bucket = "custom dates"
	default:
		bucket = "all"
	}
	if searched {
		return "Search results on " + bucket + " new products for admin view"
	}
	return capitalize(bucket) + " new products for admin view"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
