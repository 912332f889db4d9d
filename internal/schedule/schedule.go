// Package schedule decides which gazette (date, edition) pairs a run covers.
// The policy is injectable because the business rule for catching up after
// non-publishing days has changed more than once.
package schedule

import (
	"time"

	"NormasScanner/internal/domain"
)

// Entry is one extraction target.
type Entry struct {
	Date    time.Time
	Edition domain.EditionKind
}

// Func maps the run day onto the extraction schedule.
type Func func(today time.Time) []Entry

// Default covers today's ordinary edition plus yesterday's extraordinary
// edition. On Mondays it widens to catch the weekend: ordinary editions for
// Saturday through Monday and extraordinary editions for Friday through
// Sunday.
func Default(today time.Time) []Entry {
	// Midnight in the run's own timezone; Truncate would round to UTC
	// midnight and shift the calendar day for afternoon-or-earlier runs
	// west of UTC.
	y, m, d := today.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	if today.Weekday() == time.Monday {
		entries := make([]Entry, 0, 6)
		for back := 2; back >= 0; back-- {
			entries = append(entries, Entry{
				Date:    today.AddDate(0, 0, -back),
				Edition: domain.EditionOrdinary,
			})
		}
		for back := 3; back >= 1; back-- {
			entries = append(entries, Entry{
				Date:    today.AddDate(0, 0, -back),
				Edition: domain.EditionExtraordinary,
			})
		}
		return entries
	}

	return []Entry{
		{Date: today, Edition: domain.EditionOrdinary},
		{Date: today.AddDate(0, 0, -1), Edition: domain.EditionExtraordinary},
	}
}

// Dates returns the distinct dates an entry list covers, oldest first.
func Dates(entries []Entry) []time.Time {
	seen := map[time.Time]struct{}{}
	var out []time.Time
	for _, e := range entries {
		if _, ok := seen[e.Date]; ok {
			continue
		}
		seen[e.Date] = struct{}{}
		out = append(out, e.Date)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
