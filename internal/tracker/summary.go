package tracker

import (
	"math"
	"slices"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
)

// HabitRef is a habit as the statistics see it. A zero CreatedAt means the
// creation date is unknown, and such a habit never gets auto-crossed days.
type HabitRef struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// SummaryInput is everything Summarize needs. Records is keyed by habit id;
// habits without a record simply have no marked days.
type SummaryInput struct {
	MonthKey  string
	Habits    []HabitRef
	Records   map[string]model.Completion
	Now       time.Time
	AutoCross bool
}

// HabitSummary is one habit's row in the month.
type HabitSummary struct {
	HabitID     string `json:"habitId"`
	Name        string `json:"name"`
	Completed   int    `json:"completed"`
	Crossed     int    `json:"crossed"`
	AutoCrossed int    `json:"autoCrossed"`
	Percent     int    `json:"percent"`
}

// TodayFocus counts today's column; only present for the current month.
type TodayFocus struct {
	Day       int `json:"day"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
	Pending   int `json:"pending"`
}

// Summary is the derived view of one month. Series slices are indexed by
// day-1.
type Summary struct {
	MonthKey          string         `json:"monthKey"`
	HabitCount        int            `json:"habitCount"`
	DaysInMonth       int            `json:"daysInMonth"`
	EffectiveDays     int            `json:"effectiveDays"`
	TotalCompleted    int            `json:"totalCompleted"`
	TotalCrossed      int            `json:"totalCrossed"`
	AutoCrossed       int            `json:"autoCrossed"`
	TotalPossible     int            `json:"totalPossible"`
	CompletionPercent int            `json:"completionPercent"`
	BestDay           int            `json:"bestDay,omitempty"` // 0 when no day has a completion
	BestDayCount      int            `json:"bestDayCount"`
	BestWeekday       string         `json:"bestWeekday,omitempty"` // weekday with the most completions summed over the month
	BestWeekdayCount  int            `json:"bestWeekdayCount"`
	DailyVolume       []int          `json:"dailyVolume"`
	Cumulative        []int          `json:"cumulative"`
	Consistency       []int          `json:"consistency"`
	Habits            []HabitSummary `json:"habits"`
	Today             *TodayFocus    `json:"today,omitempty"`
}

// Summarize derives the month statistics. It is a pure function of its
// input and is recomputed on every request; auto-crossed days are an
// inference for display and are never written back.
func Summarize(in SummaryInput) (*Summary, error) {
	start, err := ParseMonthKey(in.MonthKey)
	if err != nil {
		return nil, err
	}
	days := daysIn(start.Year(), start.Month())
	today := civil(in.Now)
	current := MonthKeyOf(today) == in.MonthKey

	s := &Summary{
		MonthKey:    in.MonthKey,
		HabitCount:  len(in.Habits),
		DaysInMonth: days,
		DailyVolume: make([]int, days),
		Cumulative:  make([]int, days),
		Consistency: make([]int, days),
		Habits:      make([]HabitSummary, 0, len(in.Habits)),
	}

	s.EffectiveDays = days
	if current {
		s.EffectiveDays = today.Day()
	}
	s.TotalPossible = s.HabitCount * s.EffectiveDays

	if current {
		s.Today = &TodayFocus{Day: today.Day()}
	}

	for _, h := range in.Habits {
		rec := Normalize(in.Records[h.ID])
		// Legacy rows may hold day 31 in a shorter month.
		rec.Days = clip(rec.Days, days)
		rec.CrossedDays = clip(rec.CrossedDays, days)
		hs := HabitSummary{
			HabitID:   h.ID,
			Name:      h.Name,
			Completed: len(rec.Days),
			Crossed:   len(rec.CrossedDays),
		}
		for _, d := range rec.Days {
			s.DailyVolume[d-1]++
		}
		if in.AutoCross && !h.CreatedAt.IsZero() {
			created := civil(h.CreatedAt.In(in.Now.Location()))
			hs.AutoCrossed = autoCrossed(start, days, today, created, rec)
		}
		if days > 0 {
			hs.Percent = percent(hs.Completed, days)
		}
		if s.Today != nil {
			switch StatusOf(rec, s.Today.Day) {
			case StatusCompleted:
				s.Today.Completed++
			case StatusCrossed:
				s.Today.Missed++
			default:
				s.Today.Pending++
			}
		}

		s.TotalCompleted += hs.Completed
		s.TotalCrossed += hs.Crossed + hs.AutoCrossed
		s.AutoCrossed += hs.AutoCrossed
		s.Habits = append(s.Habits, hs)
	}

	s.CompletionPercent = percent(s.TotalCompleted, s.TotalPossible)

	var weekdays [7]int
	running := 0
	for i, v := range s.DailyVolume {
		weekdays[start.AddDate(0, 0, i).Weekday()] += v
		running += v
		s.Cumulative[i] = running
		s.Consistency[i] = percent(v, s.HabitCount)

		// Strictly greater: the earliest day wins a tie, and a zero day
		// never beats the initial zero.
		if v > s.BestDayCount {
			s.BestDay = i + 1
			s.BestDayCount = v
		}
	}
	// Sunday first; the earliest weekday wins a tie.
	for wd, v := range weekdays {
		if v > s.BestWeekdayCount {
			s.BestWeekday = time.Weekday(wd).String()
			s.BestWeekdayCount = v
		}
	}

	return s, nil
}

// autoCrossed counts days strictly before today, on or after the habit's
// creation date, that are in neither set.
func autoCrossed(start time.Time, days int, today, created time.Time, rec model.Completion) int {
	n := 0
	for d := 1; d <= days; d++ {
		cell := time.Date(start.Year(), start.Month(), d, 0, 0, 0, 0, time.UTC)
		if !cell.Before(today) {
			break
		}
		if cell.Before(created) {
			continue
		}
		if slices.Contains(rec.Days, d) || slices.Contains(rec.CrossedDays, d) {
			continue
		}
		n++
	}
	return n
}

// clip drops days past the end of a month of n days. days is sorted.
func clip(days []int, n int) []int {
	i, _ := slices.BinarySearch(days, n+1)
	return days[:i]
}

// percent is round(part / whole × 100), and 0 for an empty whole.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
