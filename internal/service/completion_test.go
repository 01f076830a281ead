package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/tracker"
)

func newRecord(habitID string, days, crossed []int) model.Completion {
	return model.Completion{
		UserID:      testUser,
		HabitID:     habitID,
		MonthKey:    "2025-03",
		Days:        days,
		CrossedDays: crossed,
	}
}

func newTestCompletionService(f *fakeStore) *CompletionService {
	return NewCompletionService(f, f, fixedClock(testNow), discardLogger())
}

func assertDays(t *testing.T, c *model.Completion, days, crossed []int) {
	t.Helper()
	if !slices.Equal(c.Days, days) {
		t.Errorf("Days = %v, want %v", c.Days, days)
	}
	if !slices.Equal(c.CrossedDays, crossed) {
		t.Errorf("CrossedDays = %v, want %v", c.CrossedDays, crossed)
	}
}

// =========================================================================
// TRANSITIONS THROUGH THE STORE
// =========================================================================

func TestTap_CyclePersists(t *testing.T) {
	f := newFakeStore()
	h := seedHabit(t, f, testUser, "Read", testNow)
	svc := newTestCompletionService(f)
	change := DayChange{HabitID: h.ID, MonthKey: "2025-03", Day: 10}

	steps := []struct {
		days, crossed []int
	}{
		{[]int{10}, []int{}},
		{[]int{}, []int{10}},
		{[]int{10}, []int{}},
	}
	for i, step := range steps {
		got, err := svc.Tap(context.Background(), testUser, change)
		if err != nil {
			t.Fatalf("tap %d: error = %v", i+1, err)
		}
		assertDays(t, got, step.days, step.crossed)

		stored := f.completions[completionKey(testUser, h.ID, "2025-03")]
		assertDays(t, &stored, step.days, step.crossed)
	}
	if f.calls["UpsertCompletion"] != len(steps) {
		t.Errorf("UpsertCompletion called %d times, want one per tap", f.calls["UpsertCompletion"])
	}
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name        string
		start       model.Completion
		status      tracker.Status
		wantDays    []int
		wantCrossed []int
	}{
		{"crossed from none", newRecord("", nil, nil), tracker.StatusCrossed, []int{}, []int{5}},
		{"completed replaces crossed", newRecord("", []int{1}, []int{5}), tracker.StatusCompleted, []int{1, 5}, []int{}},
		{"crossed replaces completed", newRecord("", []int{5, 7}, nil), tracker.StatusCrossed, []int{7}, []int{5}},
		{"empty clears", newRecord("", []int{5}, []int{6}), tracker.StatusNone, []int{}, []int{6}},
		{"legacy overlap repaired", newRecord("", []int{5}, []int{5, 6}), tracker.StatusCompleted, []int{5}, []int{6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore()
			h := seedHabit(t, f, testUser, "Read", testNow)
			start := tt.start
			start.HabitID = h.ID
			f.completions[completionKey(testUser, h.ID, "2025-03")] = start

			got, err := newTestCompletionService(f).SetStatus(context.Background(), testUser,
				DayChange{HabitID: h.ID, MonthKey: "2025-03", Day: 5}, tt.status)
			if err != nil {
				t.Fatalf("SetStatus() error = %v", err)
			}
			assertDays(t, got, tt.wantDays, tt.wantCrossed)
		})
	}
}

func TestSetStatus_Idempotent(t *testing.T) {
	f := newFakeStore()
	h := seedHabit(t, f, testUser, "Read", testNow)
	svc := newTestCompletionService(f)
	change := DayChange{HabitID: h.ID, MonthKey: "2025-03", Day: 3}

	first, err := svc.SetStatus(context.Background(), testUser, change, tracker.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	second, err := svc.SetStatus(context.Background(), testUser, change, tracker.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	assertDays(t, second, first.Days, first.CrossedDays)
}

func TestClear(t *testing.T) {
	f := newFakeStore()
	h := seedHabit(t, f, testUser, "Read", testNow)
	f.completions[completionKey(testUser, h.ID, "2025-03")] = newRecord(h.ID, []int{1, 2}, []int{3})

	got, err := newTestCompletionService(f).Clear(context.Background(), testUser,
		DayChange{HabitID: h.ID, MonthKey: "2025-03", Day: 3})
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	assertDays(t, got, []int{1, 2}, []int{})
}

func TestSetStatus_TodayAndPastMonthAllowed(t *testing.T) {
	f := newFakeStore()
	h := seedHabit(t, f, testUser, "Read", testNow)
	svc := newTestCompletionService(f)

	for _, change := range []DayChange{
		{HabitID: h.ID, MonthKey: "2025-03", Day: 15},
		{HabitID: h.ID, MonthKey: "2025-02", Day: 28},
		{HabitID: h.ID, MonthKey: "2024-02", Day: 29},
	} {
		if _, err := svc.SetStatus(context.Background(), testUser, change, tracker.StatusCompleted); err != nil {
			t.Errorf("SetStatus(%+v) error = %v", change, err)
		}
	}
}

// =========================================================================
// REJECTIONS
// =========================================================================

func TestSetStatus_Rejections(t *testing.T) {
	f := newFakeStore()
	mine := seedHabit(t, f, testUser, "Read", testNow)
	theirs := seedHabit(t, f, "user-2", "Theirs", testNow)

	tests := []struct {
		name    string
		userID  string
		change  DayChange
		wantErr error
	}{
		{"anonymous", "", DayChange{mine.ID, "2025-03", 1}, apperror.ErrUnauthenticated},
		{"missing month", testUser, DayChange{mine.ID, "", 1}, apperror.ErrValidation},
		{"bad month", testUser, DayChange{mine.ID, "2025/03", 1}, apperror.ErrValidation},
		{"missing habit", testUser, DayChange{" ", "2025-03", 1}, apperror.ErrValidation},
		{"day zero", testUser, DayChange{mine.ID, "2025-03", 0}, apperror.ErrValidation},
		{"day past month end", testUser, DayChange{mine.ID, "2025-02", 29}, apperror.ErrValidation},
		{"tomorrow", testUser, DayChange{mine.ID, "2025-03", 16}, apperror.ErrValidation},
		{"future month", testUser, DayChange{mine.ID, "2025-04", 1}, apperror.ErrValidation},
		{"unknown habit", testUser, DayChange{"nope", "2025-03", 1}, apperror.ErrNotFound},
		{"other user's habit", testUser, DayChange{theirs.ID, "2025-03", 1}, apperror.ErrNotFound},
	}

	svc := newTestCompletionService(f)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetStatus(context.Background(), tt.userID, tt.change, tracker.StatusCompleted)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetStatus() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if f.calls["UpsertCompletion"] != 0 {
		t.Errorf("UpsertCompletion called %d times for rejected changes", f.calls["UpsertCompletion"])
	}
}

func TestTap_UpsertFailurePropagates(t *testing.T) {
	f := newFakeStore()
	h := seedHabit(t, f, testUser, "Read", testNow)
	f.fail["UpsertCompletion"] = errStoreDown

	_, err := newTestCompletionService(f).Tap(context.Background(), testUser,
		DayChange{HabitID: h.ID, MonthKey: "2025-03", Day: 1})
	if !errors.Is(err, errStoreDown) {
		t.Errorf("Tap() error = %v, want the store error", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		t.Errorf("store failure surfaced as a domain error: %v", appErr)
	}
}

// =========================================================================
// LIST
// =========================================================================

func TestListMonth(t *testing.T) {
	f := newFakeStore()
	a := seedHabit(t, f, testUser, "Read", testNow)
	b := seedHabit(t, f, testUser, "Run", testNow)
	f.completions[completionKey(testUser, a.ID, "2025-03")] = newRecord(a.ID, []int{1}, nil)
	f.completions[completionKey(testUser, b.ID, "2025-02")] = model.Completion{
		UserID: testUser, HabitID: b.ID, MonthKey: "2025-02", Days: []int{9},
	}

	got, err := newTestCompletionService(f).ListMonth(context.Background(), testUser, "2025-03")
	if err != nil {
		t.Fatalf("ListMonth() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListMonth() returned %d records, want 1", len(got))
	}
	if !slices.Equal(got[a.ID].Days, []int{1}) {
		t.Errorf("record = %+v", got[a.ID])
	}

	if _, err := newTestCompletionService(f).ListMonth(context.Background(), testUser, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ListMonth(\"\") error = %v, want ErrValidation", err)
	}
}
