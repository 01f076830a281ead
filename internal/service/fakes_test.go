package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// fakeStore implements the habit, snapshot, completion, journal and goal
// repositories on plain maps. It counts calls per method and can be told
// to fail one method, which is how the tests check "nothing was written"
// and "store errors propagate".

var errStoreDown = errors.New("store is down")

type fakeStore struct {
	habits      map[string]model.Habit
	snapshots   map[string]model.MonthSnapshot
	completions map[string]model.Completion
	journal     map[string]model.JournalEntry
	goals       map[string]model.Goal

	nextID int
	calls  map[string]int
	fail   map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		habits:      make(map[string]model.Habit),
		snapshots:   make(map[string]model.MonthSnapshot),
		completions: make(map[string]model.Completion),
		journal:     make(map[string]model.JournalEntry),
		goals:       make(map[string]model.Goal),
		calls:       make(map[string]int),
		fail:        make(map[string]error),
	}
}

func (f *fakeStore) hit(method string) error {
	f.calls[method]++
	return f.fail[method]
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func snapKey(userID, monthKey string) string { return userID + "|" + monthKey }

func completionKey(userID, habitID, monthKey string) string {
	return userID + "|" + habitID + "|" + monthKey
}

// --- habits ---

func (f *fakeStore) CreateHabit(_ context.Context, h *model.Habit) error {
	if err := f.hit("CreateHabit"); err != nil {
		return err
	}
	h.ID = f.id("habit")
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	f.habits[h.ID] = *h
	return nil
}

func (f *fakeStore) GetHabit(_ context.Context, userID, id string) (*model.Habit, error) {
	if err := f.hit("GetHabit"); err != nil {
		return nil, err
	}
	h, ok := f.habits[id]
	if !ok || h.UserID != userID {
		return nil, apperror.NotFound("habit", id)
	}
	return &h, nil
}

func (f *fakeStore) ListHabits(_ context.Context, userID string) ([]model.Habit, error) {
	if err := f.hit("ListHabits"); err != nil {
		return nil, err
	}
	out := []model.Habit{}
	for _, h := range f.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) DeleteHabit(_ context.Context, userID, id string) error {
	if err := f.hit("DeleteHabit"); err != nil {
		return err
	}
	h, ok := f.habits[id]
	if !ok || h.UserID != userID {
		return apperror.NotFound("habit", id)
	}
	delete(f.habits, id)
	for k, c := range f.completions {
		if c.UserID == userID && c.HabitID == id {
			delete(f.completions, k)
		}
	}
	return nil
}

// --- snapshots ---

func (f *fakeStore) GetSnapshot(_ context.Context, userID, monthKey string) (*model.MonthSnapshot, error) {
	if err := f.hit("GetSnapshot"); err != nil {
		return nil, err
	}
	s, ok := f.snapshots[snapKey(userID, monthKey)]
	if !ok {
		return nil, nil
	}
	s.Habits = slices.Clone(s.Habits)
	return &s, nil
}

func (f *fakeStore) HasAnySnapshot(_ context.Context, userID string) (bool, error) {
	if err := f.hit("HasAnySnapshot"); err != nil {
		return false, err
	}
	for _, s := range f.snapshots {
		if s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) LatestSnapshotBefore(_ context.Context, userID, monthKey string) (*model.MonthSnapshot, error) {
	if err := f.hit("LatestSnapshotBefore"); err != nil {
		return nil, err
	}
	var best *model.MonthSnapshot
	for _, s := range f.snapshots {
		if s.UserID != userID || s.MonthKey >= monthKey || len(s.Habits) == 0 {
			continue
		}
		if best == nil || s.MonthKey > best.MonthKey {
			s := s
			best = &s
		}
	}
	return best, nil
}

func (f *fakeStore) SaveSnapshot(_ context.Context, s *model.MonthSnapshot) error {
	if err := f.hit("SaveSnapshot"); err != nil {
		return err
	}
	stored := *s
	stored.Habits = slices.Clone(s.Habits)
	f.snapshots[snapKey(s.UserID, s.MonthKey)] = stored
	return nil
}

func (f *fakeStore) AppendSnapshotHabit(_ context.Context, userID, monthKey string, h model.MonthHabit) error {
	if err := f.hit("AppendSnapshotHabit"); err != nil {
		return err
	}
	k := snapKey(userID, monthKey)
	s, ok := f.snapshots[k]
	if !ok {
		s = model.MonthSnapshot{UserID: userID, MonthKey: monthKey}
	}
	s.Habits = append(slices.Clone(s.Habits), h)
	f.snapshots[k] = s
	return nil
}

func (f *fakeStore) RemoveSnapshotHabit(_ context.Context, userID, monthKey, habitID string) error {
	if err := f.hit("RemoveSnapshotHabit"); err != nil {
		return err
	}
	k := snapKey(userID, monthKey)
	s, ok := f.snapshots[k]
	if !ok {
		return nil
	}
	s.Habits = slices.DeleteFunc(slices.Clone(s.Habits), func(h model.MonthHabit) bool { return h.ID == habitID })
	f.snapshots[k] = s
	return nil
}

// --- completions ---

func (f *fakeStore) ListCompletions(_ context.Context, userID, monthKey string) (map[string]model.Completion, error) {
	if err := f.hit("ListCompletions"); err != nil {
		return nil, err
	}
	out := make(map[string]model.Completion)
	for _, c := range f.completions {
		if c.UserID == userID && c.MonthKey == monthKey {
			out[c.HabitID] = c
		}
	}
	return out, nil
}

func (f *fakeStore) GetCompletion(_ context.Context, userID, habitID, monthKey string) (*model.Completion, error) {
	if err := f.hit("GetCompletion"); err != nil {
		return nil, err
	}
	c, ok := f.completions[completionKey(userID, habitID, monthKey)]
	if !ok {
		c = model.Completion{UserID: userID, HabitID: habitID, MonthKey: monthKey}
	}
	return &c, nil
}

func (f *fakeStore) UpsertCompletion(_ context.Context, c *model.Completion) error {
	if err := f.hit("UpsertCompletion"); err != nil {
		return err
	}
	f.completions[completionKey(c.UserID, c.HabitID, c.MonthKey)] = *c
	return nil
}

// --- journal ---

func (f *fakeStore) GetJournalByDate(_ context.Context, userID, date string) (*model.JournalEntry, error) {
	if err := f.hit("GetJournalByDate"); err != nil {
		return nil, err
	}
	e, ok := f.journal[userID+"|"+date]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeStore) GetJournalByID(_ context.Context, userID, id string) (*model.JournalEntry, error) {
	if err := f.hit("GetJournalByID"); err != nil {
		return nil, err
	}
	for _, e := range f.journal {
		if e.ID == id && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, apperror.NotFound("journal entry", id)
}

func (f *fakeStore) ListJournal(_ context.Context, userID string) ([]model.JournalEntry, error) {
	if err := f.hit("ListJournal"); err != nil {
		return nil, err
	}
	var out []model.JournalEntry
	for _, e := range f.journal {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeStore) UpsertJournal(_ context.Context, e *model.JournalEntry) error {
	if err := f.hit("UpsertJournal"); err != nil {
		return err
	}
	k := e.UserID + "|" + e.Date
	if existing, ok := f.journal[k]; ok {
		e.ID = existing.ID
	} else {
		e.ID = f.id("journal")
	}
	e.UpdatedAt = time.Now()
	f.journal[k] = *e
	return nil
}

// --- goals ---

func (f *fakeStore) GetGoal(_ context.Context, userID string, month, year int) (*model.Goal, error) {
	if err := f.hit("GetGoal"); err != nil {
		return nil, err
	}
	g, ok := f.goals[fmt.Sprintf("%s|%d|%d", userID, month, year)]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeStore) UpsertGoal(_ context.Context, g *model.Goal) error {
	if err := f.hit("UpsertGoal"); err != nil {
		return err
	}
	g.UpdatedAt = time.Now()
	f.goals[fmt.Sprintf("%s|%d|%d", g.UserID, g.Month, g.Year)] = *g
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

const testUser = "user-1"

// testNow is Saturday 2025-03-15, mid-morning UTC.
var testNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedHabit stores a global habit created on the given day.
func seedHabit(t *testing.T, f *fakeStore, userID, name string, created time.Time) model.Habit {
	t.Helper()
	h := model.Habit{UserID: userID, Name: name, CreatedAt: created}
	if err := f.CreateHabit(context.Background(), &h); err != nil {
		t.Fatalf("seeding habit: %v", err)
	}
	f.calls = make(map[string]int)
	return h
}

func seedSnapshot(f *fakeStore, userID, monthKey string, habits ...model.Habit) {
	s := model.MonthSnapshot{UserID: userID, MonthKey: monthKey, Habits: []model.MonthHabit{}}
	for _, h := range habits {
		s.Habits = append(s.Habits, model.MonthHabit{ID: h.ID, Name: h.Name})
	}
	f.snapshots[snapKey(userID, monthKey)] = s
}

func habitIDs(habits []model.MonthHabit) []string {
	ids := make([]string, 0, len(habits))
	for _, h := range habits {
		ids = append(ids, h.ID)
	}
	return ids
}
