package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/habit-tracker/internal/client"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository/sqlite"
	"github.com/sakif/habit-tracker/internal/server"
)

var testNow = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return testNow }
	s, err := server.New(server.Config{
		JWTSecret:    "habitctl-test-secret-1",
		PasswordCost: bcrypt.MinCost,
		Now:          now,
	}, store, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	var out bytes.Buffer
	return &Context{
		Client:    client.New(ts.URL, ""),
		TokenFile: filepath.Join(t.TempDir(), "habitctl", "token"),
		Out:       &out,
		Logger:    logger,
		Now:       now,
	}, &out
}

func TestCommands_Flow(t *testing.T) {
	ctx, out := newTestContext(t)

	require.NoError(t, (&LoginCmd{Email: "ada@example.com", Password: "engine-notes", Register: true}).Run(ctx))
	assert.Contains(t, out.String(), "Signed in as ada")
	assert.Equal(t, ctx.Client.Token(), readToken(ctx.TokenFile))

	require.NoError(t, (&AddCmd{Name: "Read"}).Run(ctx))
	require.NoError(t, (&AddCmd{Name: "Walk"}).Run(ctx))

	out.Reset()
	require.NoError(t, (&MarkCmd{Habit: "read", Day: 1, Status: "tap"}).Run(ctx))
	assert.Equal(t, "Read, day 1: completed\n", out.String())

	require.NoError(t, (&MarkCmd{Habit: "Walk", Day: 2, Status: "crossed"}).Run(ctx))
	assert.Error(t, (&MarkCmd{Habit: "Walk", Day: 4, Status: "completed"}).Run(ctx), "future day")
	assert.Error(t, (&MarkCmd{Habit: "Swim", Day: 1}).Run(ctx))

	out.Reset()
	require.NoError(t, (&ShowCmd{}).Run(ctx))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Read     ✓··"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Walk     ·✗·"), lines[2])

	out.Reset()
	require.NoError(t, (&StatsCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "2025-03: 2 habits, 1/")

	require.NoError(t, (&RemoveCmd{Habit: "Walk"}).Run(ctx))
	out.Reset()
	require.NoError(t, (&HabitsCmd{}).Run(ctx))
	assert.NotContains(t, out.String(), "Walk")
	out.Reset()
	require.NoError(t, (&HabitsCmd{All: true}).Run(ctx))
	assert.Contains(t, out.String(), "Walk")

	out.Reset()
	require.NoError(t, (&JournalCmd{Date: "2025-03-02"}).Run(ctx))
	assert.Equal(t, "No entry for 2025-03-02\n", out.String())
	require.NoError(t, (&JournalCmd{Date: "2025-03-02", Content: "long walk"}).Run(ctx))
	out.Reset()
	require.NoError(t, (&JournalCmd{Date: "2025-03-02"}).Run(ctx))
	assert.Equal(t, "long walk\n", out.String())

	out.Reset()
	require.NoError(t, (&GoalCmd{Set: "Finish the book", Sacrifices: []string{"TV"}}).Run(ctx))
	assert.Equal(t, "2025-03: Finish the book\n  - TV\n", out.String())
}

func TestFindHabit(t *testing.T) {
	habits := []model.MonthHabit{
		{ID: "a1", Name: "Read"},
		{ID: "b2", Name: "Run"},
		{ID: "c3", Name: "run"},
	}

	h, err := findHabit(habits, "b2")
	require.NoError(t, err)
	assert.Equal(t, "Run", h.Name)

	h, err = findHabit(habits, "READ")
	require.NoError(t, err)
	assert.Equal(t, "a1", h.ID)

	_, err = findHabit(habits, "run")
	assert.ErrorContains(t, err, "several habits")

	_, err = findHabit(habits, "swim")
	assert.Error(t, err)
}
