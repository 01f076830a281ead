package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/habit-tracker/internal/board"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/tracker"
)

// MonthFlag is embedded by commands that work on one month.
type MonthFlag struct {
	Month string `help:"Month as YYYY-MM (default: current month)." short:"m"`
}

func (m MonthFlag) key(ctx *Context) string {
	if m.Month != "" {
		return m.Month
	}
	return tracker.MonthKeyOf(ctx.Now())
}

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `help:"Account password." env:"HABITCTL_PASSWORD" required:""`
	Register bool   `help:"Create the account first."`
}

func (c *LoginCmd) Run(ctx *Context) error {
	signIn := ctx.Client.Login
	if c.Register {
		signIn = ctx.Client.Register
	}
	user, err := signIn(context.Background(), c.Email, c.Password)
	if err != nil {
		return err
	}
	if err := saveToken(ctx.TokenFile, ctx.Client.Token()); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Signed in as %s\n", user.Login)
	return nil
}

type HabitsCmd struct {
	MonthFlag `embed:""`
	All bool `help:"List every habit instead of one month's."`
}

func (c *HabitsCmd) Run(ctx *Context) error {
	bg := context.Background()
	if c.All {
		habits, err := ctx.Client.Habits(bg)
		if err != nil {
			return err
		}
		for _, h := range habits {
			fmt.Fprintf(ctx.Out, "%s  %s  (since %s)\n", h.ID, h.Name, h.CreatedAt.Format(tracker.DateLayout))
		}
		return nil
	}

	habits, err := ctx.Client.MonthHabits(bg, c.key(ctx))
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Fprintln(ctx.Out, "No habits this month.")
		return nil
	}
	for _, h := range habits {
		fmt.Fprintf(ctx.Out, "%s  %s\n", h.ID, h.Name)
	}
	return nil
}

type ShowCmd struct {
	MonthFlag `embed:""`
}

// Run prints one row per habit: ✓ completed, ✗ crossed, · empty, and a
// blank for days that have not happened yet.
func (c *ShowCmd) Run(ctx *Context) error {
	b := board.New(ctx.Client, ctx.Now, ctx.Logger)
	monthKey := c.key(ctx)
	if err := b.Load(context.Background(), monthKey); err != nil {
		return err
	}
	days, err := tracker.DaysInMonth(monthKey)
	if err != nil {
		return err
	}

	habits := b.Habits()
	if len(habits) == 0 {
		fmt.Fprintf(ctx.Out, "%s: no habits\n", monthKey)
		return nil
	}

	width := len(monthKey)
	for _, h := range habits {
		width = max(width, len([]rune(h.Name)))
	}

	fmt.Fprintf(ctx.Out, "%-*s  ", width, monthKey)
	for d := 1; d <= days; d++ {
		fmt.Fprintf(ctx.Out, "%d", d%10)
	}
	fmt.Fprintln(ctx.Out)

	now := ctx.Now()
	for _, h := range habits {
		var row strings.Builder
		for d := 1; d <= days; d++ {
			if tracker.CheckDay(monthKey, d, now) != nil {
				row.WriteByte(' ')
				continue
			}
			switch b.Status(h.ID, d) {
			case tracker.StatusCompleted:
				row.WriteString("✓")
			case tracker.StatusCrossed:
				row.WriteString("✗")
			default:
				row.WriteString("·")
			}
		}
		fmt.Fprintf(ctx.Out, "%-*s  %s\n", width, h.Name, row.String())
	}
	return nil
}

type AddCmd struct {
	MonthFlag `embed:""`
	Name string `arg:"" help:"Habit name."`
}

func (c *AddCmd) Run(ctx *Context) error {
	h, err := ctx.Client.AddHabit(context.Background(), c.key(ctx), c.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Added %q (%s) to %s\n", h.Name, h.ID, c.key(ctx))
	return nil
}

type RemoveCmd struct {
	MonthFlag `embed:""`
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *RemoveCmd) Run(ctx *Context) error {
	bg := context.Background()
	habits, err := ctx.Client.MonthHabits(bg, c.key(ctx))
	if err != nil {
		return err
	}
	h, err := findHabit(habits, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Client.RemoveHabit(bg, c.key(ctx), h.ID); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Removed %q from %s\n", h.Name, c.key(ctx))
	return nil
}

type MarkCmd struct {
	MonthFlag `embed:""`
	Habit  string `arg:"" help:"Habit id or name."`
	Day    int    `arg:"" help:"Day of the month."`
	Status string `help:"completed, crossed, empty, or tap to advance the cycle." default:"tap" enum:"tap,completed,crossed,empty"`
}

func (c *MarkCmd) Run(ctx *Context) error {
	bg := context.Background()
	b := board.New(ctx.Client, ctx.Now, ctx.Logger)
	if err := b.Load(bg, c.key(ctx)); err != nil {
		return err
	}
	h, err := findHabit(b.Habits(), c.Habit)
	if err != nil {
		return err
	}

	if c.Status == "tap" {
		err = b.Tap(bg, h.ID, c.Day)
	} else {
		var status tracker.Status
		if status, err = tracker.ParseStatus(c.Status); err == nil {
			err = b.SetStatus(bg, h.ID, c.Day, status)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s, day %d: %s\n", h.Name, c.Day, b.Status(h.ID, c.Day))
	return nil
}

type StatsCmd struct {
	MonthFlag `embed:""`
	AutoCross bool `help:"Count unmarked past days as crossed."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	s, err := ctx.Client.Stats(context.Background(), c.key(ctx), c.AutoCross)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "%s: %d habits, %d/%d done (%d%%)\n",
		s.MonthKey, s.HabitCount, s.TotalCompleted, s.TotalPossible, s.CompletionPercent)
	fmt.Fprintf(ctx.Out, "crossed: %d", s.TotalCrossed)
	if c.AutoCross {
		fmt.Fprintf(ctx.Out, " (%d inferred)", s.AutoCrossed)
	}
	fmt.Fprintln(ctx.Out)
	if s.BestDay > 0 {
		fmt.Fprintf(ctx.Out, "best day: %d (%d done)\n", s.BestDay, s.BestDayCount)
	}
	if s.BestWeekday != "" {
		fmt.Fprintf(ctx.Out, "best weekday: %s (%d done)\n", s.BestWeekday, s.BestWeekdayCount)
	}
	for _, h := range s.Habits {
		fmt.Fprintf(ctx.Out, "  %-24s %3d%%  ✓%d ✗%d\n", h.Name, h.Percent, h.Completed, h.Crossed+h.AutoCrossed)
	}
	if s.Today != nil {
		fmt.Fprintf(ctx.Out, "today: %d done, %d pending\n", s.Today.Completed, s.Today.Pending)
	}
	return nil
}

type JournalCmd struct {
	Date    string `arg:"" help:"Date as YYYY-MM-DD."`
	Content string `arg:"" optional:"" help:"New content. Omit to print the entry."`
}

func (c *JournalCmd) Run(ctx *Context) error {
	bg := context.Background()
	if c.Content != "" {
		e, err := ctx.Client.SaveJournal(bg, c.Date, c.Content)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "Saved journal for %s\n", e.Date)
		return nil
	}

	e, err := ctx.Client.Journal(bg, c.Date)
	if err != nil {
		return err
	}
	if e == nil {
		fmt.Fprintf(ctx.Out, "No entry for %s\n", c.Date)
		return nil
	}
	fmt.Fprintln(ctx.Out, e.Content)
	return nil
}

type GoalCmd struct {
	Month      int      `help:"Month 1-12 (default: current)."`
	Year       int      `help:"Year (default: current)."`
	Set        string   `help:"New goal text. Omit to print the goal."`
	Target     string   `help:"Target date as YYYY-MM-DD."`
	Sacrifices []string `help:"What you will give up for it." name:"sacrifice"`
}

func (c *GoalCmd) Run(ctx *Context) error {
	now := ctx.Now()
	month, year := c.Month, c.Year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	bg := context.Background()
	var (
		g   *model.Goal
		err error
	)
	if c.Set != "" {
		g, err = ctx.Client.SaveGoal(bg, &model.Goal{
			Month: month, Year: year, Goal: c.Set, TargetDate: c.Target, Sacrifices: c.Sacrifices,
		})
	} else {
		g, err = ctx.Client.Goal(bg, month, year)
	}
	if err != nil {
		return err
	}

	if g.Goal == "" {
		fmt.Fprintf(ctx.Out, "No goal for %d-%02d\n", year, month)
		return nil
	}
	fmt.Fprintf(ctx.Out, "%d-%02d: %s\n", year, month, g.Goal)
	if g.TargetDate != "" {
		fmt.Fprintf(ctx.Out, "target: %s\n", g.TargetDate)
	}
	for _, s := range g.Sacrifices {
		if s != "" {
			fmt.Fprintf(ctx.Out, "  - %s\n", s)
		}
	}
	return nil
}

// findHabit matches by id first, then by case-insensitive name.
func findHabit(habits []model.MonthHabit, ref string) (model.MonthHabit, error) {
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}
	var matches []model.MonthHabit
	for _, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return model.MonthHabit{}, fmt.Errorf("no habit %q in this month", ref)
	case 1:
		return matches[0], nil
	}
	return model.MonthHabit{}, errors.New("several habits share that name, use the id")
}
