// Command habitctl is a terminal client for the habit tracker API.
//
//	habitctl login ada@example.com --register
//	habitctl add "Read 20 pages"
//	habitctl mark "Read 20 pages" 14
//	habitctl show
//	habitctl stats --auto-cross
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/sakif/habit-tracker/internal/client"
)

var CLI struct {
	Server    string `help:"API base URL." env:"HABITCTL_SERVER" default:"http://localhost:8080"`
	Token     string `help:"Session token. Defaults to the one saved by login." env:"HABITCTL_TOKEN"`
	TokenFile string `help:"Where login saves the token." type:"path" default:"~/.config/habitctl/token"`
	Verbose   bool   `help:"Log board activity to stderr." short:"v"`

	Login   LoginCmd   `cmd:"" help:"Sign in (or register) and save the session token."`
	Habits  HabitsCmd  `cmd:"" help:"List the habits of a month."`
	Show    ShowCmd    `cmd:"" help:"Print the month grid." default:"1"`
	Add     AddCmd     `cmd:"" help:"Add a habit to a month."`
	Remove  RemoveCmd  `cmd:"" help:"Take a habit out of a month."`
	Mark    MarkCmd    `cmd:"" help:"Change the status of one day."`
	Stats   StatsCmd   `cmd:"" help:"Show month statistics."`
	Journal JournalCmd `cmd:"" help:"Read or write a journal entry."`
	Goal    GoalCmd    `cmd:"" help:"Read or write a monthly goal."`
}

// Context is handed to every command's Run.
type Context struct {
	Client    *client.Client
	TokenFile string
	Out       io.Writer
	Logger    *slog.Logger
	Now       func() time.Time
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitctl"),
		kong.Description("Track habits from the terminal."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	token := CLI.Token
	if token == "" {
		token = readToken(CLI.TokenFile)
	}

	level := slog.LevelError
	if CLI.Verbose {
		level = slog.LevelDebug
	}

	appCtx := &Context{
		Client:    client.New(CLI.Server, token),
		TokenFile: CLI.TokenFile,
		Out:       os.Stdout,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		Now:       time.Now,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readToken(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
