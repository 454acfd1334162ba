// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/app"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/composer"
	"github.com/jeranaias/parley-tui/internal/convsync"
	"github.com/jeranaias/parley-tui/internal/sidebar"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/view"
)

// LineReader reads REPL input. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
	AppendHistory(item string)
}

// REPL is the line-mode chat session.
type REPL struct {
	app *app.App
	in  LineReader
	out io.Writer
	md  *components.Markdown

	// draft pre-fills the next prompt, set by /suggest.
	draft string
}

// NewREPL creates a REPL reading from in and writing to out.
func NewREPL(a *app.App, in LineReader, out io.Writer) *REPL {
	return &REPL{app: a, in: in, out: out}
}

// WithMarkdown renders assistant replies through md.
func (r *REPL) WithMarkdown(md *components.Markdown) *REPL {
	r.md = md
	return r
}

// errQuit ends the session normally.
var errQuit = errors.New("quit")

// isExit reports whether err means the user left: /quit, Ctrl+C or EOF.
func isExit(err error) bool {
	return errors.Is(err, errQuit) || errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted)
}

// Run logs in if needed, then reads messages and commands until the user
// quits.
func (r *REPL) Run(ctx context.Context) error {
	r.println(TitleStyle.Render("parley") + DimStyle.Render("  type /help for commands"))

	if err := r.start(ctx); err != nil {
		if isExit(err) {
			return nil
		}
		return err
	}

	for {
		line, err := r.read()
		if err != nil {
			if isExit(err) {
				r.println("")
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			err = r.command(ctx, line)
		} else {
			err = r.send(ctx, line)
		}
		if err != nil {
			if isExit(err) {
				return nil
			}
			return err
		}
	}
}

// start boots the session, asking for credentials until it is valid.
func (r *REPL) start(ctx context.Context) error {
	for {
		res, err := r.app.Boot(ctx)
		if err == nil {
			if res.User != nil {
				r.println(SuccessStyle.Render("Logged in as " + res.User.Username))
			}
			r.showPanel()
			return nil
		}
		if !errors.Is(err, app.ErrLoggedOut) {
			return err
		}
		if err := r.authenticate(ctx); err != nil {
			return err
		}
	}
}

func (r *REPL) read() (string, error) {
	prompt := PromptStyle.Render("parley> ")
	var (
		line string
		err  error
	)
	if r.draft != "" {
		line, err = r.in.PromptWithSuggestion(prompt, r.draft, -1)
		r.draft = ""
	} else {
		line, err = r.in.Prompt(prompt)
	}
	if err == nil && strings.TrimSpace(line) != "" {
		r.in.AppendHistory(line)
	}
	return line, err
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// authenticate prompts until a login succeeds. Typing /register at the
// username prompt creates an account first.
func (r *REPL) authenticate(ctx context.Context) error {
	r.println(DimStyle.Render("Log in, or type /register to create an account. /quit exits."))
	for {
		username, err := r.in.Prompt("username: ")
		if err != nil {
			return err
		}
		username = strings.TrimSpace(username)

		switch username {
		case "/quit", "/exit":
			return errQuit
		case "/register":
			if err := r.register(ctx); err != nil {
				return err
			}
			continue
		}

		password, err := r.password("password: ")
		if err != nil {
			return err
		}
		if err := r.app.Auth.Login(ctx, username, password); err != nil {
			r.println(ErrorStyle.Render(auth.Message(err)))
			continue
		}
		return nil
	}
}

func (r *REPL) register(ctx context.Context) error {
	username, err := r.in.Prompt("new username: ")
	if err != nil {
		return err
	}
	email, err := r.in.Prompt("email: ")
	if err != nil {
		return err
	}
	password, err := r.password("password: ")
	if err != nil {
		return err
	}

	if err := r.app.Auth.Register(ctx, username, email, password); err != nil {
		r.println(ErrorStyle.Render(auth.Message(err)))
		return nil
	}
	r.println(SuccessStyle.Render(auth.RegisterSucceeded))
	return nil
}

// password reads without echo when the terminal supports it.
func (r *REPL) password(prompt string) (string, error) {
	pw, err := r.in.PasswordPrompt(prompt)
	if errors.Is(err, liner.ErrNotTerminalOutput) {
		return r.in.Prompt(prompt)
	}
	return pw, err
}

// =============================================================================
// MESSAGES
// =============================================================================

func (r *REPL) send(ctx context.Context, text string) error {
	p, err := r.app.Composer.Begin(text)
	if err != nil {
		return nil
	}
	r.println(DimStyle.Render(composer.PendingText))

	sentTo := p.ConversationID()
	if err := p.Complete(ctx); err != nil {
		r.app.Log.Debug().Err(err).Msg("send failed")
	}

	snap := r.app.Panel.Snapshot()
	if n := len(snap.Messages); n > 0 {
		r.printEntry(snap.Messages[n-1])
	}
	if id := r.app.Sync.Active(); id != "" && id != sentTo {
		r.println(DimStyle.Render(fmt.Sprintf("Started conversation %s: %s", id, composer.Title(text))))
	}

	if !r.app.Auth.LoggedIn() {
		r.println(WarningStyle.Render(auth.SessionExpired))
		return r.start(ctx)
	}
	return nil
}

func (r *REPL) showPanel() {
	snap := r.app.Panel.Snapshot()
	if snap.Notice != "" {
		r.println(WarningStyle.Render(snap.Notice))
	}
	if snap.Mode == view.ModeWelcome {
		r.println("Start a new conversation by typing a message.")
		r.listSuggestions()
		return
	}
	for _, e := range snap.Messages {
		r.printEntry(e)
	}
}

func (r *REPL) printEntry(e view.Entry) {
	switch {
	case e.Role != "assistant":
		r.println(UserStyle.Render("you> ") + e.Content)
	case e.Failed:
		r.println(ErrorStyle.Render(e.Content))
	case r.md != nil:
		r.println(AssistantStyle.Render("parley>"))
		r.println(r.md.Render(e.Content))
	default:
		r.println(AssistantStyle.Render("parley> ") + e.Content)
	}
}

func (r *REPL) listSuggestions() {
	for i, q := range r.app.Suggestions().All() {
		r.println(fmt.Sprintf("  %s  %s", KeyStyle.Render(strconv.Itoa(i+1)), q))
	}
	if r.app.Suggestions().Len() > 0 {
		r.println(DimStyle.Render("Use /suggest N to start from a suggestion."))
	}
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.out, s)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

var commandHelp = [][2]string{
	{"/new", "start a new conversation"},
	{"/list", "list conversations"},
	{"/open ID", "open a conversation"},
	{"/reload", "reload conversations and the current one"},
	{"/suggest [N]", "list suggestions, or put suggestion N in the prompt"},
	{"/whoami", "show the logged-in user"},
	{"/logout", "log out and log in again"},
	{"/quit", "leave"},
}

func (r *REPL) command(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/help", "/?":
		for _, c := range commandHelp {
			r.println(fmt.Sprintf("  %-14s %s", KeyStyle.Render(c[0]), c[1]))
		}

	case "/quit", "/exit", "/q":
		return errQuit

	case "/new":
		r.app.Composer.NewChat()
		r.showPanel()

	case "/list":
		r.listConversations()

	case "/open":
		if len(args) != 1 {
			r.println(ErrorStyle.Render("usage: /open ID"))
			return nil
		}
		r.open(ctx, args[0])

	case "/reload":
		return r.start(ctx)

	case "/suggest":
		if len(args) == 0 {
			r.listSuggestions()
			return nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			r.println(ErrorStyle.Render("usage: /suggest N"))
			return nil
		}
		q, ok := r.app.Suggestions().Pick(n - 1)
		if !ok {
			r.println(ErrorStyle.Render(fmt.Sprintf("no suggestion %d", n)))
			return nil
		}
		r.draft = q

	case "/whoami":
		user, err := r.app.Auth.CurrentUser(ctx)
		if err != nil {
			r.println(ErrorStyle.Render(err.Error()))
			if !r.app.Auth.LoggedIn() {
				return r.start(ctx)
			}
			return nil
		}
		r.println(fmt.Sprintf("%s <%s>", user.Username, user.Email))

	case "/logout":
		r.app.Logout()
		r.println(DimStyle.Render("Logged out."))
		return r.start(ctx)

	default:
		r.println(ErrorStyle.Render(fmt.Sprintf("unknown command %s, try /help", name)))
	}
	return nil
}

func (r *REPL) listConversations() {
	entries := r.app.Sidebar.Entries()
	if len(entries) == 0 {
		r.println(DimStyle.Render(r.app.Sidebar.Status()))
		return
	}
	for _, e := range entries {
		marker := " "
		if e.Active {
			marker = "*"
		}
		r.println(fmt.Sprintf("%s %s  %s", marker, KeyStyle.Render(e.ID), e.Title))
	}
}

func (r *REPL) open(ctx context.Context, id string) {
	out, err := r.app.Open(ctx, id)
	switch {
	case errors.Is(err, sidebar.ErrUnknownConversation):
		r.println(ErrorStyle.Render("no conversation " + id + ", see /list"))
	case out == convsync.AlreadyViewing:
		r.println(DimStyle.Render("already viewing " + id))
	default:
		r.showPanel()
	}
}
