// Package console holds the terminal helpers shared by the commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mincadmin/cmd/client/cmd/types"
	"mincadmin/internal/app/client"
	"mincadmin/internal/app/client/session"
)

var ErrNoApp = errors.New("application is not initialized")

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headColor    = color.New(color.FgCyan, color.Bold)
	mutedColor   = color.New(color.Faint)
)

// App returns the application stored on the command context.
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// Authed is App plus the route guard of protected commands.
func Authed(cmd *cobra.Command) (*client.App, *session.Identity, error) {
	app, err := App(cmd)
	if err != nil {
		return nil, nil, err
	}
	id, err := app.RequireAuth(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return app, id, nil
}

func JSON(cmd *cobra.Command) bool {
	v, _ := cmd.Context().Value(types.JSONOutputKey).(bool)
	return v
}

func Success(w io.Writer, format string, a ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func Warn(w io.Writer, format string, a ...any) {
	warnColor.Fprintf(w, "! "+format+"\n", a...)
}

// Fail prints err as the red inline banner.
func Fail(w io.Writer, err error) {
	errorColor.Fprintf(w, "✗ %v\n", err)
}

func Heading(w io.Writer, format string, a ...any) {
	headColor.Fprintf(w, format+"\n", a...)
}

func Muted(w io.Writer, format string, a ...any) {
	mutedColor.Fprintf(w, format+"\n", a...)
}

// Prompter reads answers line by line. Passwords are read without echo when
// the input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	fd  int
	tty bool
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

// Line prints prompt and returns the trimmed answer. io.EOF is returned only
// when nothing was typed.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *Prompter) Password(prompt string) (string, error) {
	if !p.tty {
		return p.Line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *Prompter) Confirm(_ context.Context, title, message string) (bool, error) {
	warnColor.Fprintln(p.out, title)
	if message != "" {
		fmt.Fprintln(p.out, message)
	}
	ans, err := p.Line("[y/N] ")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
