package record

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/app/client"
	"mincadmin/internal/app/client/guard"
	"mincadmin/internal/domain/edit"
	"mincadmin/internal/domain/record"
)

var (
	ErrUnsavedExit   = errors.New("exited with unsaved changes")
	ErrRefreshNeeded = errors.New(`the latest version could not be loaded, run "save" to refresh before editing`)
)

type lineResult struct {
	text string
	err  error
}

// editSession is the line-oriented editor behind `record edit -i`. Leaving a
// record (open, quit, Ctrl+C) goes through the unsaved-changes guard.
type editSession struct {
	ctx   context.Context
	ctl   *edit.Controller
	guard *guard.Guard
	in    *bufio.Reader
	out   io.Writer
	lines chan lineResult
	quit  bool
}

func newEditSession(ctx context.Context, app *client.App, ctl *edit.Controller, in io.Reader, out io.Writer) *editSession {
	s := &editSession{
		ctx:   ctx,
		ctl:   ctl,
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan lineResult),
	}
	s.guard = app.NewGuard(ctl, guard.ConfirmFunc(s.confirm))
	return s
}

func (s *editSession) run(id string) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	return s.loop(id, sigs)
}

func (s *editSession) loop(id string, sigs <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.ctx = s.guard.WatchSignals(ctx, sigs, func(msg string) {
		fmt.Fprintln(s.out)
		console.Warn(s.out, msg)
	})
	go s.readLines(s.ctx)

	if err := s.open(id); err != nil {
		return err
	}
	console.Muted(s.out, `Type "help" for commands.`)

	for !s.quit {
		line, err := s.next(s.prompt())
		if err != nil {
			if s.ctl.IsDirty() {
				return ErrUnsavedExit
			}
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := s.exec(line); err != nil {
			console.Fail(s.out, err)
		}
	}
	return nil
}

func (s *editSession) readLines(ctx context.Context) {
	send := func(r lineResult) bool {
		select {
		case s.lines <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		text, err := s.in.ReadString('\n')
		if err != nil {
			if text != "" && !send(lineResult{text: strings.TrimSpace(text)}) {
				return
			}
			send(lineResult{err: err})
			return
		}
		if !send(lineResult{text: strings.TrimSpace(text)}) {
			return
		}
	}
}

func (s *editSession) next(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	select {
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	case l := <-s.lines:
		return l.text, l.err
	}
}

func (s *editSession) confirm(_ context.Context, title, message string) (bool, error) {
	console.Warn(s.out, title)
	fmt.Fprintln(s.out, message)
	ans, err := s.next("[y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (s *editSession) prompt() string {
	rec := s.ctl.Record()
	state := s.ctl.State().String()
	if s.ctl.IsDirty() {
		state += "*"
	}
	return fmt.Sprintf("%s %s (%s)> ", s.ctl.Kind(), rec.ID, state)
}

func (s *editSession) exec(line string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "":
		return nil
	case "help", "?":
		s.help()
		return nil
	case "show":
		rec := s.ctl.Record()
		if s.ctl.State() == edit.StateEditing {
			rec = s.ctl.Draft()
		}
		printRecordHuman(s.out, rec)
		return nil
	case "edit":
		return s.ensureEditing()
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		if field == "" {
			return errors.New("usage: set <field> <value>")
		}
		if err := s.ensureEditing(); err != nil {
			return err
		}
		return setField(s.ctl, field, value)
	case "other":
		field, detail, _ := strings.Cut(rest, " ")
		if field == "" {
			return errors.New("usage: other <field> <detail>")
		}
		if err := s.ensureEditing(); err != nil {
			return err
		}
		return s.ctl.SetComposite(record.SnakeCase(field), "Other", strings.TrimSpace(detail))
	case "note":
		if err := s.ensureEditing(); err != nil {
			return err
		}
		return s.ctl.SetNote(rest)
	case "diff":
		printPatch(s.out, s.ctl)
		return nil
	case "save":
		return s.save()
	case "cancel":
		return s.cancel()
	case "open":
		if rest == "" {
			return errors.New("usage: open <id>")
		}
		ok, err := s.guard.Navigate(s.ctx, func() error { return s.open(rest) })
		if err == nil && !ok {
			console.Muted(s.out, "Still editing")
		}
		return err
	case "quit", "exit", "q":
		ok, err := s.guard.Navigate(s.ctx, func() error {
			s.quit = true
			return nil
		})
		if err == nil && !ok {
			console.Muted(s.out, "Still editing")
		}
		return err
	default:
		return fmt.Errorf("unknown command %q, type help", name)
	}
}

func (s *editSession) help() {
	fmt.Fprintf(s.out, `Commands:
  show                  show the record (or your draft)
  set <field> <value>   change a field (editable: %s)
  other <field> <text>  choose "Other" for a category or plan and describe it
  note <text>           admin note, required to save
  diff                  list unsaved changes
  save                  save changes
  cancel                discard changes
  open <id>             switch to another record
  quit                  leave the editor
`, editableList(s.ctl.Kind()))
}

func (s *editSession) ensureEditing() error {
	switch s.ctl.State() {
	case edit.StateEditing:
		return nil
	case edit.StateConflictRetry:
		return ErrRefreshNeeded
	case edit.StateClean:
		return s.ctl.EnterEdit()
	default:
		return errors.New("no record loaded, use open <id>")
	}
}

func (s *editSession) save() error {
	res, err := s.ctl.Save(s.ctx)
	if err != nil {
		var ce *edit.ConflictError
		if errors.As(err, &ce) {
			reportConflict(s.out, ce)
			if ce.RefreshErr == nil {
				console.Muted(s.out, `Your edits were re-applied to the latest version. Review with "diff" and "save" again.`)
			}
			return nil
		}
		return err
	}
	reportSave(s.out, res)
	return nil
}

func (s *editSession) cancel() error {
	outcome, err := s.ctl.Cancel()
	if err != nil {
		return err
	}
	if outcome == edit.CancelDone {
		return nil
	}
	ok, err := s.confirm(s.ctx, guard.ConfirmTitle, guard.ConfirmMessage)
	if err != nil {
		return err
	}
	if !ok {
		s.ctl.KeepEditing()
		console.Muted(s.out, "Still editing")
		return nil
	}
	return s.ctl.ConfirmDiscard()
}

// open leaves any clean edit mode and loads id read-only.
func (s *editSession) open(id string) error {
	switch s.ctl.State() {
	case edit.StateEditing, edit.StateConflictRetry:
		if err := s.ctl.ConfirmDiscard(); err != nil {
			return err
		}
	}
	rec, err := s.ctl.Load(s.ctx, id)
	if err != nil {
		return err
	}
	printRecordHuman(s.out, rec)
	return nil
}
