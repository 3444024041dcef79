package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/domain/edit"
	"mincadmin/internal/domain/record"
)

var (
	editSets        []string
	editNote        string
	editRetry       bool
	editInteractive bool
)

var EditCmd = &cobra.Command{
	Use:   "edit <kind> <id>",
	Short: "Edit a record",
	Long: `Edits the editable fields of a record. Every save needs an admin note,
which is stamped with your name and appended to the record's admin notes.

  mincadmin record edit institution VG25001055 --set status=active --note "Verified"

If someone else saved the record first, your edits are re-applied to the
latest version and the save is reported as a conflict; --retry submits the
re-applied edits once. Use -i for the interactive editor.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, id, err := console.Authed(cmd)
		if err != nil {
			return err
		}
		kind, err := kindArg(args)
		if err != nil {
			return err
		}
		if kind.ReadOnly() {
			return fmt.Errorf("%w: %s records cannot be edited", record.ErrReadOnly, kind)
		}

		ctl, err := app.NewEditor(kind, *id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if editInteractive {
			s := newEditSession(cmd.Context(), app, ctl, os.Stdin, out)
			return s.run(strings.TrimSpace(args[1]))
		}

		if len(editSets) == 0 {
			return errors.New("nothing to change: pass --set field=value or use -i")
		}
		return applyEdits(cmd.Context(), ctl, strings.TrimSpace(args[1]), editSets, editNote, editRetry, out)
	},
}

// applyEdits is the non-interactive edit: load, set, note, save.
func applyEdits(ctx context.Context, ctl *edit.Controller, id string, sets []string, note string, retry bool, out io.Writer) error {
	if _, err := ctl.Load(ctx, id); err != nil {
		return err
	}
	if err := ctl.EnterEdit(); err != nil {
		return err
	}
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: expected field=value", kv)
		}
		if err := setField(ctl, name, value); err != nil {
			return err
		}
	}
	if err := ctl.SetNote(note); err != nil {
		return err
	}

	res, err := ctl.Save(ctx)
	if err != nil {
		var ce *edit.ConflictError
		if !errors.As(err, &ce) {
			return err
		}
		reportConflict(out, ce)
		if !retry || ce.RefreshErr != nil {
			return err
		}
		console.Muted(out, "Retrying with your edits on the latest version...")
		if res, err = ctl.Save(ctx); err != nil {
			return err
		}
	}
	reportSave(out, res)
	return nil
}

// setField validates name and value against the kind's schema before
// touching the draft.
func setField(ctl *edit.Controller, name, value string) error {
	name = record.SnakeCase(strings.TrimSpace(name))
	value = strings.TrimSpace(value)

	schema, err := record.SchemaFor(ctl.Kind())
	if err != nil {
		return err
	}
	if _, ok := schema.Field(name); !ok {
		return fmt.Errorf("%w: %s has no field %q", record.ErrUnknownField, ctl.Kind(), name)
	}
	if !schema.IsEditable(name) {
		return fmt.Errorf("%s is read-only (editable: %s)", name, strings.Join(schema.Editable(), ", "))
	}
	if !schema.Valid(name, value, ctl.Draft()) {
		return fmt.Errorf("%q is not a valid %s (choose from: %s)", value, name,
			strings.Join(schema.OptionsFor(name, ctl.Draft()), ", "))
	}
	return ctl.SetField(name, value)
}

func reportConflict(out io.Writer, ce *edit.ConflictError) {
	console.Fail(out, ce)
	if len(ce.Dropped) > 0 {
		console.Warn(out, "Edits no longer valid on the latest version were dropped: %s", strings.Join(ce.Dropped, ", "))
	}
}

func reportSave(out io.Writer, res edit.SaveResult) {
	if res.NoChanges {
		console.Warn(out, "No changes to save")
		return
	}
	console.Success(out, "Saved %s %s", res.Record.Kind, res.Record.ID)
}

func printPatch(out io.Writer, ctl *edit.Controller) {
	patch := ctl.Patch()
	if patch.Empty() {
		console.Muted(out, "No changes")
	}
	orig := ctl.Record()
	for _, k := range patch.Keys() {
		fmt.Fprintf(out, "  %s: %q -> %q\n", k, orig.Get(k), patch[k])
	}
	if n := strings.TrimSpace(ctl.Note()); n != "" {
		fmt.Fprintf(out, "  note: %s\n", n)
	}
}

func editableList(kind record.Kind) string {
	schema, err := record.SchemaFor(kind)
	if err != nil {
		return ""
	}
	return strings.Join(schema.Editable(), ", ")
}

func init() {
	EditCmd.Flags().StringArrayVar(&editSets, "set", nil, "field=value to change (repeatable)")
	EditCmd.Flags().StringVar(&editNote, "note", "", "admin note saved with the change")
	EditCmd.Flags().BoolVar(&editRetry, "retry", false, "after a conflict, save the re-applied edits once")
	EditCmd.Flags().BoolVarP(&editInteractive, "interactive", "i", false, "open the interactive editor")
}
