package record

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/domain/record"
)

// RecordCmd groups the commands that read and edit VEGU records.
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Look up and edit records",
	Long: `Look up, search and edit VEGU records.

Kinds: institution, user, responder, complaint (plural forms work too).
Complaints are read-only.`,
}

func kindArg(args []string) (record.Kind, error) {
	return record.ParseKind(args[0])
}

func queryArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// printRecord writes rec in the requested format: text, json or yaml.
func printRecord(w io.Writer, rec record.Record, format string) error {
	switch format {
	case "json":
		return writeJSON(w, rec)
	case "yaml":
		return writeYAML(w, rec)
	case "", "text":
		printRecordHuman(w, rec)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}
}

func printRecordHuman(w io.Writer, rec record.Record) {
	console.Heading(w, "%s %s", rec.Kind.Title(), rec.ID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	schema, err := record.SchemaFor(rec.Kind)
	if err == nil {
		for _, f := range schema.Fields {
			v := rec.Get(f.Name)
			if v == "" {
				v = "-"
			}
			mark := ""
			if f.Editable {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s%s\t%s\n", f.Label, mark, v)
		}
	}
	if rec.UpdatedAt != "" {
		fmt.Fprintf(tw, "Updated\t%s\n", rec.UpdatedAt)
	}
	_ = tw.Flush()

	if rec.AdminNotes != "" {
		fmt.Fprintln(w)
		console.Heading(w, "Admin notes")
		fmt.Fprintln(w, rec.AdminNotes)
	}
	if !rec.Kind.ReadOnly() {
		fmt.Fprintln(w)
		console.Muted(w, "* editable")
	}
}

func printSummaries(w io.Writer, items []record.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Title, it.Subtitle, it.Status)
	}
	_ = tw.Flush()
}
