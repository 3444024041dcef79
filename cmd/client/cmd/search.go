package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
)

var searchCmd = &cobra.Command{
	Use:   "search <keywords...>",
	Short: "Search every kind of record",
	Long:  `Searches institutions, users, responders and complaints at once.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := console.Authed(cmd)
		if err != nil {
			return err
		}

		groups, err := app.Gateway().SearchAll(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if console.JSON(cmd) {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(groups)
		}

		found := 0
		for _, g := range groups {
			if len(g.Items) == 0 {
				continue
			}
			found += len(g.Items)
			console.Heading(out, "%ss (%d)", g.Kind.Title(), len(g.Items))
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, it := range g.Items {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", it.ID, it.Title, it.Subtitle, it.Status)
			}
			_ = tw.Flush()
		}
		if found == 0 {
			console.Warn(out, "No matches")
		}
		return nil
	},
}
