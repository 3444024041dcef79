package record

import (
	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
)

var SearchCmd = &cobra.Command{
	Use:   "search <kind> <keywords...>",
	Short: "Search one kind of record",
	Long:  `Lists up to 10 records of one kind matching every keyword.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := console.Authed(cmd)
		if err != nil {
			return err
		}
		kind, err := kindArg(args)
		if err != nil {
			return err
		}

		items, err := app.Gateway().Search(cmd.Context(), kind, queryArg(args[1:]))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if console.JSON(cmd) {
			return writeJSON(out, items)
		}
		if len(items) == 0 {
			console.Warn(out, "No %s matches", kind)
			return nil
		}
		printSummaries(out, items)
		return nil
	},
}
