// cmd/client/cmd/record/get.go
package record

import (
	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
)

var outputFormat string

var GetCmd = &cobra.Command{
	Use:   "get <kind> <id|keywords...>",
	Short: "Show one record",
	Long: `Shows a record by ID, e.g. "record get institution VG25001055".

Anything that does not look like an ID is searched and the first match is
shown.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := console.Authed(cmd)
		if err != nil {
			return err
		}
		kind, err := kindArg(args)
		if err != nil {
			return err
		}

		rec, _, err := app.Gateway().Lookup(cmd.Context(), kind, queryArg(args[1:]))
		if err != nil {
			return err
		}

		format := outputFormat
		if console.JSON(cmd) {
			format = "json"
		}
		return printRecord(cmd.OutOrStdout(), rec, format)
	},
}

func init() {
	GetCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
}
