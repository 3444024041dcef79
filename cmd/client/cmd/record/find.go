package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/app/client/tui"
)

var findShow bool

var FindCmd = &cobra.Command{
	Use:   "find <kind>",
	Short: "Pick a record with live search",
	Long: `Opens an interactive picker that searches as you type and prints the
chosen record's ID. With --show the full record is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := console.Authed(cmd)
		if err != nil {
			return err
		}
		kind, err := kindArg(args)
		if err != nil {
			return err
		}

		searcher := app.NewSearcher(kind)
		defer searcher.Close()

		chosen, ok, err := tui.Run(cmd.Context(), kind, searcher, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		out := cmd.OutOrStdout()
		if !findShow {
			fmt.Fprintln(out, chosen.ID)
			return nil
		}
		rec, _, err := app.Gateway().Get(cmd.Context(), kind, chosen.ID)
		if err != nil {
			return err
		}
		format := "text"
		if console.JSON(cmd) {
			format = "json"
		}
		return printRecord(out, rec, format)
	},
}

func init() {
	FindCmd.Flags().BoolVar(&findShow, "show", false, "print the chosen record")
}
