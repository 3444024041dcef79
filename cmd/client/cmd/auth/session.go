package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/app/client/session"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Long:  `Forgets the signed-in admin. A remembered identifier is kept.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := console.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(cmd.Context()); err != nil {
			return err
		}
		console.Success(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

type statusView struct {
	SignedIn   bool              `json:"signedIn"`
	Identity   *session.Identity `json:"identity,omitempty"`
	Remembered string            `json:"rememberedIdentifier,omitempty"`
	API        string            `json:"api"`
	Reachable  bool              `json:"reachable"`
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := console.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		v := statusView{
			Remembered: app.Session().RememberedIdentifier(ctx),
			API:        app.Config().APIBase,
		}
		id, err := app.RequireAuth(ctx)
		switch {
		case err == nil:
			v.SignedIn, v.Identity = true, id
		case !errors.Is(err, session.ErrNotSignedIn):
			return err
		}
		v.Reachable = app.CheckConnection(ctx) == nil

		out := cmd.OutOrStdout()
		if console.JSON(cmd) {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}

		if v.SignedIn {
			console.Success(out, "Signed in as %s", id.Label())
			fmt.Fprintf(out, "MINC ID:     %s\n", id.MincID)
			fmt.Fprintf(out, "Email:       %s\n", id.Email)
			fmt.Fprintf(out, "Since:       %s\n", id.SignedInAt.Local().Format("2006-01-02 15:04:05 MST"))
			if id.FailedAttempts > 0 {
				console.Warn(out, "%d failed password attempt(s) before this sign-in", id.FailedAttempts)
			}
		} else {
			console.Warn(out, "Not signed in")
		}
		if v.Remembered != "" {
			fmt.Fprintf(out, "Remembered:  %s\n", v.Remembered)
		}
		fmt.Fprintf(out, "API:         %s", v.API)
		if v.Reachable {
			fmt.Fprintln(out, " (reachable)")
		} else {
			fmt.Fprintln(out, " (unreachable)")
		}
		return nil
	},
}
