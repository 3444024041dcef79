// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/app/client"
	"mincadmin/internal/app/client/session"
	"mincadmin/internal/domain/login"
)

var rememberMe bool

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the admin console",
	Long: `Signs in with a MINC ID (MM12A34567) or an admin email address, then the
password, then a one-time code emailed to the account.

With --remember the identifier is prefilled next time.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := console.App(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		console.Heading(out, "=== MinC Admin sign-in ===")

		p := console.NewPrompter(os.Stdin, out)
		id, err := runLogin(cmd.Context(), app, p, out, rememberMe)
		if err != nil {
			return err
		}

		console.Success(out, "Signed in as %s", id.Label())
		return nil
	},
}

const resendWord = "resend"

// runLogin drives the wizard until sign-in finishes. Rejections the admin can
// correct are shown inline and the step is asked again.
func runLogin(ctx context.Context, app *client.App, p *console.Prompter, out io.Writer, remember bool) (*session.Identity, error) {
	w := app.NewWizard()
	remembered := app.Session().RememberedIdentifier(ctx)
	sent := false

	for w.Step() != login.StepDone {
		switch w.Step() {
		case login.StepIdentifier:
			prompt := "MINC ID or email: "
			if remembered != "" {
				prompt = fmt.Sprintf("MINC ID or email [%s]: ", remembered)
			}
			raw, err := p.Line(prompt)
			if err != nil {
				return nil, aborted(err)
			}
			if raw == "" {
				raw = remembered
			}
			if err := w.SubmitIdentifier(ctx, raw); err != nil {
				if !correctable(err) {
					return nil, err
				}
				console.Fail(out, err)
			}
			sent = false

		case login.StepPassword:
			pw, err := p.Password("Password: ")
			if err != nil {
				return nil, aborted(err)
			}
			if err := w.SubmitPassword(ctx, pw); err != nil {
				if !correctable(err) {
					return nil, err
				}
				console.Fail(out, err)
			}

		case login.StepOTP:
			if !sent {
				if err := w.SendOTP(ctx); err != nil {
					return nil, err
				}
				sent = true
				console.Success(out, "A one-time code was sent to %s", w.Account().Email)
			}
			code, err := p.Line(fmt.Sprintf("One-time code (or %q): ", resendWord))
			if err != nil {
				return nil, aborted(err)
			}
			if strings.EqualFold(code, resendWord) {
				sent = false
				continue
			}
			if err := w.SubmitOTP(ctx, code); err != nil {
				if !correctable(err) {
					return nil, err
				}
				console.Fail(out, err)
			}
		}
	}

	return app.CompleteLogin(ctx, w, remember)
}

func correctable(err error) bool {
	var ae *login.AuthError
	return errors.As(err, &ae)
}

func aborted(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("sign-in aborted")
	}
	return err
}

func init() {
	LoginCmd.Flags().BoolVarP(&rememberMe, "remember", "r", false, "remember the identifier on this machine")
}
