package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd groups sign-in and session commands.
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in and out",
	Long:  `Sign in with a MINC ID or email, sign out, and show who is signed in.`,
}
