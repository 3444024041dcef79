// cmd/client/cmd/init.go
package cmd

import (
	"mincadmin/cmd/client/cmd/auth"
	"mincadmin/cmd/client/cmd/record"
)

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.StatusCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.GetCmd)
	record.RecordCmd.AddCommand(record.SearchCmd)
	record.RecordCmd.AddCommand(record.FindCmd)
	record.RecordCmd.AddCommand(record.EditCmd)
	record.RecordCmd.AddCommand(record.RevealCmd)

	rootCmd.AddCommand(searchCmd)
}
