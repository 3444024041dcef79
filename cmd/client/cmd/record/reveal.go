package record

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mincadmin/cmd/client/cmd/console"
	"mincadmin/internal/app/client/gateway"
	"mincadmin/internal/domain/record"
)

var (
	revealIDOnly bool
	revealFormat string
)

var RevealCmd = &cobra.Command{
	Use:   "reveal <complaint-id>",
	Short: "Show the user who filed a complaint",
	Long: `Looks up which user filed a complaint and shows their record.

  mincadmin record reveal VGC25000001

With --id only the user's ID is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := console.Authed(cmd)
		if err != nil {
			return err
		}
		format := revealFormat
		if console.JSON(cmd) {
			format = "json"
		}
		return reveal(cmd.Context(), app.Gateway(), args[0], format, revealIDOnly, cmd.OutOrStdout())
	},
}

type revealView struct {
	ComplaintID string        `json:"complaint_vg_id" yaml:"complaint_vg_id"`
	UserID      string        `json:"user_vg_id" yaml:"user_vg_id"`
	User        record.Record `json:"user" yaml:"user"`
}

func reveal(ctx context.Context, gw *gateway.Client, complaintID, format string, idOnly bool, out io.Writer) error {
	complaintID = strings.ToUpper(strings.Join(strings.Fields(complaintID), ""))
	if complaintID != "" && !record.KindComplaint.LooksLikeID(complaintID) {
		console.Warn(out, "%s does not look like a complaint ID, trying anyway", complaintID)
	}

	userID, err := gw.RevealUser(ctx, complaintID)
	if err != nil {
		return err
	}
	if idOnly {
		fmt.Fprintln(out, userID)
		return nil
	}

	user, _, err := gw.Get(ctx, record.KindUser, userID)
	if err != nil {
		return fmt.Errorf("complaint %s was filed by %s: %w", complaintID, userID, err)
	}

	switch format {
	case "json":
		return writeJSON(out, revealView{ComplaintID: complaintID, UserID: userID, User: user})
	case "yaml":
		return writeYAML(out, revealView{ComplaintID: complaintID, UserID: userID, User: user})
	}
	console.Heading(out, "Complaint %s was filed by user %s", complaintID, userID)
	return printRecord(out, user, format)
}

func init() {
	RevealCmd.Flags().BoolVar(&revealIDOnly, "id", false, "print only the user's ID")
	RevealCmd.Flags().StringVarP(&revealFormat, "output", "o", "text", "output format (text, json, yaml)")
}
