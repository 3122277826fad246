package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunwoojg/carelink/internal/client/session"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sess.Bootstrap(cmd.Context()); err != nil {
			return err
		}

		snap := a.sess.Snapshot()
		if snap.State != session.StateAuthenticated {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", snap.User.Name, snap.User.Email, snap.User.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
