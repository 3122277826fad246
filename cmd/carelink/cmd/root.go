// Package cmd defines the carelink command tree.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "carelink",
	Short: "carelink is the local dashboard client for the counseling marketplace",
	Long: `carelink connects to the counseling marketplace backend and serves a
local dashboard over it: Q&A forums, expert columns, consultation booking,
the token wallet, and chat. Credentials are stored locally and refreshed
transparently.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")
}
