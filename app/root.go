// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "staffdesk",
	Short: "StaffDesk is a staff/HR administration backend",
	Long: `StaffDesk is a staff/HR administration backend providing an employee
directory, access management and approval workflows behind a unified
multi-provider authentication layer.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
