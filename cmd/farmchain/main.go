// Command farmchain runs the marketplace API and its maintenance tasks.
//
//	farmchain migrate
//	farmchain seed
//	farmchain serve
package main

import (
	"fmt"
	"os"

	"github.com/farmchain/farmchain/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "farmchain",
	Short:         "Farm-to-business produce marketplace",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Load()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, routeListCmd)
	rootCmd.AddCommand(migrateCmd, migrateRollbackCmd, migrateStatusCmd, seedCmd)
	rootCmd.AddCommand(queueWorkCmd, scheduleRunCmd)
}
