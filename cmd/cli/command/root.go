package command

// root.go defines the root command and the global flags of the reviewhub CLI.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiURL string // Global flag for API server URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reviewhub",
	Short: "reviewhub - ReviewHub command line interface",
	Long: `reviewhub manages a ReviewHub deployment and talks to its API.

Database commands (migrate, create-admin, set-role) read the same environment
as the API server. Auth commands call the API given by --api and keep the
access token in the OS keyring.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080/api/v1", "API base URL")

	rootCmd.AddCommand(authCmd, migrateCmd, createAdminCmd, setRoleCmd)
}
