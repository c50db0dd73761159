package cli

import (
	"os"
	"time"

	"github.com/ksyq12/converge/internal/logger"
	"github.com/ksyq12/converge/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	jsonOutput  bool
	verbose     bool
	dryRun      bool
	execTimeout time.Duration
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "converge",
	Short: "Idempotent certificate and container reconciler",
	Long: `converge keeps a host's Let's Encrypt certificates and Docker containers
in the state you declare, by shelling out to certbot and the docker CLI.

Each run probes the current host state, decides the minimal action
(issue, renew, create, recreate, start, remove, or nothing), and executes
it. Runs are idempotent: applying the same desired state twice changes
nothing the second time.`,
}

// Execute runs the root command
func Execute() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report what would change without executing anything")
	rootCmd.PersistentFlags().DurationVar(&execTimeout, "timeout", reconcile.DefaultExecTimeout, "Timeout for each external command")
}
