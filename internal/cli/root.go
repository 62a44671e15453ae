package cli

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set by ldflags during build and injected through
// Execute.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "moonshine",
	Short: "Detect and enhance the moon in night-sky photos",
	Long: `moonshine locates the lunar disk in a photo, scores how trustworthy
the detection is, and runs a confidence-gated enhancement pipeline over it.
When the detection cannot be trusted, it falls back to conservative global
edits instead of risking halos and crunchy limbs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// stdout is reserved for results (and the MCP protocol in serve
		// mode); all logging goes to stderr.
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

		if os.Getenv("MOONSHINE_LOG_LEVEL") == "debug" {
			log.Printf("moonshine v%s (built %s, commit %s)", version, buildTime, gitCommit)
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI with build metadata injected from main.
func Execute(v, built, commit string) error {
	if v != "" {
		version = v
	}
	if built != "" {
		buildTime = built
	}
	if commit != "" {
		gitCommit = commit
	}
	return rootCmd.Execute()
}
