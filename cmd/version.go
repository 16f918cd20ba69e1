package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and credential status",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion writes build information and whether a credential is visible
// in the environment. The key itself never appears in full.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Happy Tree Friends %s\n", AppVersion)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
	fmt.Fprintln(w)

	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	switch {
	case key == "":
		fmt.Fprintln(w, "GOOGLE_API_KEY: not set")
		fmt.Fprintln(w, "Hint: export GOOGLE_API_KEY=your-api-key")
	case len(key) > 8:
		fmt.Fprintf(w, "GOOGLE_API_KEY: %s...%s (configured)\n", key[:2], key[len(key)-2:])
	default:
		fmt.Fprintln(w, "GOOGLE_API_KEY: (configured)")
	}
}
