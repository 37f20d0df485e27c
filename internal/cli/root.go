// Package cli holds the pdfstore command tree. Running the binary without a
// subcommand starts the HTTP service.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pdfstore",
	Short: "Store large PDFs as size-bounded segments",
	Long: `pdfstore accepts PDF uploads, splits them into segments that fit the
object store's size budget, uploads the segments and keeps one registry
record per document.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("pdfstore version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}
