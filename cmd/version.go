package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spigell/grant-matcher/internal/foundation"
)

// Set with -ldflags "-X github.com/spigell/grant-matcher/cmd.version=...".
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the built-in catalog size",
	Run: func(cmd *cobra.Command, _ []string) {
		short, _ := cmd.Flags().GetBool("short")
		printVersion(cmd.OutOrStdout(), short)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print only the version")
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, version)
		return
	}

	fmt.Fprintf(w, "%s version: %s\n", appName, version)
	if catalog, err := foundation.Default(); err == nil {
		fmt.Fprintf(w, "built-in catalog: %d foundations\n", catalog.Len())
	}
}
