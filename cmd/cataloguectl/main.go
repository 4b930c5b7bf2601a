// Command cataloguectl inspects the merged catalogue from the command line.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "cataloguectl",
	Short:        "Inspect the product catalogue and its variant combinations",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "merge the owner records cached in this directory")
	rootCmd.AddCommand(catalogueCmd, combinationsCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
