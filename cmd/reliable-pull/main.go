// Package main provides the entry point for the reliable-pull export tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tshea68/reliable-pull/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reliable-pull",
		Short: "reliable-pull retrieves and diffs the vendor parts export",
		Long: `reliable-pull drives the vendor parts inventory/price export workflow:
it triggers generation, polls the download endpoint until the file is ready,
extracts the archive, and optionally diffs the export against a previous
snapshot keyed by part number.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of reliable-pull",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("reliable-pull", version.GetVersion())
		},
	})

	rootCmd.AddCommand(newPullCommand())
	rootCmd.AddCommand(newDiffCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newMockCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
