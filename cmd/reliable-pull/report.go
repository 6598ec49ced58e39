package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tshea68/reliable-pull/report"
)

// newReportCommand creates the report command, which renders a saved run
// record into a human-readable document.
func newReportCommand() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "report RUN_JSON",
		Short: "Render a saved run record as HTML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runPath := args[0]

			var gen report.Generator
			switch format {
			case "html":
				gen = &report.HTMLGenerator{}
			case "json":
				gen = &report.JSONGenerator{}
			default:
				return fmt.Errorf("unsupported report format: %s", format)
			}

			outPath := output
			if outPath == "" {
				outPath = strings.TrimSuffix(runPath, ".json") + "." + format
			}
			if err := report.FromFilePath(gen, runPath, outPath); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "html", "Report format (html, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: next to the run record)")

	return cmd
}
