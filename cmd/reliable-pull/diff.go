package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tshea68/reliable-pull/pkg/diff"
	"github.com/tshea68/reliable-pull/pkg/writers"
)

// DiffOptions represents the options for the diff command.
type DiffOptions struct {
	KeyColumn string
	Fields    []string
	OutPrefix string
}

// newDiffCommand creates the standalone diff command.
func newDiffCommand() *cobra.Command {
	options := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compute the keyed delta between two export snapshots",
		Long: `The diff command compares two export CSV files keyed by a business
identifier and writes three delta files: new keys, removed keys, and changed
rows with old/new value pairs per differing field.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandaloneDiff(args[0], args[1], options)
		},
	}

	cmd.Flags().StringVar(&options.KeyColumn, "key-col", "partNumber", "Key column for record matching")
	cmd.Flags().StringSliceVar(&options.Fields, "fields", nil, "Fields to compare (default: all shared columns)")
	cmd.Flags().StringVar(&options.OutPrefix, "out-prefix", "delta_", "Prefix for the three output files")

	return cmd
}

// runStandaloneDiff executes the diff command with the given options.
func runStandaloneDiff(oldPath, newPath string, options *DiffOptions) error {
	fields := options.Fields
	if len(fields) == 0 {
		fields = nil
	}

	result, err := diff.Diff(oldPath, newPath, options.KeyColumn, fields)
	if err != nil {
		return err
	}
	outputs, err := writers.WriteDelta(result, options.OutPrefix)
	if err != nil {
		return err
	}

	fmt.Printf("NEW=%d  REMOVED=%d  CHANGED=%d\n",
		len(result.NewKeys), len(result.RemovedKeys), len(result.Changed))
	fmt.Printf("Outputs:\n  %s\n  %s\n  %s\n", outputs.New, outputs.Removed, outputs.Changed)
	return nil
}
