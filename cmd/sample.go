// File: cmd/sample.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raylty/linkcheck-cli/internal/sheet"
)

// newSampleCmd creates the `sample` command, which writes a starter workbook
// with the expected columns and a few example rows.
func newSampleCmd() *cobra.Command {
	var output string

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Writes a sample input workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sheet.WriteSample(output); err != nil {
				return fmt.Errorf("failed to write sample workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "示例文件已生成: %s\n", output)
			return nil
		},
	}

	sampleCmd.Flags().StringVarP(&output, "output", "o", "test_sample.xlsx", "path of the sample workbook")
	return sampleCmd
}
