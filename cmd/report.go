// File: cmd/report.go
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/observability"
	"github.com/xkilldash9x/formprobe/internal/reporting"
)

// newReportCmd converts a JSON defect report written by "run" into another
// format, so one run can feed both a SARIF upload and a JUnit dashboard.
func newReportCmd(a *app) *cobra.Command {
	var input, format, output string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Convert a JSON defect report to sarif, junit or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}
			var src reporting.JSONReport
			if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &src); err != nil {
				return fmt.Errorf("failed to parse %s as a JSON defect report: %w", input, err)
			}

			version := src.Version
			if version == "" {
				version = Version
			}
			reporter, err := reporting.NewTo(format, output, cmd.OutOrStdout(), version)
			if err != nil {
				return err
			}
			if err := reporting.WriteAll(reporter, src.Defects); err != nil {
				return err
			}
			logger.Info("Report converted.",
				zap.String("input", input),
				zap.String("format", format),
				zap.Int("defects", len(src.Defects)),
			)
			return nil
		},
	}

	reportCmd.Flags().StringVarP(&input, "input", "i", "", "JSON defect report produced by 'run --report-format json'")
	reportCmd.Flags().StringVarP(&format, "format", "f", reporting.FormatSARIF, "output format: sarif, junit or json")
	reportCmd.Flags().StringVarP(&output, "output", "o", "", "output path (default stdout)")
	_ = reportCmd.MarkFlagRequired("input")
	return reportCmd
}
