package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/observability"
	"github.com/xkilldash9x/formprobe/internal/reporting"
)

// ErrSuiteFailed is returned when at least one scenario failed.
var ErrSuiteFailed = errors.New("feature suite failed")

func newRunCmd(a *app) *cobra.Command {
	var noColors bool

	runCmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the feature files against the configured page",
		Long: `Run executes the Gherkin feature files (English or Spanish) against the
page at target.base_url on every configured browser page. Known site defects
are written to the defect report instead of failing the run. When the report
goes to stdout (the default), the suite output is written to stderr.

Paths may contain ** globs. Without arguments suite.paths is used.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd, map[string]string{
				"base-url":      "target.base_url",
				"driver":        "browser.driver",
				"pages":         "browser.pages",
				"headless":      "browser.headless",
				"tags":          "suite.tags",
				"format":        "suite.format",
				"strict":        "suite.strict",
				"report-format": "report.format",
				"report-output": "report.output",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			patterns := args
			if len(patterns) == 0 {
				patterns = cfg.Suite.Paths
			}
			paths, err := expandPaths(patterns)
			if err != nil {
				return err
			}

			components, err := a.factory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			// A report on stdout keeps stdout to itself so it can be redirected
			// into a file and parsed.
			suiteOut := cmd.OutOrStdout()
			if reporting.ToStdout(cfg.Report.Output) {
				suiteOut = cmd.ErrOrStderr()
			}
			var out io.Writer = colors.Colored(suiteOut)
			if noColors {
				out = colors.Uncolored(suiteOut)
			}

			logger.Info("Running feature suite.",
				zap.Strings("paths", paths),
				zap.String("driver", cfg.Browser.Driver),
				zap.Int("pages", cfg.Browser.Pages),
			)
			status := godog.TestSuite{
				Name:                "formprobe",
				ScenarioInitializer: components.Steps.InitializeScenario,
				Options: &godog.Options{
					Format:   cfg.Suite.Format,
					Paths:    paths,
					Tags:     cfg.Suite.Tags,
					Strict:   cfg.Suite.Strict,
					NoColors: noColors,
					Output:   out,
				},
			}.Run()

			defects := components.Defects.Defects()
			reporter, err := reporting.NewTo(cfg.Report.Format, cfg.Report.Output, cmd.OutOrStdout(), Version)
			if err != nil {
				return err
			}
			if err := reporting.WriteAll(reporter, defects); err != nil {
				return fmt.Errorf("failed to write defect report: %w", err)
			}
			logger.Info("Feature suite finished.", zap.Int("status", status), zap.Int("known_defects", len(defects)))

			if status != 0 {
				return fmt.Errorf("%w (status %d)", ErrSuiteFailed, status)
			}
			return nil
		},
	}

	runCmd.Flags().String("base-url", "", "URL of the Bugs Form page (overrides BASEURL)")
	runCmd.Flags().String("driver", "", "browser driver: playwright, chromedp or static")
	runCmd.Flags().Int("pages", 0, "number of browser pages each step is replayed on")
	runCmd.Flags().Bool("headless", true, "run the browser headless")
	runCmd.Flags().StringP("tags", "t", "", "tag expression selecting scenarios (e.g. \"~@known-defect\")")
	runCmd.Flags().StringP("format", "f", "", "godog output format (pretty, progress, cucumber, junit)")
	runCmd.Flags().Bool("strict", true, "fail on pending or undefined steps")
	runCmd.Flags().String("report-format", "", "defect report format: sarif, json or junit")
	runCmd.Flags().StringP("report-output", "o", "", "defect report path (default stdout)")
	runCmd.Flags().BoolVar(&noColors, "no-colors", false, "disable colored output")
	return runCmd
}

// expandPaths resolves ~ and ** globs. Plain paths (including file:line
// references) are passed through for godog to validate.
func expandPaths(patterns []string) ([]string, error) {
	var paths []string
	for _, p := range patterns {
		p, err := homedir.Expand(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", p, err)
		}
		if !strings.ContainsAny(p, "*?[{") {
			paths = append(paths, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no feature files match %q", p)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, errors.New("no feature paths given")
	}
	return paths, nil
}
