package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/observability"
)

func fieldNames() []string {
	names := make([]string, 0, len(field.All))
	for _, f := range field.All {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func newResolveCmd(a *app) *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve <field>",
		Short: "Show which lookup strategy finds a field on each page",
		Long: fmt.Sprintf(`Resolve navigates every page to target.base_url once and reports which
strategy of the resolution chain (label, adjacency, placeholder or fallback)
locates the field. Useful when the page's label markup changes.

Fields: %s`, strings.Join(fieldNames(), ", ")),
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd, map[string]string{
				"base-url": "target.base_url",
				"driver":   "browser.driver",
				"pages":    "browser.pages",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, ok := field.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown field %q (known: %s)", args[0], strings.Join(fieldNames(), ", "))
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			components, err := a.factory.Create(ctx, cfg, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PAGE\tFIELD\tSTRATEGY\tMATCHES\tLOCATOR")
			for _, page := range components.Manager.Pages() {
				if err := page.Navigate(ctx, cfg.Target.BaseURL); err != nil {
					return err
				}
				res := components.Resolver.Resolve(ctx, page, f)
				matches := "?"
				if n, err := res.Control.Count(ctx); err == nil {
					matches = fmt.Sprint(n)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", page.ID(), f.Name, res.Strategy, matches, res.Control.Description())
			}
			return w.Flush()
		},
	}
	resolveCmd.Flags().String("base-url", "", "URL of the Bugs Form page (overrides BASEURL)")
	resolveCmd.Flags().String("driver", "", "browser driver: playwright, chromedp or static")
	resolveCmd.Flags().Int("pages", 0, "number of browser pages to resolve on")
	return resolveCmd
}
