package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/pipeline"
	"yieldcurve-lab/internal/storage/stores"
)

func newRenderCurveCmd(a *app) *cobra.Command {
	var (
		dates []string
		out   pipeline.Outputs
	)

	cmd := &cobra.Command{
		Use:     "render-curve [DATE...]",
		Aliases: []string{"plot-curve"},
		Short:   "Plot curve for specific dates",
		Long: "Overlay the stored curve on each requested date in one chart.\n" +
			"Dates come from --dates (repeatable or comma separated) and positional arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseDates(append(dates, args...))
			if err != nil {
				return err
			}
			if len(parsed) == 0 {
				return fmt.Errorf("at least one date is required (--dates YYYY-MM-DD)")
			}

			return a.run(cmd.Context(), func(p *pipeline.Pipeline, _ *stores.Handle) error {
				res, err := p.RenderCurve(cmd.Context(), parsed, out)
				if err != nil {
					return err
				}
				for _, d := range res.Missing {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: no data for %s\n", domain.FormatDate(d))
				}
				printOutputs(cmd, out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&dates, "dates", nil, "dates YYYY-MM-DD")
	cmd.Flags().StringVar(&out.SVGPath, "out", "curve.svg", "SVG output path (empty to skip)")
	cmd.Flags().StringVar(&out.CSVPath, "csv", "", "CSV output path")

	return cmd
}

func newRenderSpreadsCmd(a *app) *cobra.Command {
	var out pipeline.Outputs

	cmd := &cobra.Command{
		Use:     "render-spreads",
		Aliases: []string{"plot-spreads"},
		Short:   "Plot curve spreads over time",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), func(p *pipeline.Pipeline, _ *stores.Handle) error {
				spreads, err := p.RenderSpreads(cmd.Context(), out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Computed spreads for %d dates\n", len(spreads))
				for _, s := range p.Summarize(spreads) {
					if s.Count == 0 {
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: last %.4f (%s), inverted on %d of %d dates\n",
						s.Metric, s.Last, domain.FormatDate(s.LastDate), s.InvertedDays, s.Count)
				}
				printOutputs(cmd, out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&out.SVGPath, "out", "spreads.svg", "SVG output path (empty to skip)")
	cmd.Flags().StringVar(&out.CSVPath, "csv", "", "CSV output path")
	cmd.Flags().StringVar(&out.SummaryPath, "summary", "", "Markdown summary output path")

	return cmd
}

func parseDates(raw []string) ([]time.Time, error) {
	var out []time.Time
	for _, r := range raw {
		for _, s := range strings.Fields(strings.ReplaceAll(r, ",", " ")) {
			d, err := domain.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("invalid date %q: %w", s, err)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func printOutputs(cmd *cobra.Command, out pipeline.Outputs) {
	for _, path := range []string{out.SVGPath, out.CSVPath, out.SummaryPath} {
		if path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		}
	}
}
