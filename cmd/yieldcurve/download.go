package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/fred"
	"yieldcurve-lab/internal/pipeline"
	"yieldcurve-lab/internal/storage/stores"
)

func newDownloadCmd(a *app) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download and store historical curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := domain.ParseDate(start)
			if err != nil {
				return fmt.Errorf("invalid --start %q: %w", start, err)
			}
			to, err := domain.ParseDate(end)
			if err != nil {
				return fmt.Errorf("invalid --end %q: %w", end, err)
			}

			client, err := fred.NewHTTPClient(a.cfg.FRED.APIKey,
				fred.WithBaseURL(a.cfg.FRED.BaseURL),
				fred.WithTimeout(a.cfg.FRED.Timeout),
				fred.WithMaxRetries(a.cfg.FRED.MaxRetries),
				fred.WithRetryDelay(a.cfg.FRED.RetryDelay),
				fred.WithMaxDelay(a.cfg.FRED.MaxDelay),
				fred.WithLogger(a.logger),
				fred.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}

			return a.run(cmd.Context(), func(p *pipeline.Pipeline, _ *stores.Handle) error {
				res, err := p.WithFetcher(client).Download(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Downloaded and stored curves from %s to %s (%d rows)\n", start, end, res.Rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
