package main

import (
	"github.com/couchcryptid/climate-odds/internal/outlook"
	"github.com/spf13/cobra"
)

func newOutlookCmd(a *app) *cobra.Command {
	var (
		method      string
		threshold   float64
		tempAtLeast float64
		windAtLeast float64
		noML        bool
	)

	cmd := &cobra.Command{
		Use:   "outlook",
		Short: "Compute the full outlook report for a day",
		Long: `Compute rain probabilities with both estimators, temperature and wind
predictions, trends and the rain classifier for the target day.

Examples:
  climatectl outlook --location "Paris, France" --date 07/14
  climatectl outlook --lat 40.71 --lon -74.01 --date 12/25 --window 5 --method parametric
  climatectl outlook --data fixture.json --lat 40.71 --lon -74.01 --date 07/04 --temp-at-least 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.deps(cmd)
			if err != nil {
				return err
			}

			q := a.query(cmd)
			q.Method = method
			if cmd.Flags().Changed("threshold") {
				q.Threshold = &threshold
			}
			if cmd.Flags().Changed("temp-at-least") {
				q.TemperatureThreshold = &tempAtLeast
			}
			if cmd.Flags().Changed("wind-at-least") {
				q.WindThreshold = &windAtLeast
			}

			opts := outlook.DefaultOptions()
			opts.MLEnabled = !noML
			svc := outlook.NewService(d.source, d.geocoder, opts, d.metrics, d.logger)

			report, err := svc.Compute(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&method, "method", "empirical", "precipitation estimator (empirical|threshold|parametric)")
	f.Float64Var(&threshold, "threshold", 1.0, "precipitation threshold in mm/day")
	f.Float64Var(&tempAtLeast, "temp-at-least", 30, "report how often temperature reaches this value (degC)")
	f.Float64Var(&windAtLeast, "wind-at-least", 8, "report how often wind reaches this speed (m/s)")
	f.BoolVar(&noML, "no-ml", false, "skip the rain classifier")
	return cmd
}
