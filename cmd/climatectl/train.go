package main

import (
	"fmt"

	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/learn"
	"github.com/spf13/cobra"
)

// featureFlags configure the rain classifier's dataset.
type featureFlags struct {
	lags      int
	threshold float64
}

func (f *featureFlags) register(cmd *cobra.Command) {
	def := learn.DefaultBuildOptions()
	cmd.Flags().IntVar(&f.lags, "lags", def.Lags, "preceding days of precipitation used as features")
	cmd.Flags().Float64Var(&f.threshold, "label-threshold", def.Threshold, "mm/day at or above which a day counts as rainy")
}

// buildDataset fetches the record and turns it into labelled rows, with
// temperature on the target day as the covariate when present.
func (a *app) buildDataset(cmd *cobra.Command, ff featureFlags) (learn.Dataset, error) {
	d, err := a.deps(cmd)
	if err != nil {
		return learn.Dataset{}, err
	}
	q := a.query(cmd)
	if err := q.Validate(); err != nil {
		return learn.Dataset{}, err
	}
	cq, err := q.Calendar()
	if err != nil {
		return learn.Dataset{}, err
	}
	_, ds, err := d.fetch(cmd.Context(), q)
	if err != nil {
		return learn.Dataset{}, err
	}

	precip, ok := ds.Series(climate.Precipitation)
	if !ok {
		return learn.Dataset{}, fmt.Errorf("dataset has no %s readings", climate.Precipitation)
	}
	opts := learn.BuildOptions{Lags: ff.lags, Threshold: ff.threshold}
	if temp, ok := ds.Series(climate.Temperature); ok {
		opts.Covariate = &temp
	}
	return learn.BuildDataset(precip, ds.Longitude, ds.Latitude, cq, opts)
}

func newTrainCmd(a *app) *cobra.Command {
	var (
		ff        featureFlags
		withModel bool
	)
	run := learn.DefaultRunOptions()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and evaluate the rain classifier for a day",
		Long: `Build the lagged-feature dataset for the target day, train the logistic
classifier on a seeded 70/30 split and print train and test metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.buildDataset(cmd, ff)
			if err != nil {
				return err
			}
			run.Train.Seed = a.seed
			res, err := learn.Run(data, run)
			if err != nil {
				return err
			}
			if !withModel {
				res.Model, res.Scaler = nil, nil
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	ff.register(cmd)
	f := cmd.Flags()
	f.IntVar(&run.Train.Epochs, "epochs", run.Train.Epochs, "training epochs")
	f.Float64Var(&run.Train.LearningRate, "learning-rate", run.Train.LearningRate, "SGD step size")
	f.Float64Var(&run.Train.L2, "l2", run.Train.L2, "L2 regularization strength")
	f.Float64Var(&run.TrainFraction, "train-fraction", run.TrainFraction, "share of rows used for training")
	f.BoolVar(&withModel, "with-model", false, "include the fitted weights and scaler in the output")
	return cmd
}

func newFeaturesCmd(a *app) *cobra.Command {
	var ff featureFlags

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Summarize the classifier's feature dataset for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.buildDataset(cmd, ff)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), learn.Summarize(data))
		},
	}
	ff.register(cmd)
	return cmd
}
