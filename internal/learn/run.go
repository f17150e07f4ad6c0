package learn

import (
	"fmt"
	"math/rand/v2"
)

// MinRunSamples is the smallest dataset Run will train on.
const MinRunSamples = 10

// RunOptions configures an end-to-end training run.
type RunOptions struct {
	Train TrainOptions
	// TrainFraction of rows used for training; the rest are held out. Defaults to 0.7.
	TrainFraction float64
	// MinSamples defaults to MinRunSamples.
	MinSamples int
}

// DefaultRunOptions returns a 70/30 split with DefaultTrainOptions.
func DefaultRunOptions() RunOptions {
	return RunOptions{Train: DefaultTrainOptions(), TrainFraction: 0.7, MinSamples: MinRunSamples}
}

// RunResult reports a training run. When Available is false only Samples and
// Reason are set.
type RunResult struct {
	Available            bool     `json:"available"`
	Reason               string   `json:"reason,omitempty"`
	Samples              int      `json:"sample_count"`
	TrainSamples         int      `json:"train_sample_count"`
	TestSamples          int      `json:"test_sample_count"`
	PositiveRate         float64  `json:"positive_rate"`
	TrainMetrics         *Metrics `json:"train_metrics,omitempty"`
	TestMetrics          *Metrics `json:"test_metrics,omitempty"`
	PredictedProbability *float64 `json:"predicted_probability,omitempty"`
	Model                *Model   `json:"model,omitempty"`
	Scaler               *Scaler  `json:"scaler,omitempty"`
}

// Split shuffles row indices with the given seed and cuts them at fraction.
func Split(d Dataset, fraction float64, seed uint64) (train, test Dataset) {
	idx := make([]int, d.Len())
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, splitStream))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	cut := int(float64(len(idx)) * fraction)
	pick := func(rows []int) Dataset {
		out := Dataset{Meta: d.Meta, X: make([][]float64, 0, len(rows)), Y: make([]int, 0, len(rows))}
		out.Meta.Years = make([]int, 0, len(rows))
		for _, i := range rows {
			out.X = append(out.X, d.X[i])
			out.Y = append(out.Y, d.Y[i])
			if i < len(d.Meta.Years) {
				out.Meta.Years = append(out.Meta.Years, d.Meta.Years[i])
			}
		}
		return out
	}
	return pick(idx[:cut]), pick(idx[cut:])
}

// Run splits d, fits a scaler on the training rows, trains, evaluates both
// partitions and scores the last row of d, which is the most recent year.
// Datasets smaller than MinSamples are reported as unavailable, not as errors.
func Run(d Dataset, opts RunOptions) (RunResult, error) {
	if opts.TrainFraction == 0 {
		opts.TrainFraction = 0.7
	}
	if opts.TrainFraction <= 0 || opts.TrainFraction >= 1 {
		return RunResult{}, fmt.Errorf("%w: train fraction %v must be in (0, 1)", ErrInvalidDataset, opts.TrainFraction)
	}
	if opts.MinSamples == 0 {
		opts.MinSamples = MinRunSamples
	}

	res := RunResult{Samples: d.Len()}
	if d.Len() < opts.MinSamples {
		res.Reason = fmt.Sprintf("need at least %d samples, have %d", opts.MinSamples, d.Len())
		return res, nil
	}
	if err := validate(d.X, d.Y); err != nil {
		return RunResult{}, err
	}

	positives := 0
	for _, label := range d.Y {
		positives += label
	}
	res.PositiveRate = float64(positives) / float64(d.Len())

	train, test := Split(d, opts.TrainFraction, opts.Train.Seed)
	trainX, testX, scaler, err := StandardizeTrainTest(train.X, test.X)
	if err != nil {
		return RunResult{}, err
	}
	model, err := Train(trainX, train.Y, opts.Train)
	if err != nil {
		return RunResult{}, fmt.Errorf("train classifier: %w", err)
	}

	trainMetrics, err := Evaluate(model, trainX, train.Y)
	if err != nil {
		return RunResult{}, fmt.Errorf("evaluate train split: %w", err)
	}
	testMetrics, err := Evaluate(model, testX, test.Y)
	if err != nil {
		return RunResult{}, fmt.Errorf("evaluate test split: %w", err)
	}
	p := model.PredictProba(scaler.TransformRow(d.X[d.Len()-1]))

	res.Available = true
	res.TrainSamples = train.Len()
	res.TestSamples = test.Len()
	res.TrainMetrics = &trainMetrics
	res.TestMetrics = &testMetrics
	res.PredictedProbability = &p
	res.Model = model
	res.Scaler = &scaler
	return res, nil
}
