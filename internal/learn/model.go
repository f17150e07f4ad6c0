package learn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// PCG stream selectors so splitting and training draw independent sequences
// from the same seed.
const (
	trainStream uint64 = 0x7472_6169_6e
	splitStream uint64 = 0x7370_6c69_74
)

// TrainOptions configures stochastic gradient descent.
type TrainOptions struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`
	Seed         uint64  `json:"seed"`
}

// DefaultTrainOptions returns 800 epochs at learning rate 0.005 with L2 0.01.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 800, LearningRate: 0.005, L2: 1e-2}
}

func (o TrainOptions) validate() error {
	if o.Epochs <= 0 {
		return fmt.Errorf("%w: epochs %d must be positive", ErrInvalidDataset, o.Epochs)
	}
	if o.LearningRate <= 0 || math.IsNaN(o.LearningRate) {
		return fmt.Errorf("%w: learning rate %v must be positive", ErrInvalidDataset, o.LearningRate)
	}
	if o.L2 < 0 || math.IsNaN(o.L2) {
		return fmt.Errorf("%w: l2 %v must not be negative", ErrInvalidDataset, o.L2)
	}
	return nil
}

// Model is a trained logistic regression. It is not modified after Train returns.
type Model struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// PredictProba returns sigmoid(w.x + b). x must have len(Weights) features.
func (m *Model) PredictProba(x []float64) float64 {
	return sigmoid(floats.Dot(m.Weights, x) + m.Bias)
}

// Train fits a logistic regression by single-sample SGD. Weights start uniform
// in [-0.005, 0.005); each epoch visits every row once in a fresh random order.
// The bias is not regularized. Identical inputs and seed give identical models.
func Train(x [][]float64, y []int, opts TrainOptions) (*Model, error) {
	if err := validate(x, y); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(opts.Seed, trainStream))
	w := make([]float64, len(x[0]))
	for k := range w {
		w[k] = (rng.Float64() - 0.5) * 0.01
	}
	var b float64

	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	for range opts.Epochs {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			xi := x[i]
			e := sigmoid(floats.Dot(w, xi)+b) - float64(y[i])
			for k := range w {
				w[k] -= opts.LearningRate * (e*xi[k] + opts.L2*w[k])
			}
			b -= opts.LearningRate * e
		}
	}
	return &Model{Weights: w, Bias: b}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}
