package learn

import "fmt"

// Metrics is a confusion matrix with the scores derived from it. Scores whose
// denominator is zero are reported as 0.
type Metrics struct {
	TP        int     `json:"tp"`
	TN        int     `json:"tn"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Total returns the number of rows evaluated.
func (m Metrics) Total() int { return m.TP + m.TN + m.FP + m.FN }

// Evaluate classifies each row of x as positive when the predicted
// probability is at least 0.5 and compares against y. No rows give zero
// Metrics; mismatched shapes fail with ErrInvalidDataset.
func Evaluate(m *Model, x [][]float64, y []int) (Metrics, error) {
	var out Metrics
	if len(x) == 0 && len(y) == 0 {
		return out, nil
	}
	if err := validate(x, y); err != nil {
		return out, err
	}
	if len(x[0]) != len(m.Weights) {
		return out, fmt.Errorf("%w: rows have %d features, model expects %d", ErrInvalidDataset, len(x[0]), len(m.Weights))
	}
	for i, row := range x {
		pred := m.PredictProba(row) >= 0.5
		actual := y[i] == 1
		switch {
		case pred && actual:
			out.TP++
		case !pred && !actual:
			out.TN++
		case pred && !actual:
			out.FP++
		default:
			out.FN++
		}
	}
	out.Accuracy = safeDiv(float64(out.TP+out.TN), float64(out.Total()))
	out.Precision = safeDiv(float64(out.TP), float64(out.TP+out.FP))
	out.Recall = safeDiv(float64(out.TP), float64(out.TP+out.FN))
	out.F1 = safeDiv(2*out.Precision*out.Recall, out.Precision+out.Recall)
	return out, nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
