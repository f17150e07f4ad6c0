package estimate

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
)

// Method selects an exceedance estimator.
type Method int

const (
	MethodEmpirical Method = iota
	MethodParametric
)

func (m Method) String() string {
	switch m {
	case MethodEmpirical:
		return "empirical"
	case MethodParametric:
		return "parametric"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod accepts "empirical" (or its alias "threshold") and "parametric".
// An empty string selects MethodEmpirical.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empirical", "threshold":
		return MethodEmpirical, nil
	case "parametric":
		return MethodParametric, nil
	default:
		return 0, fmt.Errorf("unknown estimation method %q", s)
	}
}

// MarshalText encodes the method by name.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a method name.
func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Estimate is the common result of an exceedance estimator. Exactly one of
// Empirical or Parametric is set, matching Method.
type Estimate struct {
	Method      Method            `json:"method"`
	Probability float64           `json:"probability"`
	ValidYears  int               `json:"valid_year_count"`
	Empirical   *EmpiricalResult  `json:"empirical,omitempty"`
	Parametric  *ParametricResult `json:"parametric,omitempty"`
}

// Estimator computes an exceedance probability for one series and query.
type Estimator interface {
	Estimate(s climate.Series, q calendar.Query) (Estimate, error)
}

// Options configures the estimator returned by New.
type Options struct {
	Threshold          float64
	MinValidYears      int
	MinPositiveSamples int
}

// New returns the estimator for method.
func New(method Method, opts Options) (Estimator, error) {
	switch method {
	case MethodEmpirical:
		return empiricalEstimator{ThresholdOptions{Threshold: opts.Threshold, MinValidYears: opts.MinValidYears}}, nil
	case MethodParametric:
		return parametricEstimator{ParametricOptions{Threshold: opts.Threshold, MinPositiveSamples: opts.MinPositiveSamples}}, nil
	default:
		return nil, fmt.Errorf("unknown estimation method %s", method)
	}
}

type empiricalEstimator struct{ opts ThresholdOptions }

func (e empiricalEstimator) Estimate(s climate.Series, q calendar.Query) (Estimate, error) {
	r, err := Empirical(s, q, e.opts)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Method: MethodEmpirical, Probability: r.Probability, ValidYears: r.ValidYears, Empirical: &r}, nil
}

type parametricEstimator struct{ opts ParametricOptions }

func (e parametricEstimator) Estimate(s climate.Series, q calendar.Query) (Estimate, error) {
	r, err := Parametric(s, q, e.opts)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Method: MethodParametric, Probability: r.Probability, ValidYears: r.ValidYears, Parametric: &r}, nil
}
