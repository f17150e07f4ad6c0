package estimate

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodEmpirical, false},
		{"threshold", MethodEmpirical, false},
		{"Empirical", MethodEmpirical, false},
		{"parametric", MethodParametric, false},
		{"bayes", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethod_JSON(t *testing.T) {
	data, err := json.Marshal(MethodParametric)
	require.NoError(t, err)
	assert.JSONEq(t, `"parametric"`, string(data))

	var m Method
	require.NoError(t, json.Unmarshal([]byte(`"threshold"`), &m))
	assert.Equal(t, MethodEmpirical, m)
}

func TestNew_Dispatch(t *testing.T) {
	s := series(climate.Precipitation, 2001, 10)
	for col := range 10 {
		setDay(s, col, 4, 1, climate.Value(float64(col)))
	}
	q := mustQuery(4, 1, 0)

	emp, err := New(MethodEmpirical, Options{Threshold: 4.5})
	require.NoError(t, err)
	e, err := emp.Estimate(s, q)
	require.NoError(t, err)
	assert.Equal(t, MethodEmpirical, e.Method)
	require.NotNil(t, e.Empirical)
	assert.Nil(t, e.Parametric)
	assert.InDelta(t, 0.5, e.Probability, 1e-12)
	assert.Equal(t, 10, e.ValidYears)

	par, err := New(MethodParametric, Options{Threshold: 4.5})
	require.NoError(t, err)
	p, err := par.Estimate(s, q)
	require.NoError(t, err)
	assert.Equal(t, MethodParametric, p.Method)
	require.NotNil(t, p.Parametric)
	assert.Equal(t, p.Parametric.Probability, p.Probability)

	_, err = New(Method(9), Options{})
	require.Error(t, err)
}
