package climate

import (
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/climate-odds/internal/calendar"
)

// syntheticStream separates generator draws from other seeded streams.
const syntheticStream = 0x5eed_c11a

// Synthetic builds a deterministic dataset for [first, last] with a seasonal
// temperature cycle and a slight warming trend, intermittent rain with
// log-normal amounts, and positive wind speeds. Roughly one reading in a
// hundred is left missing. Used for fixtures and offline runs.
func Synthetic(lon, lat float64, first, last int, seed uint64) *Dataset {
	ds := NewDataset(lon, lat, first, last)
	rng := rand.New(rand.NewPCG(seed, syntheticStream))
	cols := len(ds.Years)

	temp := NewMatrix(cols)
	tmax := NewMatrix(cols)
	tmin := NewMatrix(cols)
	precip := NewMatrix(cols)
	wind := NewMatrix(cols)
	humidity := NewMatrix(cols)

	// Southern hemisphere seasons are inverted.
	phase := 1.0
	if lat < 0 {
		phase = -1.0
	}

	for col, year := range ds.Years {
		for doy := range calendar.DaysInCalendar {
			if _, _, ok := calendar.DateOf(year, doy); !ok {
				continue
			}
			season := math.Sin(2 * math.Pi * float64(doy-105) / 365)

			t := 12 + phase*10*season + 0.03*float64(year-first) + rng.NormFloat64()*3
			wet := rng.Float64() < 0.35-0.1*phase*season
			rain := 0.0
			if wet {
				rain = math.Exp(0.5 + rng.NormFloat64())
			}
			rh := 65 + 10*rng.NormFloat64()
			if wet {
				rh += 15
			}

			set := func(m *Matrix, v float64) {
				if rng.Float64() < 0.01 {
					return
				}
				m.Set(doy, col, Value(v))
			}
			set(temp, round(t))
			set(tmax, round(t+5+rng.NormFloat64()))
			set(tmin, round(t-5+rng.NormFloat64()))
			set(precip, round(rain))
			set(wind, round(math.Abs(3.5+rng.NormFloat64()*1.5)))
			set(humidity, round(math.Max(5, math.Min(100, rh))))
		}
	}

	ds.Values[Temperature] = temp
	ds.Values[TemperatureMax] = tmax
	ds.Values[TemperatureMin] = tmin
	ds.Values[Precipitation] = precip
	ds.Values[WindSpeed] = wind
	ds.Values[Humidity] = humidity
	return ds
}

// round keeps two decimals, as POWER reports.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
