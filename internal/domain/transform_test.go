package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawEvent
		wantID  string
		wantErr bool
	}{
		{
			name:   "explicit id",
			raw:    RawEvent{Key: []byte("key-1"), Value: []byte(`{"id":"q-7","location":"Lyon, France","date":"07/14"}`)},
			wantID: "q-7",
		},
		{
			name:   "id from key",
			raw:    RawEvent{Key: []byte("key-1"), Value: []byte(`{"location":"Lyon, France","date":"07/14"}`)},
			wantID: "key-1",
		},
		{
			name:   "id from payload",
			raw:    RawEvent{Value: []byte(`{"location":"Lyon, France","date":"07/14"}`)},
			wantID: generateID([]byte(`{"location":"Lyon, France","date":"07/14"}`)),
		},
		{
			name:    "not json",
			raw:     RawEvent{Value: []byte(`not-json{{{`)},
			wantErr: true,
		},
		{
			name:    "unknown field",
			raw:     RawEvent{Value: []byte(`{"date":"07/14","treshold":3}`)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseRawEvent(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, q.ID)
			assert.Equal(t, "07/14", q.Date)
		})
	}
}

func TestParseRawEvent_Fields(t *testing.T) {
	raw := RawEvent{Value: []byte(`{
		"latitude": 45.76, "longitude": 4.84, "date": "02/29", "window_days": 5,
		"method": "parametric", "threshold": 2.5, "temperature_threshold": 28, "seed": 9
	}`)}

	q, err := ParseRawEvent(raw)
	require.NoError(t, err)
	require.NoError(t, q.Validate())
	require.True(t, q.HasCoordinates())
	assert.InDelta(t, 45.76, *q.Latitude, 0)
	assert.Equal(t, 5, q.WindowDays)
	assert.InDelta(t, 2.5, q.PrecipitationThreshold(), 0)
	require.NotNil(t, q.TemperatureThreshold)
	assert.Equal(t, uint64(9), q.Seed)
}

func TestGenerateID_Deterministic(t *testing.T) {
	a := generateID([]byte(`{"date":"01/01"}`))
	b := generateID([]byte(`{"date":"01/01"}`))
	c := generateID([]byte(`{"date":"01/02"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("query-")+16)
}

func TestSerializeReport(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	q := Query{ID: "q-1", Latitude: ptr(1), Longitude: ptr(2), Date: "07/01"}
	report := NewReport(q, Place{Latitude: 1, Longitude: 2, Source: "coordinates"}, 7, 1)

	out, err := SerializeReport(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("q-1"), out.Key)
	assert.Equal(t, "q-1", out.Headers[HeaderQueryID])
	assert.Equal(t, now.Format(time.RFC3339), out.Headers[HeaderGeneratedAt])

	var decoded Report
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, now, decoded.GeneratedAt)
	assert.Equal(t, 7, decoded.Month)
}

func TestSerializeReport_KeyFallsBackToReportID(t *testing.T) {
	report := Report{ID: "r-1"}
	out, err := SerializeReport(report)
	require.NoError(t, err)
	assert.Equal(t, []byte("r-1"), out.Key)
}
