package models

import (
	"fmt"
	"time"
)

// Point is a single observation of a time series.
type Point struct {
	Time  time.Time
	Value float64
}

// TimeSeries is an ordered sequence of observations with strictly increasing timestamps.
type TimeSeries []Point

// Values returns the raw values in order.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Times returns the timestamps in order.
func (s TimeSeries) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Last returns the most recent point.
func (s TimeSeries) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n points (or all of them when n exceeds the length).
func (s TimeSeries) Tail(n int) TimeSeries {
	if n <= 0 {
		return TimeSeries{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Validate checks that timestamps are strictly increasing.
func (s TimeSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("timestamps not strictly increasing at index %d", i)
		}
	}
	return nil
}

// NewTimeSeries zips timestamps and values. Extra entries of the longer slice are ignored.
func NewTimeSeries(times []time.Time, values []float64) TimeSeries {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	out := make(TimeSeries, n)
	for i := 0; i < n; i++ {
		out[i] = Point{Time: times[i], Value: values[i]}
	}
	return out
}

// ForecastPoint is one step of a model forecast with its uncertainty band.
// Invariant: Lower <= Yhat <= Upper.
type ForecastPoint struct {
	Time  time.Time
	Yhat  float64
	Lower float64
	Upper float64
}

// Forecast is an ordered sequence of forecast points.
type Forecast []ForecastPoint

// Yhat returns the point estimates.
func (f Forecast) Yhat() []float64 {
	out := make([]float64, len(f))
	for i, p := range f {
		out[i] = p.Yhat
	}
	return out
}

// Bounds returns the lower and upper bands.
func (f Forecast) Bounds() (lower, upper []float64) {
	lower = make([]float64, len(f))
	upper = make([]float64, len(f))
	for i, p := range f {
		lower[i] = p.Lower
		upper[i] = p.Upper
	}
	return lower, upper
}

// Head returns the first n points.
func (f Forecast) Head(n int) Forecast {
	if n >= len(f) {
		return f
	}
	if n <= 0 {
		return Forecast{}
	}
	return f[:n]
}

// Bar is an OHLCV record for one ticker and period.
type Bar struct {
	Ticker string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a live trade print received from a market stream.
type Quote struct {
	Ticker    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Closes extracts the close-price series from bars.
func Closes(bars []Bar) TimeSeries {
	out := make(TimeSeries, len(bars))
	for i, b := range bars {
		out[i] = Point{Time: b.Time, Value: b.Close}
	}
	return out
}
