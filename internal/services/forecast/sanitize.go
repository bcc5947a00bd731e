// Package forecast holds ForecastProvider implementations: an adapter for the
// external model service and an offline linear-trend provider.
package forecast

import (
	"errors"
	"math"

	"StockPulse/internal/domain/models"
)

// ErrEmptyForecast is returned when a provider yields no usable points.
var ErrEmptyForecast = errors.New("forecast has no valid points")

// Sanitize drops points with non-finite values and reorders bounds so that
// Lower <= Yhat <= Upper holds for every point kept.
func Sanitize(fc models.Forecast) models.Forecast {
	out := make(models.Forecast, 0, len(fc))
	for _, p := range fc {
		if !finite(p.Yhat) || !finite(p.Lower) || !finite(p.Upper) || p.Time.IsZero() {
			continue
		}
		if p.Lower > p.Upper {
			p.Lower, p.Upper = p.Upper, p.Lower
		}
		if p.Yhat < p.Lower {
			p.Lower = p.Yhat
		}
		if p.Yhat > p.Upper {
			p.Upper = p.Yhat
		}
		out = append(out, p)
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
