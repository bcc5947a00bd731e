package signals

import (
	"fmt"
	"math"
	"sort"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

const minAlertPrices = 10

// GenerateAlerts evaluates rule-based alerts over recent prices, sentiment, and the
// forecast. sentiment may be nil when unavailable. Alerts are ordered HIGH, MEDIUM, LOW.
func GenerateAlerts(ticker string, prices, sentiment []float64, fc models.Forecast) models.AlertReport {
	rep := models.AlertReport{Ticker: ticker, Alerts: []models.Alert{}}
	n := len(prices)
	if n < minAlertPrices {
		return rep
	}

	current := prices[n-1]
	prev := prices[n-2]
	ma5 := util.Mean(prices[n-5:])
	ma10 := util.Mean(prices[n-10:])

	volatility := util.StdDev(prices[n-10:])
	avgVolatility := volatility
	if n >= 25 {
		var stds []float64
		for i := n - 20; i < n-5; i++ {
			stds = append(stds, util.StdDev(prices[i:i+5]))
		}
		avgVolatility = util.Mean(stds)
	}

	var dailyChange float64
	if prev > 0 {
		dailyChange = (current - prev) / prev * 100
	}

	var alerts []models.Alert

	switch {
	case current > ma5 && ma5 > ma10:
		alerts = append(alerts, models.Alert{
			Type:           "MA_CROSSOVER_BULLISH",
			Severity:       models.AlertHigh,
			Title:          "Bullish Moving Average Crossover",
			Message:        fmt.Sprintf("Price ($%.2f) is above both 5-day ($%.2f) and 10-day ($%.2f) moving averages", current, ma5, ma10),
			Recommendation: "Consider buying or holding long positions",
		})
	case current < ma5 && ma5 < ma10:
		alerts = append(alerts, models.Alert{
			Type:           "MA_CROSSOVER_BEARISH",
			Severity:       models.AlertHigh,
			Title:          "Bearish Moving Average Crossover",
			Message:        fmt.Sprintf("Price ($%.2f) is below both 5-day ($%.2f) and 10-day ($%.2f) moving averages", current, ma5, ma10),
			Recommendation: "Consider selling or avoiding new long positions",
		})
	}

	if avgVolatility > 0 && volatility > avgVolatility*1.5 {
		alerts = append(alerts, models.Alert{
			Type:           "VOLATILITY_SPIKE",
			Severity:       models.AlertMedium,
			Title:          "Volatility Spike Detected",
			Message:        fmt.Sprintf("Current volatility (%.2f) is %.0f%% above average (%.2f)", volatility, volatility/avgVolatility*100-100, avgVolatility),
			Recommendation: "Increased risk - consider reducing position size or setting tighter stop-losses",
		})
	}

	if math.Abs(dailyChange) > 3 {
		a := models.Alert{Type: "PRICE_MOVEMENT", Severity: models.AlertHigh}
		if dailyChange > 0 {
			a.Title = "Significant Price Surge"
			a.Message = fmt.Sprintf("%s has gained %.1f%% today", ticker, math.Abs(dailyChange))
			a.Recommendation = "Take profits or add to position"
		} else {
			a.Title = "Significant Price Drop"
			a.Message = fmt.Sprintf("%s has lost %.1f%% today", ticker, math.Abs(dailyChange))
			a.Recommendation = "Review stop-loss levels or consider averaging down"
		}
		alerts = append(alerts, a)
	}

	high, low := prices[n-10], prices[n-10]
	for _, p := range prices[n-10:] {
		high = math.Max(high, p)
		low = math.Min(low, p)
	}
	switch {
	case current >= high*0.99:
		alerts = append(alerts, models.Alert{
			Type:           "BREAKOUT_HIGH",
			Severity:       models.AlertMedium,
			Title:          "Near 10-Day High",
			Message:        fmt.Sprintf("%s is trading near its 10-day high of $%.2f", ticker, high),
			Recommendation: "Potential breakout - watch for confirmation with increased volume",
		})
	case current <= low*1.01:
		alerts = append(alerts, models.Alert{
			Type:           "BREAKOUT_LOW",
			Severity:       models.AlertMedium,
			Title:          "Near 10-Day Low",
			Message:        fmt.Sprintf("%s is trading near its 10-day low of $%.2f", ticker, low),
			Recommendation: "Potential support test - watch for bounce or breakdown",
		})
	}

	if len(sentiment) > 0 {
		cur := sentiment[len(sentiment)-1]
		avg := util.Mean(sentiment)
		switch {
		case cur > avg+0.2:
			alerts = append(alerts, models.Alert{
				Type:           "SENTIMENT_BULLISH",
				Severity:       models.AlertLow,
				Title:          "Positive Sentiment Shift",
				Message:        fmt.Sprintf("Sentiment score (%.2f) is above average (%.2f)", cur, avg),
				Recommendation: "Positive news flow may support prices",
			})
		case cur < avg-0.2:
			alerts = append(alerts, models.Alert{
				Type:           "SENTIMENT_BEARISH",
				Severity:       models.AlertLow,
				Title:          "Negative Sentiment Shift",
				Message:        fmt.Sprintf("Sentiment score (%.2f) is below average (%.2f)", cur, avg),
				Recommendation: "Negative news flow may pressure prices",
			})
		}
	}

	if len(fc) > 5 && current != 0 {
		predicted := fc[len(fc)-1].Yhat
		change := (predicted - current) / current * 100
		switch {
		case change > 5:
			alerts = append(alerts, models.Alert{
				Type:           "FORECAST_BULLISH",
				Severity:       models.AlertMedium,
				Title:          "Bullish Forecast",
				Message:        fmt.Sprintf("Model predicts %.1f%% upside to $%.2f", change, predicted),
				Recommendation: "Consider entering or adding to long positions",
			})
		case change < -5:
			alerts = append(alerts, models.Alert{
				Type:           "FORECAST_BEARISH",
				Severity:       models.AlertMedium,
				Title:          "Bearish Forecast",
				Message:        fmt.Sprintf("Model predicts %.1f%% downside to $%.2f", math.Abs(change), predicted),
				Recommendation: "Consider reducing exposure or hedging",
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
	for _, a := range alerts {
		switch a.Severity {
		case models.AlertHigh:
			rep.HighCount++
		case models.AlertMedium:
			rep.MediumCount++
		case models.AlertLow:
			rep.LowCount++
		}
	}
	if alerts != nil {
		rep.Alerts = alerts
	}
	return rep
}
