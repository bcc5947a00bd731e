// Package sentiment provides SentimentProvider implementations. Scores are in [-1, 1].
package sentiment

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	xhttp "StockPulse/pkg/http"
	"StockPulse/pkg/util"
)

const (
	vaderWeight    = 0.7
	textblobWeight = 0.3
)

// Blend combines a VADER compound score and a TextBlob polarity into one score.
func Blend(vader, textblob float64) float64 {
	return util.Clamp(vader*vaderWeight+textblob*textblobWeight, -1, 1)
}

// HTTPProvider queries GET <baseURL>/sentiment?ticker=&date=.
type HTTPProvider struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPProvider creates a provider for the sentiment service.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type sentimentResponse struct {
	Sentiment *float64 `json:"sentiment"`
	Vader     *float64 `json:"vader"`
	TextBlob  *float64 `json:"textblob"`
}

// Sentiment implements service.SentimentProvider. When the service reports the
// VADER and TextBlob components they are blended; otherwise its combined score is used.
func (p *HTTPProvider) Sentiment(ctx context.Context, ticker string, date time.Time) (float64, error) {
	var resp sentimentResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/sentiment",
		QueryParams: map[string][]string{
			"ticker": {ticker},
			"date":   {util.FormatDate(date)},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("sentiment service: %w", err)
	}

	switch {
	case resp.Vader != nil && resp.TextBlob != nil:
		return Blend(*resp.Vader, *resp.TextBlob), nil
	case resp.Sentiment != nil:
		return util.Clamp(*resp.Sentiment, -1, 1), nil
	default:
		return 0, fmt.Errorf("sentiment service: no score for %s", ticker)
	}
}

// Deterministic derives a stable pseudo-score from the seed, ticker and date.
type Deterministic struct {
	Seed string
}

// NewDeterministic creates a Deterministic provider.
func NewDeterministic(seed string) *Deterministic {
	return &Deterministic{Seed: seed}
}

// Sentiment implements service.SentimentProvider.
func (d *Deterministic) Sentiment(_ context.Context, ticker string, date time.Time) (float64, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(d.Seed + "|" + util.NormalizeTicker(ticker) + "|" + util.FormatDate(date)))
	// map to [-1, 1] in steps of 0.001
	v := float64(h.Sum64()%2001)/1000 - 1
	return v, nil
}

// Static always returns the same score.
type Static float64

// Sentiment implements service.SentimentProvider.
func (s Static) Sentiment(context.Context, string, time.Time) (float64, error) {
	return util.Clamp(float64(s), -1, 1), nil
}
