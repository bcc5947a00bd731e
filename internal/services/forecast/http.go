package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"StockPulse/internal/domain/models"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// BreakerSettings tunes the circuit breaker around model-service calls.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// HTTPProvider calls the external model service at POST <baseURL>/forecast.
type HTTPProvider struct {
	baseURL string
	client  *xhttp.Client
	retries int
	backoff time.Duration
	breaker *gobreaker.CircuitBreaker
	l       *applogger.Logger
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithClient overrides the HTTP client.
func WithClient(c *xhttp.Client) HTTPOption {
	return func(p *HTTPProvider) { p.client = c }
}

// WithRetries sets how many times a temporary failure is retried and the base backoff.
func WithRetries(n int, backoff time.Duration) HTTPOption {
	return func(p *HTTPProvider) {
		if n >= 0 {
			p.retries = n
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

// WithBreaker installs a circuit breaker with the given settings.
func WithBreaker(s BreakerSettings) HTTPOption {
	return func(p *HTTPProvider) { p.breaker = newBreaker(s) }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) HTTPOption {
	return func(p *HTTPProvider) { p.l = l }
}

// NewHTTPProvider creates a model-service adapter.
func NewHTTPProvider(baseURL string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: 2,
		backoff: 500 * time.Millisecond,
		l:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
	}
	if p.breaker == nil {
		p.breaker = newBreaker(BreakerSettings{})
	}
	p.l = p.l.Component("forecast-provider")
	return p
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:        "forecast-service",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
	}
	minReq := s.MinRequests
	if minReq == 0 {
		minReq = 5
	}
	ratio := s.FailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.Requests < minReq {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
	return gobreaker.NewCircuitBreaker(st)
}

// State returns the breaker state: "closed", "half-open" or "open".
func (p *HTTPProvider) State() string { return p.breaker.State().String() }

type historyPoint struct {
	DS string  `json:"ds"`
	Y  float64 `json:"y"`
}

type forecastRequest struct {
	Ticker  string         `json:"ticker"`
	History []historyPoint `json:"history"`
	Horizon int            `json:"horizon"`
}

type forecastPoint struct {
	DS        string  `json:"ds"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
}

type forecastResponse struct {
	Forecast []forecastPoint `json:"forecast"`
}

// Forecast implements service.ForecastProvider.
func (p *HTTPProvider) Forecast(ctx context.Context, ticker string, history models.TimeSeries, horizon int) (models.Forecast, error) {
	if horizon <= 0 {
		return models.Forecast{}, nil
	}
	req := forecastRequest{Ticker: ticker, Horizon: horizon, History: make([]historyPoint, len(history))}
	for i, pt := range history {
		req.History[i] = historyPoint{DS: pt.Time.UTC().Format(time.RFC3339), Y: pt.Value}
	}

	var (
		resp *forecastResponse
		err  error
	)
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			wait := p.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, err = p.call(ctx, &req)
		if err == nil || !retryable(err) {
			break
		}
		p.l.Warn("forecast request failed, retrying",
			applogger.String("ticker", ticker),
			applogger.Int("attempt", attempt+1),
			applogger.Error(err),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("forecast service: %w", err)
	}

	fc := make(models.Forecast, 0, len(resp.Forecast))
	for _, fp := range resp.Forecast {
		ts, ok := util.ParseTime(fp.DS)
		if !ok {
			continue
		}
		fc = append(fc, models.ForecastPoint{Time: ts.UTC(), Yhat: fp.Yhat, Lower: fp.YhatLower, Upper: fp.YhatUpper})
	}
	fc = Sanitize(fc)
	if len(fc) == 0 {
		return nil, ErrEmptyForecast
	}
	return fc, nil
}

func (p *HTTPProvider) call(ctx context.Context, req *forecastRequest) (*forecastResponse, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		var resp forecastResponse
		err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    p.baseURL + "/forecast",
			Body:   req,
		}, &resp)
		if err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*forecastResponse), nil
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
