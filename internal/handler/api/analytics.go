package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"StockPulse/internal/domain/models"
	svcmetrics "StockPulse/internal/service/metrics"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

type Forecaster interface {
	Forecast(ctx context.Context, ticker string, horizon int) (models.Forecast, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, ticker string, testSize int) (*models.Evaluation, error)
	Latest(ctx context.Context, ticker string) (*models.Evaluation, error)
}

type SignalsService interface {
	Signals(ctx context.Context, ticker string, horizon int) (*models.SignalReport, error)
	Risk(ctx context.Context, ticker string) (*models.RiskAssessment, error)
}

type Backtester interface {
	Backtest(ctx context.Context, ticker string, capital float64) (*models.BacktestResult, error)
}

type PortfolioService interface {
	Portfolio(ctx context.Context, tickers []string, weights []float64) (*models.PortfolioMetrics, error)
	Compare(ctx context.Context, tickers []string) (*models.StockComparison, error)
}

type SentimentService interface {
	Sentiment(ctx context.Context, ticker string, daysBack int) (*models.SentimentReport, error)
}

type DashboardService interface {
	Dashboard(ctx context.Context, ticker string, horizon int) (*models.Dashboard, error)
}

// AnalyticsHandler serves the forecast, evaluation, signal and portfolio endpoints.
type AnalyticsHandler struct {
	l          *applogger.Logger
	forecaster Forecaster
	evaluator  Evaluator
	signals    SignalsService
	backtester Backtester
	portfolio  PortfolioService
	dashboard  DashboardService
	sentiment  SentimentService
}

func NewAnalyticsHandler(
	l *applogger.Logger,
	forecaster Forecaster,
	evaluator Evaluator,
	signals SignalsService,
	backtester Backtester,
	portfolio PortfolioService,
	dashboard DashboardService,
	sentiment SentimentService,
) *AnalyticsHandler {
	svcmetrics.Register()
	return &AnalyticsHandler{
		l:          l.Component("analytics-api"),
		forecaster: forecaster,
		evaluator:  evaluator,
		signals:    signals,
		backtester: backtester,
		portfolio:  portfolio,
		dashboard:  dashboard,
		sentiment:  sentiment,
	}
}

func (h *AnalyticsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.GET("/evaluate", h.Evaluate)
	g.GET("/signals", h.Signals)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/backtest", h.Backtest)
	g.POST("/portfolio", h.Portfolio)
	g.GET("/compare", h.Compare)
	g.GET("/dashboard", h.Dashboard)
	g.POST("/sentiment", h.Sentiment)
	g.GET("/metrics/:ticker", h.Metrics)
}

// fail logs, counts and renders err for endpoint.
func (h *AnalyticsHandler) fail(c echo.Context, endpoint string, start time.Time, err error) error {
	svcmetrics.Observe(endpoint, start, err)
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.l.Error(endpoint+" failed", applogger.Error(err))
	} else {
		h.l.Debug(endpoint+" rejected", applogger.Int("status", appErr.Status), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *AnalyticsHandler) ok(c echo.Context, endpoint string, start time.Time, data interface{}) error {
	svcmetrics.Observe(endpoint, start, nil)
	return xhttp.SuccessResponse(c, data)
}

func (h *AnalyticsHandler) Forecast(c echo.Context) error {
	start := time.Now()
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	fc, err := h.forecaster.Forecast(c.Request().Context(), ticker, req.Horizon)
	if err != nil {
		return h.fail(c, "forecast", start, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return h.ok(c, "forecast", start, &forecastDTO{Ticker: ticker, Horizon: req.Horizon, Forecast: toForecastPoints(fc)})
}

func (h *AnalyticsHandler) Evaluate(c echo.Context) error {
	start := time.Now()
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ev, err := h.evaluator.Evaluate(c.Request().Context(), util.NormalizeTicker(req.Ticker), req.TestSize)
	if err != nil {
		return h.fail(c, "evaluate", start, err)
	}
	return h.ok(c, "evaluate", start, toEvaluation(ev))
}

func (h *AnalyticsHandler) Signals(c echo.Context) error {
	start := time.Now()
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, err := h.signals.Signals(c.Request().Context(), util.NormalizeTicker(req.Ticker), req.Horizon)
	if err != nil {
		return h.fail(c, "signals", start, err)
	}
	return h.ok(c, "signals", start, toSignalReport(rep))
}

func (h *AnalyticsHandler) Anomalies(c echo.Context) error {
	start := time.Now()
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	risk, err := h.signals.Risk(c.Request().Context(), util.NormalizeTicker(req.Ticker))
	if err != nil {
		return h.fail(c, "anomalies", start, err)
	}
	return h.ok(c, "anomalies", start, toRisk(risk))
}

func (h *AnalyticsHandler) Backtest(c echo.Context) error {
	start := time.Now()
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backtester.Backtest(c.Request().Context(), util.NormalizeTicker(req.Ticker), req.InitialCapital)
	if err != nil {
		return h.fail(c, "backtest", start, err)
	}
	return h.ok(c, "backtest", start, toBacktest(res))
}

func (h *AnalyticsHandler) Portfolio(c echo.Context) error {
	start := time.Now()
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tickers := make([]string, len(req.Tickers))
	for i, t := range req.Tickers {
		tickers[i] = util.NormalizeTicker(t)
	}

	m, err := h.portfolio.Portfolio(c.Request().Context(), tickers, req.Weights)
	if err != nil {
		return h.fail(c, "portfolio", start, err)
	}
	return h.ok(c, "portfolio", start, toPortfolio(m))
}

func (h *AnalyticsHandler) Compare(c echo.Context) error {
	start := time.Now()
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tickers := util.SplitTickers(req.Tickers)
	if len(tickers) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("no valid tickers provided").WithParam("tickers", req.Tickers))
	}

	cmp, err := h.portfolio.Compare(c.Request().Context(), tickers)
	if err != nil {
		return h.fail(c, "compare", start, err)
	}
	return h.ok(c, "compare", start, toComparison(cmp))
}

func (h *AnalyticsHandler) Dashboard(c echo.Context) error {
	start := time.Now()
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	d, err := h.dashboard.Dashboard(c.Request().Context(), util.NormalizeTicker(req.Ticker), req.Horizon)
	if err != nil {
		return h.fail(c, "dashboard", start, err)
	}
	return h.ok(c, "dashboard", start, toDashboard(d))
}

func (h *AnalyticsHandler) Sentiment(c echo.Context) error {
	start := time.Now()
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, err := h.sentiment.Sentiment(c.Request().Context(), util.NormalizeTicker(req.Ticker), req.DaysBack)
	if err != nil {
		return h.fail(c, "sentiment", start, err)
	}
	return h.ok(c, "sentiment", start, toSentiment(rep))
}

// Metrics returns the last persisted evaluation of a ticker.
func (h *AnalyticsHandler) Metrics(c echo.Context) error {
	start := time.Now()
	req := &models.MetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ev, err := h.evaluator.Latest(c.Request().Context(), util.NormalizeTicker(req.Ticker))
	if err != nil {
		return h.fail(c, "metrics", start, err)
	}
	return h.ok(c, "metrics", start, &storedMetricsDTO{
		Ticker:  ev.Ticker,
		Metrics: ev.Model,
		BestModel: bestModelDTO{
			RMSE:                ev.BestRMSE,
			DirectionalAccuracy: ev.BestDirectionalAccuracy,
			MAPE:                ev.LowestMAPE,
		},
		CachedAt: ev.EvaluatedAt,
	})
}
