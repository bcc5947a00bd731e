package api

import (
	"errors"

	"github.com/sony/gobreaker"

	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/tickers"
	"StockPulse/internal/services/backtest"
	"StockPulse/internal/services/evaluation"
	"StockPulse/internal/services/forecast"
	"StockPulse/internal/services/portfolio"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
)

// toAppError maps domain errors to HTTP errors. Unknown errors become 500.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrNoData), errors.Is(err, usecase.ErrNoEvaluation), errors.Is(err, tickers.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrStaleEvaluation):
		return xhttp.GoneError(err.Error()).WithError(err)
	case errors.Is(err, portfolio.ErrInvalidConfiguration),
		errors.Is(err, tickers.ErrInvalidTicker),
		errors.Is(err, tickers.ErrLastTicker),
		errors.Is(err, tickers.ErrEmptyList),
		errors.Is(err, svccache.ErrUnknownKind):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrInsufficientHistory),
		errors.Is(err, backtest.ErrInsufficientData),
		errors.Is(err, portfolio.ErrInsufficientData),
		errors.Is(err, evaluation.ErrDimensionMismatch),
		errors.Is(err, forecast.ErrEmptyForecast):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return xhttp.ServiceUnavailableError("forecast service unavailable").WithError(err)
	}
	return xhttp.InternalError("internal error").WithError(err)
}
