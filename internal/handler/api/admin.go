package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"StockPulse/internal/domain/models"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/tickers"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

type TickerRegistry interface {
	List() []string
	Add(ctx context.Context, ticker string) (string, error)
	Remove(ctx context.Context, ticker string) (string, error)
	Replace(ctx context.Context, tickers []string) ([]string, error)
}

type ResultCache interface {
	Status(ctx context.Context) (*svccache.Status, error)
	Clear(ctx context.Context, kind svccache.Kind) error
}

// AdminHandler manages the monitored ticker list and the result cache.
type AdminHandler struct {
	l        *applogger.Logger
	registry TickerRegistry
	cache    ResultCache
}

// NewAdminHandler creates the handler. cache may be nil when result caching is off.
func NewAdminHandler(l *applogger.Logger, registry TickerRegistry, cache ResultCache) *AdminHandler {
	return &AdminHandler{l: l.Component("admin-api"), registry: registry, cache: cache}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/tickers", h.ListTickers)
	g.POST("/tickers", h.AddTicker)
	g.PUT("/tickers", h.ReplaceTickers)
	g.DELETE("/tickers/:ticker", h.RemoveTicker)
	g.GET("/cache/status", h.CacheStatus)
	g.DELETE("/cache", h.ClearCache)
}

func (h *AdminHandler) tickers(msg string) *tickersDTO {
	list := h.registry.List()
	return &tickersDTO{Message: msg, MonitoredTickers: list, Count: len(list)}
}

func (h *AdminHandler) ListTickers(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.tickers(""))
}

func (h *AdminHandler) AddTicker(c echo.Context) error {
	req := &models.AddTickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.registry.Add(c.Request().Context(), req.Ticker)
	if errors.Is(err, tickers.ErrExists) {
		return xhttp.SuccessResponse(c, h.tickers(fmt.Sprintf("%s is already being monitored", util.NormalizeTicker(req.Ticker))))
	}
	if err != nil {
		return h.fail(c, err)
	}
	h.l.Info("ticker added", applogger.String("ticker", t))
	return xhttp.CreatedResponse(c, h.tickers(fmt.Sprintf("Added %s to monitored list", t)))
}

func (h *AdminHandler) RemoveTicker(c echo.Context) error {
	req := &models.RemoveTickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.registry.Remove(c.Request().Context(), req.Ticker)
	if err != nil {
		return h.fail(c, err)
	}
	h.l.Info("ticker removed", applogger.String("ticker", t))
	return xhttp.SuccessResponse(c, h.tickers(fmt.Sprintf("Removed %s from monitored list", t)))
}

func (h *AdminHandler) ReplaceTickers(c echo.Context) error {
	req := &models.ReplaceTickersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	old := h.registry.List()
	next, err := h.registry.Replace(c.Request().Context(), req.Tickers)
	if err != nil {
		return h.fail(c, err)
	}
	h.l.Info("monitored tickers replaced", applogger.Strings("old", old), applogger.Strings("new", next))
	return xhttp.SuccessResponse(c, &replaceTickersDTO{
		Message:    "Monitored ticker list updated",
		OldTickers: old,
		NewTickers: next,
	})
}

func (h *AdminHandler) CacheStatus(c echo.Context) error {
	if h.cache == nil {
		return xhttp.SuccessResponse(c, &cacheStatusDTO{Backend: "none", Entries: map[string]int{}})
	}
	st, err := h.cache.Status(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, toCacheStatus(st))
}

func (h *AdminHandler) ClearCache(c echo.Context) error {
	req := &models.ClearCacheRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.cache == nil {
		return xhttp.SuccessResponse(c, map[string]string{"message": "Cache disabled"})
	}
	if err := h.cache.Clear(c.Request().Context(), svccache.Kind(req.Kind)); err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"message": "Cache cleared successfully"})
}

func (h *AdminHandler) fail(c echo.Context, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.l.Error("admin request failed", applogger.String("path", c.Path()), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
