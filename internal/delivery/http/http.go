package http

import (
	"context"

	"abyss-screener/internal/service"
	"abyss-screener/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api", middleware.NewRateLimiterMiddleware())
	h.SetupJobs(base)
	h.SetupScreen(base)
	h.SetupSignals(base)
	h.SetupBacktest(base)
}
