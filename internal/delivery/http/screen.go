package http

import (
	"net/http"

	"abyss-screener/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupScreen(base *echo.Group) {
	v1 := base.Group("/v1/screen")
	{
		v1.POST("", h.runScreen)
	}
}

func (h *HttpAPIHandler) runScreen(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.ScreenRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	summary, err := h.service.ScreenService.Screen(ctx, *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, summary)
}
