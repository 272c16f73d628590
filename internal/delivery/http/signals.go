package http

import (
	"net/http"
	"strings"

	"abyss-screener/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSignals(base *echo.Group) {
	v1 := base.Group("/v1/signals")
	{
		v1.GET("", h.listSignals)
	}
}

func (h *HttpAPIHandler) listSignals(c echo.Context) error {
	ctx := c.Request().Context()

	var states []string
	if raw := c.QueryParam("states"); raw != "" {
		for _, state := range strings.Split(raw, ",") {
			state = strings.ToUpper(strings.TrimSpace(state))
			if state != "" {
				states = append(states, state)
			}
		}
	}

	signals, err := h.service.TelegramBotService.LatestSignals(ctx, states)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get signals"})
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", signals))
}
