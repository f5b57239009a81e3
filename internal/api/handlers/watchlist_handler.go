package handlers

import (
	"net/http"

	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type WatchlistHandler struct {
	watchlist *services.WatchlistService
	log       logger.Logger
}

func NewWatchlistHandler(watchlist *services.WatchlistService, log logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlist: watchlist,
		log:       log,
	}
}

type ToggleWatchRequest struct {
	AuctionID string `json:"auction_id"`
}

func (h *WatchlistHandler) Toggle(c echo.Context) error {
	user := userID(c)
	if user == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req ToggleWatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	watching, err := h.watchlist.Toggle(c.Request().Context(), user, req.AuctionID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Watchlist updated",
		"watching": watching,
	})
}

func (h *WatchlistHandler) List(c echo.Context) error {
	user := userID(c)
	if user == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	auctions, err := h.watchlist.ListWatched(c.Request().Context(), user)
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		responses = append(responses, auctionResponse(a))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"auctions": responses})
}
