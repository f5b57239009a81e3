package handlers

import (
	"errors"
	"net/http"

	"auction-marketplace/internal/domain"

	"github.com/labstack/echo/v4"
)

// userID pulls the authenticated user from the request. Authentication
// itself is handled upstream; the gateway injects the header.
func userID(c echo.Context) string {
	return c.Request().Header.Get("X-User-ID")
}

// respondError maps domain errors onto HTTP statuses. Conflict maps to 409
// so the client can silently re-validate and resubmit.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuctionEnded),
		errors.Is(err, domain.ErrSelfBid),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
