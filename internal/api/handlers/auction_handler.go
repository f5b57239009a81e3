package handlers

import (
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	ledger *services.AuctionLedger
	log    logger.Logger
}

func NewAuctionHandler(ledger *services.AuctionLedger, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		ledger: ledger,
		log:    log,
	}
}

type CreateAuctionRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartingPrice string    `json:"starting_price"`
	EndsAt        time.Time `json:"ends_at"`
}

type AuctionResponse struct {
	AuctionID     string     `json:"auction_id"`
	OwnerID       string     `json:"owner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	StartingPrice string     `json:"starting_price"`
	CurrentPrice  string     `json:"current_price"`
	EndsAt        time.Time  `json:"ends_at"`
	Status        string     `json:"status"`
	WinnerID      string     `json:"winner_id,omitempty"`
	FinalPrice    string     `json:"final_price,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type BidResponse struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    string    `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}

type PlaceBidRequest struct {
	Amount string `json:"amount"`
}

func auctionResponse(a *domain.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:     a.ID,
		OwnerID:       a.OwnerID,
		Title:         a.Title,
		Description:   a.Description,
		StartingPrice: a.StartingPrice.StringFixed(2),
		CurrentPrice:  a.CurrentPrice.StringFixed(2),
		EndsAt:        a.EndsAt,
		Status:        a.Status.String(),
		WinnerID:      a.WinnerID,
		ClosedAt:      a.ClosedAt,
		CreatedAt:     a.CreatedAt,
	}
	if a.FinalPrice != nil {
		resp.FinalPrice = a.FinalPrice.StringFixed(2)
	}
	return resp
}

func bidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount.StringFixed(2),
		PlacedAt:  b.PlacedAt,
	}
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	owner := userID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	startingPrice, err := decimal.NewFromString(req.StartingPrice)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid starting price"})
	}

	auction, err := h.ledger.CreateAuction(c.Request().Context(), services.CreateAuctionParams{
		OwnerID:       owner,
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: startingPrice,
		EndsAt:        req.EndsAt,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, auctionResponse(auction))
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	filter := domain.AuctionFilter{
		OwnerID: c.QueryParam("owner_id"),
		Query:   c.QueryParam("q"),
	}
	if statusParam := c.QueryParam("status"); statusParam != "" {
		var status domain.AuctionStatus
		switch statusParam {
		case "active":
			status = domain.AuctionActive
		case "closed":
			status = domain.AuctionClosed
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown status"})
		}
		filter.Status = &status
	}

	auctions, err := h.ledger.ListAuctions(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		responses = append(responses, auctionResponse(a))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"auctions": responses})
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.ledger.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, auctionResponse(auction))
}

func (h *AuctionHandler) ListBids(c echo.Context) error {
	bids, err := h.ledger.ListBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		responses = append(responses, bidResponse(b))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"bids": responses})
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	bidder := userID(c)
	if bidder == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid bid amount"})
	}

	bid, auction, err := h.ledger.PlaceBid(c.Request().Context(), c.Param("id"), bidder, amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Bid placed successfully",
		"bid":     bidResponse(bid),
		"auction": auctionResponse(auction),
	})
}

func (h *AuctionHandler) CloseAuction(c echo.Context) error {
	requester := userID(c)
	if requester == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	result, err := h.ledger.Close(c.Request().Context(), c.Param("id"), requester)
	if err != nil {
		return respondError(c, err)
	}

	resp := map[string]interface{}{
		"auction_id": result.AuctionID,
		"closed":     result.Closed,
		"winner_id":  result.WinnerID,
	}
	if result.FinalPrice != nil {
		resp["final_price"] = result.FinalPrice.StringFixed(2)
	}
	return c.JSON(http.StatusOK, resp)
}
