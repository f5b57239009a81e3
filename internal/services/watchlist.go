package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// WatchlistService lets users track auctions they are interested in.
type WatchlistService struct {
	watchlist domain.WatchlistRepository
	auctions  domain.AuctionRepository
	log       logger.Logger
}

func NewWatchlistService(watchlist domain.WatchlistRepository, auctions domain.AuctionRepository, log logger.Logger) *WatchlistService {
	return &WatchlistService{
		watchlist: watchlist,
		auctions:  auctions,
		log:       log,
	}
}

// Toggle flips the watch state for a user and reports whether the user is
// watching afterwards.
func (s *WatchlistService) Toggle(ctx context.Context, userID, auctionID string) (bool, error) {
	if userID == "" || auctionID == "" {
		return false, fmt.Errorf("%w: user and auction are required", domain.ErrInvalidInput)
	}
	if _, err := s.auctions.GetAuction(ctx, auctionID); err != nil {
		return false, err
	}

	watching, err := s.watchlist.ToggleWatch(ctx, userID, auctionID)
	if err != nil {
		return false, err
	}

	s.log.Debug("Watchlist updated", "user_id", userID, "auction_id", auctionID, "watching", watching)
	return watching, nil
}

func (s *WatchlistService) ListWatched(ctx context.Context, userID string) ([]*domain.Auction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	return s.watchlist.ListWatched(ctx, userID)
}

func (s *WatchlistService) CountWatchers(ctx context.Context, auctionID string) (int, error) {
	return s.watchlist.CountWatchers(ctx, auctionID)
}
