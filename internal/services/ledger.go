package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// placeBidAttempts bounds the re-validate loop after a lost price race.
	placeBidAttempts = 3
	// closeAttempts bounds winner re-selection when bids keep landing
	// between the winner read and the guarded close.
	closeAttempts = 3
	// storageAttempts bounds retries on transient storage failures.
	storageAttempts = 3
)

// AuctionLedger enforces the bid-acceptance and lifecycle rules for
// auctions: price moves only upward through accepted bids, and the
// Active -> Closed transition happens exactly once.
type AuctionLedger struct {
	auctions domain.AuctionRepository
	bids     domain.BidRepository
	cache    domain.SnapshotCache
	dispatch domain.NotificationDispatch
	log      logger.Logger
	now      func() time.Time
}

func NewAuctionLedger(
	auctions domain.AuctionRepository,
	bids domain.BidRepository,
	cache domain.SnapshotCache,
	dispatch domain.NotificationDispatch,
	log logger.Logger,
) *AuctionLedger {
	return &AuctionLedger{
		auctions: auctions,
		bids:     bids,
		cache:    cache,
		dispatch: dispatch,
		log:      log,
		now:      time.Now,
	}
}

type CreateAuctionParams struct {
	OwnerID       string
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	EndsAt        time.Time
}

func (l *AuctionLedger) CreateAuction(ctx context.Context, p CreateAuctionParams) (*domain.Auction, error) {
	if p.OwnerID == "" || p.Title == "" {
		return nil, fmt.Errorf("%w: owner and title are required", domain.ErrInvalidInput)
	}
	if !p.StartingPrice.IsPositive() {
		return nil, fmt.Errorf("%w: starting price must be positive", domain.ErrInvalidAmount)
	}
	now := l.now()
	if !p.EndsAt.After(now) {
		return nil, fmt.Errorf("%w: end time must be in the future", domain.ErrInvalidInput)
	}

	auction := &domain.Auction{
		ID:            uuid.NewString(),
		OwnerID:       p.OwnerID,
		Title:         p.Title,
		Description:   p.Description,
		StartingPrice: p.StartingPrice,
		CurrentPrice:  p.StartingPrice,
		EndsAt:        p.EndsAt,
		Status:        domain.AuctionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := l.withStorageRetry(ctx, func() error {
		return l.auctions.CreateAuction(ctx, auction)
	}); err != nil {
		return nil, err
	}

	l.updateSnapshot(ctx, auction)
	l.log.Info("Auction created", "auction_id", auction.ID, "owner_id", auction.OwnerID, "ends_at", auction.EndsAt)
	return auction, nil
}

// PlaceBid validates and records a bid. Preconditions are checked in order:
// the auction exists, is still open (an overdue auction is finalized first),
// the bidder is not the owner, the amount is positive, and the amount beats
// the current price. The price move and the bid append are one conditional
// write; losing that race triggers a bounded re-validate loop so a lower
// concurrent bid can never overwrite a higher one.
func (l *AuctionLedger) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, *domain.Auction, error) {
	if bidderID == "" {
		return nil, nil, fmt.Errorf("%w: bidder is required", domain.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt < placeBidAttempts; attempt++ {
		auction, err := l.getAuction(ctx, auctionID)
		if err != nil {
			return nil, nil, err
		}

		now := l.now()
		if auction.Status == domain.AuctionClosed {
			return nil, nil, domain.ErrAuctionEnded
		}
		if auction.Ended(now) {
			// Deadline passed before the bid arrived: close lazily, then reject.
			if _, err := l.Finalize(ctx, auctionID); err != nil && !errors.Is(err, domain.ErrConflict) {
				l.log.Warn("Lazy finalize during bid failed", "auction_id", auctionID, "error", err)
			}
			return nil, nil, domain.ErrAuctionEnded
		}
		if bidderID == auction.OwnerID {
			return nil, nil, domain.ErrSelfBid
		}
		if !amount.IsPositive() {
			return nil, nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
		}
		if amount.LessThanOrEqual(auction.CurrentPrice) {
			return nil, nil, fmt.Errorf("%w: must be greater than %s",
				domain.ErrBidTooLow, auction.CurrentPrice.StringFixed(2))
		}

		prevTop := l.topBidder(ctx, auctionID)

		bid := &domain.Bid{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			PlacedAt:  now,
		}

		err = l.withStorageRetry(ctx, func() error {
			return l.auctions.AppendBidIfCurrent(ctx, bid, auction.CurrentPrice)
		})
		if errors.Is(err, domain.ErrConflict) {
			// Price moved under us; re-read and re-validate.
			lastErr = err
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		auction.CurrentPrice = amount
		auction.UpdatedAt = now
		l.updateSnapshot(ctx, auction)

		l.notifyAsync(prevTop, domain.NotificationOutbid,
			fmt.Sprintf("You have been outbid on %q. The price is now %s.", auction.Title, amount.StringFixed(2)))
		l.notifyAsync(auction.OwnerID, domain.NotificationNewBid,
			fmt.Sprintf("New bid of %s on your auction %q.", amount.StringFixed(2), auction.Title))
		l.announceAsync(auctionID, domain.NotificationBidAccepted, amount.StringFixed(2))

		l.log.Info("Bid accepted", "auction_id", auctionID, "bidder_id", bidderID, "amount", amount.StringFixed(2))
		return bid, auction, nil
	}

	return nil, nil, fmt.Errorf("placing bid on auction %s: %w", auctionID, lastErr)
}

// Finalize closes an overdue auction exactly once and selects the winner as
// the highest bid, earliest placed among equal amounts. Already-closed and
// not-yet-overdue auctions are a no-op returning the current state.
func (l *AuctionLedger) Finalize(ctx context.Context, auctionID string) (*domain.FinalizeResult, error) {
	auction, err := l.getAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.Status == domain.AuctionClosed {
		return resultFromAuction(auction), nil
	}
	if !auction.Ended(l.now()) {
		return resultFromAuction(auction), nil
	}

	return l.close(ctx, auction)
}

// Close ends an auction early at the owner's request. The winner selection
// and the guarded transition are the same as Finalize's.
func (l *AuctionLedger) Close(ctx context.Context, auctionID, requesterID string) (*domain.FinalizeResult, error) {
	auction, err := l.getAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if requesterID != auction.OwnerID {
		return nil, fmt.Errorf("%w: only the owner can close an auction", domain.ErrForbidden)
	}
	if auction.Status == domain.AuctionClosed {
		return resultFromAuction(auction), nil
	}

	return l.close(ctx, auction)
}

// GetAuction returns the auction, finalizing it first when the deadline has
// passed so reads never observe an overdue auction as active.
func (l *AuctionLedger) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	auction, err := l.getAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.Status == domain.AuctionActive && auction.Ended(l.now()) {
		if _, err := l.Finalize(ctx, auctionID); err != nil {
			return nil, err
		}
		return l.getAuction(ctx, auctionID)
	}
	return auction, nil
}

func (l *AuctionLedger) ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*domain.Auction, error) {
	var auctions []*domain.Auction
	err := l.withStorageRetry(ctx, func() error {
		var err error
		auctions, err = l.auctions.ListAuctions(ctx, filter)
		return err
	})
	return auctions, err
}

func (l *AuctionLedger) ListBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if _, err := l.getAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return l.bids.ListBids(ctx, auctionID)
}

// close performs winner selection and the guarded Active -> Closed write.
// The write is conditional on the price observed when the winner was
// selected, so a bid accepted in between voids the stale closure; the loop
// then re-reads and re-selects. A concurrent closer winning the race is not
// an error: the already-closed state is re-read and returned.
func (l *AuctionLedger) close(ctx context.Context, auction *domain.Auction) (*domain.FinalizeResult, error) {
	for attempt := 0; attempt < closeAttempts; attempt++ {
		bids, err := l.bids.ListBids(ctx, auction.ID)
		if err != nil {
			return nil, err
		}

		closedAt := l.now()
		var winnerID string
		var finalPrice *decimal.Decimal
		if len(bids) > 0 {
			// Bids come back sorted (amount desc, placedAt asc); the head is
			// the winner under the earliest-wins tie-break.
			winnerID = bids[0].BidderID
			p := bids[0].Amount
			finalPrice = &p
		}

		err = l.withStorageRetry(ctx, func() error {
			return l.auctions.CloseIfActive(ctx, auction.ID, winnerID, finalPrice, auction.CurrentPrice, closedAt)
		})
		if errors.Is(err, domain.ErrConflict) {
			current, err := l.getAuction(ctx, auction.ID)
			if err != nil {
				return nil, err
			}
			if current.Status == domain.AuctionClosed {
				return resultFromAuction(current), nil
			}
			// A bid moved the price after the winner read. Select again
			// against the fresh state.
			auction = current
			continue
		}
		if err != nil {
			return nil, err
		}

		auction.Status = domain.AuctionClosed
		auction.ClosedAt = &closedAt
		auction.WinnerID = winnerID
		auction.FinalPrice = finalPrice
		if finalPrice != nil {
			auction.CurrentPrice = *finalPrice
		}
		l.updateSnapshot(ctx, auction)

		l.announceClosure(ctx, auction)

		var amount string
		if finalPrice != nil {
			amount = finalPrice.StringFixed(2)
		}
		l.announceAsync(auction.ID, domain.NotificationAuctionEnded, amount)

		l.log.Info("Auction closed", "auction_id", auction.ID, "winner_id", winnerID,
			"had_bids", len(bids) > 0)
		return resultFromAuction(auction), nil
	}

	return nil, fmt.Errorf("closing auction %s: %w", auction.ID, domain.ErrConflict)
}

func (l *AuctionLedger) announceClosure(ctx context.Context, auction *domain.Auction) {
	if auction.WinnerID == "" {
		l.notifyAsync(auction.OwnerID, domain.NotificationAuctionEnded,
			fmt.Sprintf("Your auction %q has ended with no bids.", auction.Title))
		return
	}

	price := auction.FinalPrice.StringFixed(2)
	l.notifyAsync(auction.WinnerID, domain.NotificationAuctionWon,
		fmt.Sprintf("Congratulations! You won the auction for %q with a bid of %s.", auction.Title, price))

	bidders, err := l.bids.ListBidders(ctx, auction.ID)
	if err != nil {
		l.log.Warn("Failed to list bidders for closure notices", "auction_id", auction.ID, "error", err)
	}
	for _, bidder := range bidders {
		if bidder != auction.WinnerID {
			l.notifyAsync(bidder, domain.NotificationAuctionLost,
				fmt.Sprintf("The auction %q has ended. The winning bid was %s.", auction.Title, price))
		}
	}
	l.notifyAsync(auction.OwnerID, domain.NotificationAuctionEnded,
		fmt.Sprintf("Your auction %q has ended. Winning bid: %s.", auction.Title, price))
}

func (l *AuctionLedger) getAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	var auction *domain.Auction
	err := l.withStorageRetry(ctx, func() error {
		var err error
		auction, err = l.auctions.GetAuction(ctx, auctionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return auction, nil
}

// topBidder returns the current highest bidder, or "" when there are no
// bids yet. Best effort: it only feeds the outbid notification.
func (l *AuctionLedger) topBidder(ctx context.Context, auctionID string) string {
	bids, err := l.bids.ListBids(ctx, auctionID)
	if err != nil || len(bids) == 0 {
		return ""
	}
	return bids[0].BidderID
}

func (l *AuctionLedger) notifyAsync(userID string, kind domain.NotificationKind, message string) {
	if userID == "" || l.dispatch == nil {
		return
	}
	go l.dispatch.Notify(context.Background(), userID, kind, message)
}

// announceAsync fans an auction-scoped event out to live watchers without
// blocking the caller.
func (l *AuctionLedger) announceAsync(auctionID string, kind domain.NotificationKind, amount string) {
	if l.dispatch == nil {
		return
	}
	event := &domain.AuctionEvent{
		Kind:      kind,
		AuctionID: auctionID,
		Amount:    amount,
		Timestamp: l.now(),
	}
	go l.dispatch.Announce(context.Background(), event)
}

func (l *AuctionLedger) updateSnapshot(ctx context.Context, auction *domain.Auction) {
	if l.cache == nil {
		return
	}
	if err := l.cache.SetSnapshot(ctx, auction); err != nil {
		l.log.Warn("Failed to update auction snapshot", "auction_id", auction.ID, "error", err)
	}
}

func (l *AuctionLedger) withStorageRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < storageAttempts; attempt++ {
		if err = fn(); !errors.Is(err, domain.ErrStorageUnavailable) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return err
}

func resultFromAuction(a *domain.Auction) *domain.FinalizeResult {
	return &domain.FinalizeResult{
		AuctionID:  a.ID,
		Closed:     a.Status == domain.AuctionClosed,
		WinnerID:   a.WinnerID,
		FinalPrice: a.FinalPrice,
		ClosedAt:   a.ClosedAt,
	}
}
