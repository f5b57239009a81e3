package memory

import (
	"context"
	"testing"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newAuction(id string) *domain.Auction {
	price := decimal.RequireFromString("10.00")
	return &domain.Auction{
		ID:            id,
		OwnerID:       "owner",
		Title:         "test item",
		StartingPrice: price,
		CurrentPrice:  price,
		EndsAt:        time.Now().Add(time.Hour),
		Status:        domain.AuctionActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestStore_AppendBidIfCurrentCAS(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1")))

	bid := &domain.Bid{
		ID: "b1", AuctionID: "a1", BidderID: "bidder1",
		Amount: decimal.RequireFromString("15.00"), PlacedAt: time.Now(),
	}
	require.NoError(t, store.AppendBidIfCurrent(ctx, bid, decimal.RequireFromString("10.00")))

	// Stale expected price loses the race.
	stale := &domain.Bid{
		ID: "b2", AuctionID: "a1", BidderID: "bidder2",
		Amount: decimal.RequireFromString("12.00"), PlacedAt: time.Now(),
	}
	err := store.AppendBidIfCurrent(ctx, stale, decimal.RequireFromString("10.00"))
	require.ErrorIs(t, err, domain.ErrConflict)

	auction, err := store.GetAuction(ctx, "a1")
	require.NoError(t, err)
	require.True(t, auction.CurrentPrice.Equal(decimal.RequireFromString("15.00")))

	bids, err := store.ListBids(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestStore_CloseIfActiveIsGuarded(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1")))

	price := decimal.RequireFromString("25.00")
	closedAt := time.Now()

	// A stale expected price never closes the auction.
	err := store.CloseIfActive(ctx, "a1", "winner1", &price, decimal.RequireFromString("99.00"), closedAt)
	require.ErrorIs(t, err, domain.ErrConflict)
	auction, err := store.GetAuction(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, domain.AuctionActive, auction.Status)

	require.NoError(t, store.CloseIfActive(ctx, "a1", "winner1", &price, decimal.RequireFromString("10.00"), closedAt))

	// A second close must observe the status guard.
	err = store.CloseIfActive(ctx, "a1", "winner2", nil, decimal.RequireFromString("25.00"), closedAt.Add(time.Minute))
	require.ErrorIs(t, err, domain.ErrConflict)

	auction, err = store.GetAuction(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, domain.AuctionClosed, auction.Status)
	require.Equal(t, "winner1", auction.WinnerID)
	require.True(t, auction.CurrentPrice.Equal(price))
	require.True(t, auction.ClosedAt.Equal(closedAt))
}

func TestStore_ListBidsOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1")))

	base := time.Now()
	amounts := []string{"15.00", "30.00", "30.00", "20.00"}
	expected := []string{"10.00", "15.00", "30.00", "30.00"}
	for i, raw := range amounts {
		bid := &domain.Bid{
			ID:        "b" + string(rune('1'+i)),
			AuctionID: "a1",
			BidderID:  "bidder" + string(rune('1'+i)),
			Amount:    decimal.RequireFromString(raw),
			PlacedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AppendBidIfCurrent(ctx, bid, decimal.RequireFromString(expected[i])))
	}

	bids, err := store.ListBids(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, bids, 4)

	// Highest first; the earlier of the two 30.00 bids leads.
	require.Equal(t, "b2", bids[0].ID)
	require.Equal(t, "b3", bids[1].ID)
	require.Equal(t, "b4", bids[2].ID)
	require.Equal(t, "b1", bids[3].ID)
}

func TestStore_UnknownAuction(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.GetAuction(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = store.CloseIfActive(ctx, "missing", "", nil, decimal.RequireFromString("10.00"), time.Now())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
