package services

import (
	"context"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// flakyAuctionRepo fails CloseIfActive for one chosen auction so a sweep
// has to skip it and carry on.
type flakyAuctionRepo struct {
	domain.AuctionRepository
	failID string
}

func (r *flakyAuctionRepo) CloseIfActive(ctx context.Context, auctionID string, winnerID string, finalPrice *decimal.Decimal, expected decimal.Decimal, closedAt time.Time) error {
	if auctionID == r.failID {
		return domain.ErrStorageUnavailable
	}
	return r.AuctionRepository.CloseIfActive(ctx, auctionID, winnerID, finalPrice, expected, closedAt)
}

// failingEnumRepo cannot enumerate overdue auctions at all.
type failingEnumRepo struct {
	domain.AuctionRepository
}

func (r *failingEnumRepo) ListActivePastDeadline(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	return nil, domain.ErrStorageUnavailable
}

func TestSweep_ClosesAllOverdueAuctions(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }

	overdue1 := seedAuction(t, store, "owner1", "10.00", base.Add(-time.Hour))
	overdue2 := seedAuction(t, store, "owner2", "20.00", base.Add(-time.Minute))
	future := seedAuction(t, store, "owner3", "30.00", base.Add(time.Hour))

	sweeper := NewClosingSweeper(ledger, store, nil, "test", time.Minute, logger.NewNop())
	sweeper.now = ledger.now

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.ClosedCount)
	require.Equal(t, 0, report.ErrorCount)

	for _, id := range []string{overdue1.ID, overdue2.ID} {
		auction, err := store.GetAuction(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionClosed, auction.Status)
	}

	still, err := store.GetAuction(context.Background(), future.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AuctionActive, still.Status)
}

func TestSweep_IsolatesPerAuctionFailures(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	broken := seedAuction(t, store, "owner1", "10.00", base.Add(-time.Hour))
	healthy := seedAuction(t, store, "owner2", "20.00", base.Add(-time.Hour))

	repo := &flakyAuctionRepo{AuctionRepository: store, failID: broken.ID}
	ledger := NewAuctionLedger(repo, store, nil, nil, logger.NewNop())
	ledger.now = func() time.Time { return base }

	sweeper := NewClosingSweeper(ledger, repo, nil, "test", time.Minute, logger.NewNop())
	sweeper.now = ledger.now

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.ClosedCount)
	require.Equal(t, 1, report.ErrorCount)

	auction, err := store.GetAuction(context.Background(), healthy.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AuctionClosed, auction.Status)
}

func TestSweep_EnumerationFailureReturnsError(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	sweeper := NewClosingSweeper(ledger, &failingEnumRepo{AuctionRepository: store}, nil, "test", time.Minute, logger.NewNop())

	_, err := sweeper.Sweep(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestSweep_RepeatedRunsAreIdempotent(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }
	auction := seedAuction(t, store, "owner", "10.00", base.Add(-time.Hour))

	sweeper := NewClosingSweeper(ledger, store, nil, "test", time.Minute, logger.NewNop())
	sweeper.now = ledger.now

	first, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.ClosedCount)

	closed, err := store.GetAuction(context.Background(), auction.ID)
	require.NoError(t, err)
	firstClosedAt := *closed.ClosedAt

	// The second run finds nothing overdue and changes nothing.
	second, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, second.ClosedCount)

	closed, err = store.GetAuction(context.Background(), auction.ID)
	require.NoError(t, err)
	require.True(t, firstClosedAt.Equal(*closed.ClosedAt))
}
