package services

import (
	"context"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ClosingSweeper finalizes every auction whose deadline has passed,
// independent of the read/write traffic hitting it. Failures are isolated
// per auction; only an enumeration failure aborts a sweep.
type ClosingSweeper struct {
	ledger   *AuctionLedger
	auctions domain.AuctionRepository
	leader   domain.LeaderElection
	instance string
	interval time.Duration
	cron     *cron.Cron
	log      logger.Logger
	now      func() time.Time
}

func NewClosingSweeper(
	ledger *AuctionLedger,
	auctions domain.AuctionRepository,
	leader domain.LeaderElection,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *ClosingSweeper {
	return &ClosingSweeper{
		ledger:   ledger,
		auctions: auctions,
		leader:   leader,
		instance: instanceID,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		log:      log,
		now:      time.Now,
	}
}

// Start schedules the sweep on a fixed interval. Sweeps are idempotent, so
// overlapping runs (or runs racing the lazy finalize paths) are safe; leader
// election just keeps redundant instances quiet.
func (s *ClosingSweeper) Start(ctx context.Context) error {
	s.log.Info("Starting closing sweeper", "interval", s.interval)

	_, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		if s.leader != nil {
			isLeader, err := s.leader.IsLeader(ctx, s.instance)
			if err != nil {
				s.log.Error("Leader check failed, skipping sweep", "error", err)
				return
			}
			if !isLeader {
				return
			}
		}

		report, err := s.Sweep(ctx)
		if err != nil {
			s.log.Error("Sweep failed", "error", err)
			return
		}
		if report.ClosedCount > 0 || report.ErrorCount > 0 {
			s.log.Info("Sweep finished", "closed", report.ClosedCount, "errors", report.ErrorCount)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ClosingSweeper) Stop() error {
	s.log.Info("Stopping closing sweeper")
	s.cron.Stop()
	return nil
}

// Sweep finalizes all overdue auctions once. A per-auction error is counted
// and logged but never stops the rest of the batch.
func (s *ClosingSweeper) Sweep(ctx context.Context) (domain.SweepReport, error) {
	var report domain.SweepReport

	overdue, err := s.auctions.ListActivePastDeadline(ctx, s.now())
	if err != nil {
		return report, err
	}

	for _, auction := range overdue {
		result, err := s.ledger.Finalize(ctx, auction.ID)
		if err != nil {
			report.ErrorCount++
			s.log.Error("Failed to finalize auction", "auction_id", auction.ID, "error", err)
			continue
		}
		if result.Closed {
			report.ClosedCount++
		}
	}

	return report, nil
}
