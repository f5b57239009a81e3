package mysql

import (
	"context"
	"database/sql"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

// ListBids returns bids sorted highest first, earliest first among equal
// amounts. The winner of a closed auction is always the head of this order.
func (r *MySQLBidRepository) ListBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, placed_at
        FROM bids
        WHERE auction_id = ?
        ORDER BY amount DESC, placed_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		var amount string

		err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &amount, &bid.PlacedAt)
		if err != nil {
			return nil, wrapStorageErr(err)
		}
		bid.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, wrapStorageErr(err)
		}
		bids = append(bids, &bid)
	}

	return bids, wrapStorageErr(rows.Err())
}

func (r *MySQLBidRepository) ListBidders(ctx context.Context, auctionID string) ([]string, error) {
	query := `SELECT DISTINCT bidder_id FROM bids WHERE auction_id = ?`

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	defer rows.Close()

	var bidders []string
	for rows.Next() {
		var bidder string
		if err := rows.Scan(&bidder); err != nil {
			return nil, wrapStorageErr(err)
		}
		bidders = append(bidders, bidder)
	}

	return bidders, wrapStorageErr(rows.Err())
}
