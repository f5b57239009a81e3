package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

const auctionColumns = `id, owner_id, title, description, starting_price, current_price,
        ends_at, status, winner_id, final_price, closed_at, created_at, updated_at`

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, owner_id, title, description, starting_price, current_price,
            ends_at, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		auction.ID, auction.OwnerID, auction.Title, auction.Description,
		auction.StartingPrice.String(), auction.CurrentPrice.String(),
		auction.EndsAt, int(auction.Status), auction.CreatedAt, auction.UpdatedAt)
	return wrapStorageErr(err)
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`

	auction, err := scanAuction(r.db.QueryRowContext(ctx, query, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return auction, nil
}

func (r *MySQLAuctionRepository) ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE 1=1`
	var args []interface{}

	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, int(*filter.Status))
	}
	if filter.Query != "" {
		query += ` AND (title LIKE ? OR description LIKE ?)`
		like := "%" + filter.Query + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryAuctions(ctx, query, args...)
}

func (r *MySQLAuctionRepository) ListActivePastDeadline(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? AND ends_at <= ?`
	return r.queryAuctions(ctx, query, int(domain.AuctionActive), now)
}

// AppendBidIfCurrent moves the price and records the bid in one transaction.
// The price move is a compare-and-swap on the stored current_price, so of two
// concurrent bids against the same price exactly one lands; the other gets
// ErrConflict and must re-validate against the new price.
func (r *MySQLAuctionRepository) AppendBidIfCurrent(ctx context.Context, bid *domain.Bid, expected decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorageErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE auctions SET current_price = ?, updated_at = ?
        WHERE id = ? AND status = ? AND current_price = ?
    `, bid.Amount.String(), bid.PlacedAt, bid.AuctionID, int(domain.AuctionActive), expected.String())
	if err != nil {
		return wrapStorageErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapStorageErr(err)
	}
	if affected == 0 {
		return fmt.Errorf("appending bid to auction %s: %w", bid.AuctionID, domain.ErrConflict)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
        VALUES (?, ?, ?, ?, ?)
    `, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount.String(), bid.PlacedAt)
	if err != nil {
		return wrapStorageErr(err)
	}

	return wrapStorageErr(tx.Commit())
}

// CloseIfActive is the guarded Active -> Closed transition. The WHERE
// clause checks both the status and the current price: concurrent closers
// race safely, and a bid whose CAS landed after the caller picked the
// winner moves the price and voids this write. Either way the loser's
// update matches zero rows and reports ErrConflict.
func (r *MySQLAuctionRepository) CloseIfActive(ctx context.Context, auctionID string, winnerID string, finalPrice *decimal.Decimal, expected decimal.Decimal, closedAt time.Time) error {
	var winner sql.NullString
	if winnerID != "" {
		winner = sql.NullString{String: winnerID, Valid: true}
	}
	var price sql.NullString
	query := `
        UPDATE auctions
        SET status = ?, winner_id = ?, final_price = ?, closed_at = ?, updated_at = ?,
            current_price = COALESCE(?, current_price)
        WHERE id = ? AND status = ? AND current_price = ?
    `
	if finalPrice != nil {
		price = sql.NullString{String: finalPrice.String(), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query,
		int(domain.AuctionClosed), winner, price, closedAt, closedAt, price,
		auctionID, int(domain.AuctionActive), expected.String())
	if err != nil {
		return wrapStorageErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapStorageErr(err)
	}
	if affected == 0 {
		return fmt.Errorf("closing auction %s: %w", auctionID, domain.ErrConflict)
	}
	return nil
}

func (r *MySQLAuctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, wrapStorageErr(err)
		}
		auctions = append(auctions, auction)
	}
	return auctions, wrapStorageErr(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	var status int
	var startingPrice, currentPrice string
	var winnerID, finalPrice sql.NullString
	var closedAt sql.NullTime

	err := row.Scan(
		&auction.ID, &auction.OwnerID, &auction.Title, &auction.Description,
		&startingPrice, &currentPrice, &auction.EndsAt, &status,
		&winnerID, &finalPrice, &closedAt, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	auction.StartingPrice, err = decimal.NewFromString(startingPrice)
	if err != nil {
		return nil, err
	}
	auction.CurrentPrice, err = decimal.NewFromString(currentPrice)
	if err != nil {
		return nil, err
	}
	if winnerID.Valid {
		auction.WinnerID = winnerID.String
	}
	if finalPrice.Valid {
		price, err := decimal.NewFromString(finalPrice.String)
		if err != nil {
			return nil, err
		}
		auction.FinalPrice = &price
	}
	if closedAt.Valid {
		t := closedAt.Time
		auction.ClosedAt = &t
	}
	return &auction, nil
}

// wrapStorageErr tags infrastructure failures as retryable. Business errors
// pass through untouched.
func wrapStorageErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
