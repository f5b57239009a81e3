package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auction-marketplace/internal/domain"
)

type MySQLWatchlistRepository struct {
	db *sql.DB
}

func NewMySQLWatchlistRepository(db *sql.DB) *MySQLWatchlistRepository {
	return &MySQLWatchlistRepository{db: db}
}

func (r *MySQLWatchlistRepository) ToggleWatch(ctx context.Context, userID, auctionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE user_id = ? AND auction_id = ?`, userID, auctionID)
	if err != nil {
		return false, wrapStorageErr(err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorageErr(err)
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO watchlist (user_id, auction_id, created_at) VALUES (?, ?, ?)`,
		userID, auctionID, time.Now())
	if err != nil {
		return false, wrapStorageErr(err)
	}
	return true, nil
}

func (r *MySQLWatchlistRepository) ListWatched(ctx context.Context, userID string) ([]*domain.Auction, error) {
	query := `
        SELECT a.id, a.owner_id, a.title, a.description, a.starting_price, a.current_price,
            a.ends_at, a.status, a.winner_id, a.final_price, a.closed_at, a.created_at, a.updated_at
        FROM auctions a
        JOIN watchlist w ON w.auction_id = a.id
        WHERE w.user_id = ?
        ORDER BY w.created_at DESC
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
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

func (r *MySQLWatchlistRepository) CountWatchers(ctx context.Context, auctionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist WHERE auction_id = ?`, auctionID).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, wrapStorageErr(err)
	}
	return count, nil
}
