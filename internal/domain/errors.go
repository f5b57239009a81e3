package domain

import "errors"

// Business-rule errors. Callers match with errors.Is; messages carry the
// details (current price for ErrBidTooLow).
var (
	ErrNotFound      = errors.New("auction not found")
	ErrAuctionEnded  = errors.New("auction has ended")
	ErrSelfBid       = errors.New("cannot bid on your own auction")
	ErrInvalidAmount = errors.New("invalid bid amount")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrForbidden     = errors.New("operation not permitted")
	ErrInvalidInput  = errors.New("invalid input")
)

// Infrastructure errors.
var (
	// ErrConflict means a concurrent update won the race. PlaceBid retries
	// internally; it surfaces only after the retry budget is exhausted.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrStorageUnavailable is a transient storage failure, retryable by
	// the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
