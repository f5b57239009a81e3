package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Auction struct {
	ID            string
	OwnerID       string
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	EndsAt        time.Time
	Status        AuctionStatus
	WinnerID      string
	FinalPrice    *decimal.Decimal
	ClosedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AuctionStatus int

const (
	AuctionActive AuctionStatus = iota
	AuctionClosed
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionActive:
		return "active"
	case AuctionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Ended reports whether the auction deadline has passed at the given instant.
func (a *Auction) Ended(now time.Time) bool {
	return !a.EndsAt.After(now)
}

type Bid struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    decimal.Decimal
	PlacedAt  time.Time
}

// FinalizeResult describes the terminal state of an auction after a
// Finalize call. WinnerID and FinalPrice are zero/nil when the auction
// closed without bids.
type FinalizeResult struct {
	AuctionID  string
	Closed     bool
	WinnerID   string
	FinalPrice *decimal.Decimal
	ClosedAt   *time.Time
}

type SweepReport struct {
	ClosedCount int
	ErrorCount  int
}

type NotificationKind string

const (
	NotificationBidAccepted   NotificationKind = "bid_accepted"
	NotificationOutbid        NotificationKind = "outbid"
	NotificationNewBid        NotificationKind = "new_bid"
	NotificationAuctionWon    NotificationKind = "auction_won"
	NotificationAuctionLost   NotificationKind = "auction_lost"
	NotificationAuctionEnded  NotificationKind = "auction_ended"
	NotificationQuestionAsked NotificationKind = "question_asked"
	NotificationQuestionReply NotificationKind = "question_reply"
)

type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Message   string
	Read      bool
	CreatedAt time.Time
}

type WatchEntry struct {
	UserID    string
	AuctionID string
	CreatedAt time.Time
}

type Question struct {
	ID        string
	AuctionID string
	AskerID   string
	Text      string
	Reply     *Reply
	CreatedAt time.Time
}

type Reply struct {
	ID         string
	QuestionID string
	Text       string
	CreatedAt  time.Time
}

// AuctionEvent is the cross-instance pub/sub payload for bid and
// lifecycle events. Origin carries the publishing instance so subscribers
// can skip events they already delivered locally.
type AuctionEvent struct {
	Kind      NotificationKind `json:"kind"`
	AuctionID string           `json:"auction_id"`
	UserID    string           `json:"user_id,omitempty"`
	Amount    string           `json:"amount,omitempty"`
	Origin    string           `json:"origin,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
