package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionFilter narrows ListAuctions results. Zero value lists everything.
type AuctionFilter struct {
	OwnerID string
	Status  *AuctionStatus
	Query   string
}

// Repository interfaces
type AuctionRepository interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	ListAuctions(ctx context.Context, filter AuctionFilter) ([]*Auction, error)
	ListActivePastDeadline(ctx context.Context, now time.Time) ([]*Auction, error)

	// AppendBidIfCurrent atomically appends the bid and moves the auction
	// price to bid.Amount, but only if the stored price still equals
	// expected and the auction is still active. Returns ErrConflict when
	// another writer got there first; the caller re-reads and re-validates.
	AppendBidIfCurrent(ctx context.Context, bid *Bid, expected decimal.Decimal) error

	// CloseIfActive performs the guarded Active -> Closed transition.
	// The write lands only if the auction is still active AND the stored
	// price still equals expected, so a bid accepted after the caller
	// selected the winner can never be overwritten by a stale closure.
	// winnerID/finalPrice may be empty/nil for a no-bid closure. Returns
	// ErrConflict when either guard fails; the caller re-reads and
	// re-selects.
	CloseIfActive(ctx context.Context, auctionID string, winnerID string, finalPrice *decimal.Decimal, expected decimal.Decimal, closedAt time.Time) error
}

type BidRepository interface {
	// ListBids returns the auction's bids sorted by (amount desc, placedAt asc).
	ListBids(ctx context.Context, auctionID string) ([]*Bid, error)
	// ListBidders returns the distinct bidder IDs for an auction.
	ListBidders(ctx context.Context, auctionID string) ([]string, error)
}

type WatchlistRepository interface {
	// ToggleWatch flips the watch state and reports the new state.
	ToggleWatch(ctx context.Context, userID, auctionID string) (watching bool, err error)
	ListWatched(ctx context.Context, userID string) ([]*Auction, error)
	CountWatchers(ctx context.Context, auctionID string) (int, error)
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *Question) error
	GetQuestion(ctx context.Context, questionID string) (*Question, error)
	ListQuestions(ctx context.Context, auctionID string) ([]*Question, error)
	SaveReply(ctx context.Context, reply *Reply) error
}

type NotificationRepository interface {
	SaveNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// NotificationDispatch delivers notifications. Fire-and-forget:
// implementations log and swallow delivery failures, never propagating them
// to the bid/finalize path. Notify targets one user; Announce fans an
// auction-scoped event out to everyone watching the auction, locally and on
// other instances.
type NotificationDispatch interface {
	Notify(ctx context.Context, userID string, kind NotificationKind, message string)
	Announce(ctx context.Context, event *AuctionEvent)
}

// Cache interfaces
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, auction *Auction) error
	GetSnapshot(ctx context.Context, auctionID string) (price decimal.Decimal, status AuctionStatus, ok bool, err error)
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventHandler func(event *AuctionEvent) error

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, auctionID string, conn WebSocketConnection) error
	UnregisterConnection(userID, auctionID string) error
	NotifyUser(userID string, message interface{}) error
	BroadcastToAuction(auctionID string, message interface{}) error
}
