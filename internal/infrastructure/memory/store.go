package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

// Store is a concurrency-safe in-memory implementation of the persistence
// interfaces. It backs tests and local development; the CAS semantics match
// the MySQL repositories (conditional update under the store lock).
type Store struct {
	mu            sync.RWMutex
	auctions      map[string]*domain.Auction
	bids          map[string][]*domain.Bid        // auctionID -> bids in insertion order
	watchlist     map[string]map[string]time.Time // userID -> auctionID -> added
	questions     map[string]*domain.Question
	notifications map[string][]*domain.Notification // userID -> notifications
}

func NewStore() *Store {
	return &Store{
		auctions:      make(map[string]*domain.Auction),
		bids:          make(map[string][]*domain.Bid),
		watchlist:     make(map[string]map[string]time.Time),
		questions:     make(map[string]*domain.Question),
		notifications: make(map[string][]*domain.Notification),
	}
}

func (s *Store) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *auction
	s.auctions[auction.ID] = &copied
	return nil
}

func (s *Store) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *auction
	return &copied, nil
}

func (s *Store) ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var auctions []*domain.Auction
	for _, a := range s.auctions {
		if filter.OwnerID != "" && a.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.Query != "" &&
			!strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter.Query)) &&
			!strings.Contains(strings.ToLower(a.Description), strings.ToLower(filter.Query)) {
			continue
		}
		copied := *a
		auctions = append(auctions, &copied)
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.After(auctions[j].CreatedAt)
	})
	return auctions, nil
}

func (s *Store) ListActivePastDeadline(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var overdue []*domain.Auction
	for _, a := range s.auctions {
		if a.Status == domain.AuctionActive && !a.EndsAt.After(now) {
			copied := *a
			overdue = append(overdue, &copied)
		}
	}
	return overdue, nil
}

func (s *Store) AppendBidIfCurrent(ctx context.Context, bid *domain.Bid, expected decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[bid.AuctionID]
	if !ok {
		return domain.ErrNotFound
	}
	if auction.Status != domain.AuctionActive || !auction.CurrentPrice.Equal(expected) {
		return domain.ErrConflict
	}

	auction.CurrentPrice = bid.Amount
	auction.UpdatedAt = bid.PlacedAt

	copied := *bid
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], &copied)
	return nil
}

func (s *Store) CloseIfActive(ctx context.Context, auctionID string, winnerID string, finalPrice *decimal.Decimal, expected decimal.Decimal, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return domain.ErrNotFound
	}
	if auction.Status != domain.AuctionActive || !auction.CurrentPrice.Equal(expected) {
		return domain.ErrConflict
	}

	auction.Status = domain.AuctionClosed
	auction.WinnerID = winnerID
	auction.FinalPrice = finalPrice
	at := closedAt
	auction.ClosedAt = &at
	auction.UpdatedAt = closedAt
	if finalPrice != nil {
		auction.CurrentPrice = *finalPrice
	}
	return nil
}

// ListBids returns bids sorted (amount desc, placedAt asc). Insertion order
// breaks exact placedAt ties, matching the acceptance order.
func (s *Store) ListBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := make([]*domain.Bid, 0, len(s.bids[auctionID]))
	for _, b := range s.bids[auctionID] {
		copied := *b
		bids = append(bids, &copied)
	}
	sort.SliceStable(bids, func(i, j int) bool {
		if !bids[i].Amount.Equal(bids[j].Amount) {
			return bids[i].Amount.GreaterThan(bids[j].Amount)
		}
		return bids[i].PlacedAt.Before(bids[j].PlacedAt)
	})
	return bids, nil
}

func (s *Store) ListBidders(ctx context.Context, auctionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var bidders []string
	for _, b := range s.bids[auctionID] {
		if !seen[b.BidderID] {
			seen[b.BidderID] = true
			bidders = append(bidders, b.BidderID)
		}
	}
	return bidders, nil
}

func (s *Store) ToggleWatch(ctx context.Context, userID, auctionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watchlist[userID] == nil {
		s.watchlist[userID] = make(map[string]time.Time)
	}
	if _, ok := s.watchlist[userID][auctionID]; ok {
		delete(s.watchlist[userID], auctionID)
		return false, nil
	}
	s.watchlist[userID][auctionID] = time.Now()
	return true, nil
}

func (s *Store) ListWatched(ctx context.Context, userID string) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var auctions []*domain.Auction
	for auctionID := range s.watchlist[userID] {
		if a, ok := s.auctions[auctionID]; ok {
			copied := *a
			auctions = append(auctions, &copied)
		}
	}
	return auctions, nil
}

func (s *Store) CountWatchers(ctx context.Context, auctionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, watched := range s.watchlist {
		if _, ok := watched[auctionID]; ok {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *q
	s.questions[q.ID] = &copied
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[questionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (s *Store) ListQuestions(ctx context.Context, auctionID string) ([]*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var questions []*domain.Question
	for _, q := range s.questions {
		if q.AuctionID == auctionID {
			copied := *q
			questions = append(questions, &copied)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].CreatedAt.Before(questions[j].CreatedAt)
	})
	return questions, nil
}

func (s *Store) SaveReply(ctx context.Context, reply *domain.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[reply.QuestionID]
	if !ok {
		return domain.ErrNotFound
	}
	copied := *reply
	q.Reply = &copied
	return nil
}

func (s *Store) SaveNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &copied)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notifications []*domain.Notification
	for _, n := range s.notifications[userID] {
		if unreadOnly && n.Read {
			continue
		}
		copied := *n
		notifications = append(notifications, &copied)
	}
	return notifications, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notificationID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}
