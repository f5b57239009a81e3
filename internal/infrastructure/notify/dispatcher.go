package notify

import (
	"context"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/google/uuid"
)

// Dispatcher is the NotificationDispatch implementation: it persists an
// in-app notification, pushes it to the user's live websocket connections,
// and publishes the event for other instances. Every step is best effort;
// delivery failures are logged and swallowed so they can never fail the
// bid or finalize path that triggered them.
type Dispatcher struct {
	store       domain.NotificationRepository
	connManager domain.ConnectionManager
	events      domain.EventPublisher
	instanceID  string
	log         logger.Logger
}

func NewDispatcher(
	store domain.NotificationRepository,
	connManager domain.ConnectionManager,
	events domain.EventPublisher,
	instanceID string,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:       store,
		connManager: connManager,
		events:      events,
		instanceID:  instanceID,
		log:         log,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, userID string, kind domain.NotificationKind, message string) {
	notification := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if d.store != nil {
		if err := d.store.SaveNotification(ctx, notification); err != nil {
			d.log.Warn("Failed to persist notification", "user_id", userID, "kind", kind, "error", err)
		}
	}

	if d.connManager != nil {
		payload := map[string]interface{}{
			"type":       string(kind),
			"message":    message,
			"created_at": notification.CreatedAt.Format(time.RFC3339),
		}
		if err := d.connManager.NotifyUser(userID, payload); err != nil {
			d.log.Warn("Failed to push notification", "user_id", userID, "kind", kind, "error", err)
		}
	}

	if d.events != nil {
		event := &domain.AuctionEvent{
			Kind:      kind,
			UserID:    userID,
			Origin:    d.instanceID,
			Timestamp: notification.CreatedAt,
		}
		if err := d.events.PublishAuctionEvent(ctx, event); err != nil {
			d.log.Warn("Failed to publish notification event", "user_id", userID, "kind", kind, "error", err)
		}
	}
}

// Announce pushes an auction-scoped event to the local watchers of that
// auction and publishes it for the other instances. The origin tag lets
// subscribers drop events their own dispatcher already delivered.
func (d *Dispatcher) Announce(ctx context.Context, event *domain.AuctionEvent) {
	event.Origin = d.instanceID

	if d.connManager != nil && event.AuctionID != "" {
		payload := map[string]interface{}{
			"type":       string(event.Kind),
			"auction_id": event.AuctionID,
			"amount":     event.Amount,
			"timestamp":  event.Timestamp.Format(time.RFC3339),
		}
		if err := d.connManager.BroadcastToAuction(event.AuctionID, payload); err != nil {
			d.log.Warn("Failed to broadcast auction event", "auction_id", event.AuctionID, "kind", event.Kind, "error", err)
		}
	}

	if d.events != nil {
		if err := d.events.PublishAuctionEvent(ctx, event); err != nil {
			d.log.Warn("Failed to publish auction event", "auction_id", event.AuctionID, "kind", event.Kind, "error", err)
		}
	}
}
