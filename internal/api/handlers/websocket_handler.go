package handlers

import (
	"net/http"

	"auction-marketplace/internal/domain"
	ws "auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocketHandler upgrades auction watch requests and registers the
// connection for live bid and lifecycle events. New connections get the
// cached (price, status) snapshot as their first frame so clients render
// current state without an extra fetch.
type WebSocketHandler struct {
	connManager domain.ConnectionManager
	cache       domain.SnapshotCache
	upgrader    websocket.Upgrader
	log         logger.Logger
}

func NewWebSocketHandler(connManager domain.ConnectionManager, cache domain.SnapshotCache, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		connManager: connManager,
		cache:       cache,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks belong to the auth gateway in front of us.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	user := userID(c)
	auctionID := c.Param("id")
	if user == "" || auctionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user and auction are required"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "user_id", user, "auction_id", auctionID, "error", err)
		return err
	}

	wsConn := ws.NewConnection(conn, user, auctionID)
	if err := h.connManager.RegisterConnection(user, auctionID, wsConn); err != nil {
		wsConn.Close()
		return err
	}

	h.sendSnapshot(c, wsConn, auctionID)

	go h.readLoop(wsConn, conn, user, auctionID)
	return nil
}

func (h *WebSocketHandler) sendSnapshot(c echo.Context, wsConn *ws.Connection, auctionID string) {
	if h.cache == nil {
		return
	}
	price, status, ok, err := h.cache.GetSnapshot(c.Request().Context(), auctionID)
	if err != nil || !ok {
		if err != nil {
			h.log.Warn("Failed to read auction snapshot", "auction_id", auctionID, "error", err)
		}
		return
	}
	if err := wsConn.Send(map[string]interface{}{
		"type":          "snapshot",
		"auction_id":    auctionID,
		"current_price": price.StringFixed(2),
		"status":        status.String(),
	}); err != nil {
		h.log.Warn("Failed to send auction snapshot", "auction_id", auctionID, "error", err)
	}
}

// readLoop drains client frames until the connection drops, then cleans up
// the registration.
func (h *WebSocketHandler) readLoop(wsConn *ws.Connection, conn *websocket.Conn, user, auctionID string) {
	defer func() {
		h.connManager.UnregisterConnection(user, auctionID)
		wsConn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
