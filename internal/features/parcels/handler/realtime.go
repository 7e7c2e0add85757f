package handler

import (
	"context"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/auth"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/pubsub"
	"parcel-tracker/internal/features/parcels/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const channelsKey = "ws_channels"

// Subscriber opens a real-time subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*pubsub.Subscription, error)
}

// ParcelViewer checks that a caller may follow a single parcel.
type ParcelViewer interface {
	Get(ctx context.Context, p identity.Principal, id string) (*domain.Parcel, error)
}

// RealtimeHandler streams parcel change events over websockets.
type RealtimeHandler struct {
	subscriber Subscriber
	viewer     ParcelViewer
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(s Subscriber, v ParcelViewer) *RealtimeHandler {
	return &RealtimeHandler{subscriber: s, viewer: v}
}

// Authorize runs before the upgrade. It picks the channels the caller may
// follow: one parcel when ?parcel= is given, otherwise everything in scope.
func (h *RealtimeHandler) Authorize(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return apperr.ErrUnauthorized
	}

	channels, err := h.channelsFor(c.UserContext(), p, c.Query("parcel"))
	if err != nil {
		return err
	}
	c.Locals(channelsKey, channels)
	return c.Next()
}

func (h *RealtimeHandler) channelsFor(ctx context.Context, p identity.Principal, parcelID string) ([]string, error) {
	if parcelID != "" {
		if _, err := h.viewer.Get(ctx, p, parcelID); err != nil {
			return nil, err
		}
		return []string{domain.ParcelChannel(parcelID)}, nil
	}
	switch p.Role {
	case identity.RoleAdmin:
		return []string{domain.AllParcelsChannel}, nil
	case identity.RoleCustomer:
		return []string{domain.CustomerChannel(p.ID)}, nil
	case identity.RoleAgent:
		return []string{domain.AgentChannel(p.ID)}, nil
	default:
		return nil, apperr.ErrForbidden
	}
}

// Stream forwards events to the socket until either side goes away.
func (h *RealtimeHandler) Stream(conn *websocket.Conn) {
	channels, _ := conn.Locals(channelsKey).([]string)
	l := logger.Get().With(zap.Strings("channels", channels))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := h.subscriber.Subscribe(ctx, channels...)
	if err != nil {
		l.Error("Realtime subscribe failed", zap.Error(err))
		_ = conn.WriteJSON(fiber.Map{"type": "error", "message": "Real-time updates unavailable"})
		return
	}
	defer sub.Close()

	// Reads only detect the client closing the socket.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	l.Debug("Realtime client connected")
	for {
		select {
		case <-ctx.Done():
			l.Debug("Realtime client disconnected")
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}
