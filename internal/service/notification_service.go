package service

import (
	"context"
	"time"

	"walletledger/internal/events"
	"walletledger/internal/ledger"
	"walletledger/internal/ws"

	"go.uber.org/zap"
)

// NotificationService fans committed ledger events out to live websocket clients and the event stream.
type NotificationService struct {
	hub       *ws.Hub
	publisher events.Publisher
	logger    *zap.Logger
}

func NewNotificationService(hub *ws.Hub, publisher events.Publisher, logger *zap.Logger) *NotificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &NotificationService{hub: hub, publisher: publisher, logger: logger}
}

type wsMessage struct {
	Type string       `json:"type"`
	Data ledger.Event `json:"data"`
}

func (s *NotificationService) Notify(ctx context.Context, ev ledger.Event) {
	if s.hub != nil {
		s.hub.BroadcastToOwner(ev.OwnerID, wsMessage{Type: ev.Type, Data: ev})
	}
	// The request may be finished by the time the writer flushes.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pctx, ev); err != nil {
		s.logger.Warn("ledger event not published",
			zap.String("type", ev.Type),
			zap.String("reference", ev.Reference),
			zap.Error(err))
	}
}

var _ ledger.Notifier = (*NotificationService)(nil)
