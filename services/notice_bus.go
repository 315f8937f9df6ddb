package services

import (
	"context"
	"time"

	"backend/models"
)

// NoticeBus surfaces user-visible notices: realtime stream always, device
// push when a push service is wired in.
type NoticeBus struct {
	hub  *RealtimeHub
	push *PushService
}

func NewNoticeBus(hub *RealtimeHub, push *PushService) *NoticeBus {
	return &NoticeBus{hub: hub, push: push}
}

func (b *NoticeBus) Emit(ctx context.Context, userID, typ, message string) {
	n := models.Notice{Type: typ, Message: message, CreatedAt: time.Now().UTC()}

	b.hub.Publish(userID, Event{Kind: EventNotice, Payload: n})

	if b.push != nil {
		b.push.PushToUser(ctx, userID, "HealthMate", message, map[string]string{"type": typ})
	}
}
