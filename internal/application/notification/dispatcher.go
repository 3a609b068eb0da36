package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redibo/rental-api/internal/domain"
)

// Live event names pushed over a user's event stream.
const (
	EventCreated = "NUEVA_NOTIFICACION"
	EventRead    = "NOTIFICACION_LEIDA"
	EventDeleted = "NOTIFICACION_ELIMINADA"
)

// pusher is the live delivery side. The SSE registry satisfies it.
type pusher interface {
	Dispatch(userID, event string, payload interface{})
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type phoneStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Dispatcher fans persisted notification state changes out to the user's
// live channels. All delivery is best-effort: a user without an open
// stream or a failing SMS provider never surfaces an error to the caller.
type Dispatcher struct {
	push  pusher
	sms   smsSender // nil disables the SMS channel
	users phoneStore
}

func NewDispatcher(push pusher, sms smsSender, users phoneStore) *Dispatcher {
	return &Dispatcher{push: push, sms: sms, users: users}
}

// Created pushes a freshly stored notification. High priority notifications
// additionally go out by SMS when the user has a confirmed phone number.
func (d *Dispatcher) Created(ctx context.Context, n *domain.Notification) {
	d.push.Dispatch(n.UserID, EventCreated, n)

	if d.sms == nil || n.Priority != domain.PriorityHigh {
		return
	}
	u, err := d.users.Get(ctx, n.UserID)
	if err != nil {
		slog.Warn("dispatcher: sms skipped, user lookup failed", "user_id", n.UserID, "err", err)
		return
	}
	if u.Phone == nil || !u.PhoneConfirmed {
		return
	}
	msg := fmt.Sprintf("%s: %s", n.Title, n.Message)
	if err := d.sms.SendSMS(ctx, *u.Phone, msg); err != nil {
		slog.Warn("dispatcher: sms send failed", "user_id", n.UserID, "err", err)
	}
}

// Read pushes the updated notification after it was marked as read.
func (d *Dispatcher) Read(n *domain.Notification) {
	d.push.Dispatch(n.UserID, EventRead, n)
}

// Deleted pushes a minimal payload identifying the removed notification.
func (d *Dispatcher) Deleted(userID, notificationID string) {
	d.push.Dispatch(userID, EventDeleted, map[string]string{"id": notificationID})
}
