package notification

import (
	"context"
	"log/slog"

	"github.com/redibo/rental-api/internal/domain"
)

// Adapter is the single entry point other services use to emit
// notifications. It turns domain events into stored notifications by
// rendering the template registered for the event type.
type Adapter struct {
	templates *TemplateRegistry
	svc       Service
}

func NewAdapter(templates *TemplateRegistry, svc Service) *Adapter {
	return &Adapter{templates: templates, svc: svc}
}

// RegisterTemplate lets a producing service register its own event type.
func (a *Adapter) RegisterTemplate(eventType string, fn TemplateFunc) {
	a.templates.Register(eventType, fn)
}

// Process renders and persists a notification for evt. Unknown event types
// fall back to the generic template; an explicit priority on the event wins
// over whatever the template decides.
func (a *Adapter) Process(ctx context.Context, evt domain.Event) (*domain.Notification, error) {
	fn, ok := a.templates.Lookup(evt.Type)
	if !ok {
		slog.Warn("notification: no template for event type, using generic", "type", evt.Type)
		fn, _ = a.templates.Lookup(EventGeneric)
	}
	rendered := fn(evt.Data)

	prio := rendered.Priority
	if evt.Priority.Valid() {
		prio = evt.Priority
	}

	return a.svc.Create(ctx, domain.CreateNotificationRequest{
		UserID:     evt.UserID,
		Title:      rendered.Title,
		Message:    rendered.Message,
		Type:       evt.Type,
		Priority:   prio,
		EntityID:   evt.EntityID,
		EntityKind: evt.EntityKind,
	})
}
