package domain

import "time"

// Priority of a notification. Wire values match the original Redibo API.
type Priority string

const (
	PriorityLow    Priority = "BAJA"
	PriorityMedium Priority = "MEDIA"
	PriorityHigh   Priority = "ALTA"
)

// Valid reports whether p is one of the known priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Entity kinds a notification may weakly reference for image enrichment.
const (
	EntityReservation = "reserva"
	EntityRental      = "renta"
	EntityRating      = "calificacion"
)

type Notification struct {
	NotificationID string     `json:"id" dynamodbav:"notification_id"`
	UserID         string     `json:"idUsuario" dynamodbav:"user_id"`
	Title          string     `json:"titulo" dynamodbav:"title"`
	Message        string     `json:"mensaje" dynamodbav:"message"`
	Type           string     `json:"tipo" dynamodbav:"type"`
	Priority       Priority   `json:"prioridad" dynamodbav:"priority"`
	EntityID       *string    `json:"idEntidad" dynamodbav:"entity_id"`
	EntityKind     *string    `json:"tipoEntidad" dynamodbav:"entity_kind"`
	Read           bool       `json:"leido" dynamodbav:"read"`
	ReadAt         *time.Time `json:"leidoEn" dynamodbav:"read_at"`
	Deleted        bool       `json:"haSidoBorrada" dynamodbav:"deleted"`
	CreatedAt      time.Time  `json:"creadoEn" dynamodbav:"created_at"`
}

// CreateNotificationRequest is the persistable payload produced by the event adapter.
type CreateNotificationRequest struct {
	UserID     string   `json:"idUsuario" validate:"required"`
	Title      string   `json:"titulo" validate:"required"`
	Message    string   `json:"mensaje" validate:"required"`
	Type       string   `json:"tipo" validate:"required"`
	Priority   Priority `json:"prioridad"`
	EntityID   *string  `json:"idEntidad"`
	EntityKind *string  `json:"tipoEntidad"`
}

// NotificationFilter holds the optional criteria for listing notifications.
// Soft-deleted rows are always excluded regardless of the filter.
type NotificationFilter struct {
	UserID     string
	Type       string
	Priority   Priority
	EntityKind string
	Read       *bool
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Event describes something that happened elsewhere in the system and should
// become a notification. Consumed once by the event adapter; never persisted.
type Event struct {
	Type       string
	UserID     string
	EntityID   *string
	EntityKind *string
	Data       map[string]interface{}
	Priority   Priority // optional explicit override; wins over the template's own priority
}
