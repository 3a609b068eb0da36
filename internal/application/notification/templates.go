package notification

import (
	"fmt"
	"sync"

	"github.com/redibo/rental-api/internal/domain"
)

// Rendered is the title, message and priority produced by a template
// for a given event payload.
type Rendered struct {
	Title    string
	Message  string
	Priority domain.Priority
}

// TemplateFunc renders a notification from an event's data payload.
type TemplateFunc func(data map[string]interface{}) Rendered

// EventGeneric is the fallback template applied to unknown event types.
const EventGeneric = "NOTIFICACION_GENERICA"

// TemplateRegistry maps event types to template functions. Services may
// register additional templates at startup; lookups are safe for
// concurrent use.
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates map[string]TemplateFunc
}

func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{templates: make(map[string]TemplateFunc)}
	r.registerBuiltins()
	return r
}

// Register adds or replaces the template for an event type.
func (r *TemplateRegistry) Register(eventType string, fn TemplateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[eventType] = fn
}

// Lookup returns the template for an event type, if one is registered.
func (r *TemplateRegistry) Lookup(eventType string) (TemplateFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.templates[eventType]
	return fn, ok
}

// Types returns the registered event types.
func (r *TemplateRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.templates))
	for t := range r.templates {
		types = append(types, t)
	}
	return types
}

func (r *TemplateRegistry) registerBuiltins() {
	r.templates["RESERVA_CONFIRMADA"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Reserva Confirmada",
			Message: fmt.Sprintf("Tu reserva para el %s %s ha sido confirmada para el %s",
				nested(data, "auto", "marca", "vehículo"),
				nested(data, "auto", "modelo", ""),
				str(data, "fechaInicio", "fecha programada")),
			Priority: domain.PriorityHigh,
		}
	}

	r.templates["RESERVA_CANCELADA"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Reserva Cancelada",
			Message: fmt.Sprintf("Tu reserva #%s ha sido cancelada. %s",
				firstStr(data, "idReserva", "id"),
				str(data, "motivo", "Contacta con soporte para más información.")),
			Priority: domain.PriorityMedium,
		}
	}

	r.templates["RESERVA_MODIFICADA"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Reserva Modificada",
			Message: fmt.Sprintf("Tu reserva #%s ha sido modificada. Nuevas fechas: %s - %s",
				firstStr(data, "idReserva", "id"),
				str(data, "fechaInicio", ""),
				str(data, "fechaFin", "")),
			Priority: domain.PriorityMedium,
		}
	}

	r.templates["ALQUILER_FINALIZADO"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Alquiler Finalizado",
			Message: fmt.Sprintf("Tu alquiler del %s %s ha finalizado exitosamente. ¡Gracias por usar nuestro servicio!",
				nested(data, "auto", "marca", "vehículo"),
				nested(data, "auto", "modelo", "")),
			Priority: domain.PriorityMedium,
		}
	}

	r.templates["ALQUILER_CANCELADO"] = func(data map[string]interface{}) Rendered {
		msg := "Tu alquiler ha sido cancelado. Contacta con soporte para más detalles."
		if motivo := str(data, "motivo", ""); motivo != "" {
			msg = fmt.Sprintf("Tu alquiler ha sido cancelado. Motivo: %s", motivo)
		}
		return Rendered{
			Title:    "Alquiler Cancelado",
			Message:  msg,
			Priority: domain.PriorityHigh,
		}
	}

	r.templates["VEHICULO_CALIFICADO"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Vehículo Calificado",
			Message: fmt.Sprintf("Tu vehículo %s %s ha sido calificado con %s estrellas",
				nested(data, "auto", "marca", ""),
				nested(data, "auto", "modelo", ""),
				firstStr(data, "calificacion", "puntuacion")),
			Priority: domain.PriorityLow,
		}
	}

	r.templates["NUEVA_CALIFICACION"] = func(data map[string]interface{}) Rendered {
		msg := fmt.Sprintf("Has recibido una nueva calificación de %s estrellas.",
			firstStr(data, "calificacion", "puntuacion"))
		if comentario := str(data, "comentario", ""); comentario != "" {
			msg = fmt.Sprintf("%s Comentario: %q", msg, comentario)
		}
		return Rendered{
			Title:    "Nueva Calificación Recibida",
			Message:  msg,
			Priority: domain.PriorityLow,
		}
	}

	r.templates["DEPOSITO_CONFIRMADO"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Depósito Confirmado",
			Message: fmt.Sprintf("Tu depósito de $%s ha sido confirmado para la reserva #%s",
				firstStr(data, "monto", "cantidad"),
				firstStr(data, "reservaId", "idReserva")),
			Priority: domain.PriorityHigh,
		}
	}

	r.templates["DEPOSITO_RECIBIDO"] = func(data map[string]interface{}) Rendered {
		return Rendered{
			Title: "Depósito Recibido",
			Message: fmt.Sprintf("Has recibido un depósito de $%s por la reserva #%s",
				firstStr(data, "monto", "cantidad"),
				firstStr(data, "reservaId", "idReserva")),
			Priority: domain.PriorityMedium,
		}
	}

	r.templates[EventGeneric] = func(data map[string]interface{}) Rendered {
		prio := domain.Priority(str(data, "prioridad", ""))
		if !prio.Valid() {
			prio = domain.PriorityMedium
		}
		return Rendered{
			Title:    str(data, "titulo", "Notificación"),
			Message:  str(data, "mensaje", "Tienes una nueva notificación"),
			Priority: prio,
		}
	}
}

// str returns data[key] as a string, or fallback when absent or empty.
func str(data map[string]interface{}, key, fallback string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return fallback
	}
	s := asString(v)
	if s == "" {
		return fallback
	}
	return s
}

// firstStr returns the first non-empty value among the given keys.
func firstStr(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := str(data, k, ""); s != "" {
			return s
		}
	}
	return ""
}

// nested returns data[outer][inner] as a string, or fallback when any
// hop is missing.
func nested(data map[string]interface{}, outer, inner, fallback string) string {
	v, ok := data[outer]
	if !ok {
		return fallback
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return fallback
	}
	return str(m, inner, fallback)
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integers unpadded.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
