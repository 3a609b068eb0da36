package notification

import (
	"testing"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, reg *TemplateRegistry, eventType string, data map[string]interface{}) Rendered {
	t.Helper()
	fn, ok := reg.Lookup(eventType)
	require.True(t, ok, "template %s not registered", eventType)
	return fn(data)
}

func TestBuiltinTemplates_AllRegistered(t *testing.T) {
	reg := NewTemplateRegistry()
	for _, typ := range []string{
		"RESERVA_CONFIRMADA", "RESERVA_CANCELADA", "RESERVA_MODIFICADA",
		"ALQUILER_FINALIZADO", "ALQUILER_CANCELADO",
		"VEHICULO_CALIFICADO", "NUEVA_CALIFICACION",
		"DEPOSITO_CONFIRMADO", "DEPOSITO_RECIBIDO",
		EventGeneric,
	} {
		_, ok := reg.Lookup(typ)
		assert.True(t, ok, typ)
	}
}

func TestReservaConfirmada(t *testing.T) {
	reg := NewTemplateRegistry()
	r := render(t, reg, "RESERVA_CONFIRMADA", map[string]interface{}{
		"auto":        map[string]interface{}{"marca": "Toyota", "modelo": "Corolla"},
		"fechaInicio": "2025-06-01",
	})
	assert.Equal(t, "Reserva Confirmada", r.Title)
	assert.Equal(t, "Tu reserva para el Toyota Corolla ha sido confirmada para el 2025-06-01", r.Message)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
}

func TestReservaConfirmada_MissingVehicleFallsBack(t *testing.T) {
	reg := NewTemplateRegistry()
	r := render(t, reg, "RESERVA_CONFIRMADA", map[string]interface{}{})
	assert.Contains(t, r.Message, "vehículo")
	assert.Contains(t, r.Message, "fecha programada")
}

func TestReservaCancelada_DefaultReason(t *testing.T) {
	reg := NewTemplateRegistry()
	r := render(t, reg, "RESERVA_CANCELADA", map[string]interface{}{
		"idReserva": "res-1",
	})
	assert.Equal(t, "Reserva Cancelada", r.Title)
	assert.Equal(t, "Tu reserva #res-1 ha sido cancelada. Contacta con soporte para más información.", r.Message)
	assert.Equal(t, domain.PriorityMedium, r.Priority)
}

func TestReservaCancelada_IDFallsBackToId(t *testing.T) {
	reg := NewTemplateRegistry()
	r := render(t, reg, "RESERVA_CANCELADA", map[string]interface{}{
		"id":     "res-2",
		"motivo": "El host no está disponible.",
	})
	assert.Contains(t, r.Message, "#res-2")
	assert.Contains(t, r.Message, "El host no está disponible.")
}

func TestAlquilerCancelado_ReasonVariants(t *testing.T) {
	reg := NewTemplateRegistry()

	withReason := render(t, reg, "ALQUILER_CANCELADO", map[string]interface{}{"motivo": "accidente"})
	assert.Equal(t, "Tu alquiler ha sido cancelado. Motivo: accidente", withReason.Message)
	assert.Equal(t, domain.PriorityHigh, withReason.Priority)

	withoutReason := render(t, reg, "ALQUILER_CANCELADO", map[string]interface{}{})
	assert.Equal(t, "Tu alquiler ha sido cancelado. Contacta con soporte para más detalles.", withoutReason.Message)
}

func TestNuevaCalificacion_CommentOptional(t *testing.T) {
	reg := NewTemplateRegistry()

	withComment := render(t, reg, "NUEVA_CALIFICACION", map[string]interface{}{
		"calificacion": 5,
		"comentario":   "Excelente",
	})
	assert.Equal(t, `Has recibido una nueva calificación de 5 estrellas. Comentario: "Excelente"`, withComment.Message)
	assert.Equal(t, domain.PriorityLow, withComment.Priority)

	withoutComment := render(t, reg, "NUEVA_CALIFICACION", map[string]interface{}{
		"puntuacion": 4,
	})
	assert.Equal(t, "Has recibido una nueva calificación de 4 estrellas.", withoutComment.Message)
}

func TestDeposito_JSONNumbersFormatClean(t *testing.T) {
	reg := NewTemplateRegistry()
	// json.Unmarshal delivers numbers as float64.
	r := render(t, reg, "DEPOSITO_CONFIRMADO", map[string]interface{}{
		"monto":     float64(150),
		"reservaId": "res-9",
	})
	assert.Equal(t, "Tu depósito de $150 ha sido confirmado para la reserva #res-9", r.Message)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
}

func TestGenerico_Defaults(t *testing.T) {
	reg := NewTemplateRegistry()
	r := render(t, reg, EventGeneric, map[string]interface{}{})
	assert.Equal(t, "Notificación", r.Title)
	assert.Equal(t, "Tienes una nueva notificación", r.Message)
	assert.Equal(t, domain.PriorityMedium, r.Priority)
}

func TestGenerico_DataOverrides(t *testing.T) {
	reg := NewTemplateRegistry()
	r := render(t, reg, EventGeneric, map[string]interface{}{
		"titulo":    "T",
		"mensaje":   "M",
		"prioridad": "ALTA",
	})
	assert.Equal(t, "T", r.Title)
	assert.Equal(t, "M", r.Message)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
}

func TestRegister_OverwritesAndExtends(t *testing.T) {
	reg := NewTemplateRegistry()
	reg.Register("PROMO_NUEVA", func(map[string]interface{}) Rendered {
		return Rendered{Title: "Promo", Message: "m", Priority: domain.PriorityLow}
	})
	r := render(t, reg, "PROMO_NUEVA", nil)
	assert.Equal(t, "Promo", r.Title)
	assert.Contains(t, reg.Types(), "PROMO_NUEVA")

	reg.Register("PROMO_NUEVA", func(map[string]interface{}) Rendered {
		return Rendered{Title: "Promo v2", Message: "m", Priority: domain.PriorityLow}
	})
	assert.Equal(t, "Promo v2", render(t, reg, "PROMO_NUEVA", nil).Title)
}
