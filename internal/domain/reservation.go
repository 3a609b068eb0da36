package domain

import "time"

// Reservation states. Wire values match the original API.
const (
	ReservationPending   = "PENDIENTE"
	ReservationConfirmed = "CONFIRMADA"
	ReservationCancelled = "CANCELADA"
)

type Reservation struct {
	ReservationID string    `json:"idReserva" dynamodbav:"reservation_id"`
	VehicleID     string    `json:"idAuto" dynamodbav:"vehicle_id"`
	RenterID      string    `json:"idUsuario" dynamodbav:"renter_id"`
	HostID        string    `json:"idHost" dynamodbav:"host_id"`
	StartDate     string    `json:"fechaInicio" dynamodbav:"start_date"` // YYYY-MM-DD
	EndDate       string    `json:"fechaFin" dynamodbav:"end_date"`
	Status        string    `json:"estado" dynamodbav:"status"`
	Amount        float64   `json:"monto" dynamodbav:"amount"`
	DepositPaid   bool      `json:"depositoPagado" dynamodbav:"deposit_paid"`
	CreatedAt     time.Time `json:"creadoEn" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"actualizadoEn" dynamodbav:"updated_at"`
}

type CreateReservationRequest struct {
	VehicleID string `json:"idAuto" validate:"required"`
	StartDate string `json:"fechaInicio" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"fechaFin" validate:"required,datetime=2006-01-02"`
}

type ModifyReservationRequest struct {
	StartDate string `json:"fechaInicio" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"fechaFin" validate:"required,datetime=2006-01-02"`
}
