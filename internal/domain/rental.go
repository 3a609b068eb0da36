package domain

import "time"

// Rental states.
const (
	RentalActive    = "EN_CURSO"
	RentalFinished  = "FINALIZADO"
	RentalCancelled = "CANCELADO"
)

// Rental is the executed phase of a confirmed reservation.
type Rental struct {
	RentalID      string    `json:"id" dynamodbav:"rental_id"`
	ReservationID string    `json:"idReserva" dynamodbav:"reservation_id"`
	RenterID      string    `json:"idUsuario" dynamodbav:"renter_id"`
	HostID        string    `json:"idHost" dynamodbav:"host_id"`
	Status        string    `json:"estado" dynamodbav:"status"`
	CreatedAt     time.Time `json:"creadoEn" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"actualizadoEn" dynamodbav:"updated_at"`
}
