package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/redibo/rental-api/internal/pkg/id"
	"github.com/redibo/rental-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus      = "status"
	fieldStartDate   = "start_date"
	fieldEndDate     = "end_date"
	fieldDepositPaid = "deposit_paid"
)

type CancelRequest struct {
	Reason string `json:"motivo"`
}

type Service interface {
	Create(ctx context.Context, renterID string, req domain.CreateReservationRequest) (*domain.Reservation, error)
	Get(ctx context.Context, reservationID, userID string) (*domain.Reservation, error)
	ListByRenter(ctx context.Context, renterID string) ([]domain.Reservation, error)
	Confirm(ctx context.Context, reservationID, hostID string) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID, reason string) (*domain.Reservation, error)
	Modify(ctx context.Context, reservationID, renterID string, req domain.ModifyReservationRequest) (*domain.Reservation, error)
	PayDeposit(ctx context.Context, reservationID, renterID string) (*domain.Reservation, error)
	FinishRental(ctx context.Context, rentalID, hostID string) (*domain.Rental, error)
	CancelRental(ctx context.Context, rentalID, userID, reason string) (*domain.Rental, error)
}

type reservationStore interface {
	Put(ctx context.Context, r *domain.Reservation) error
	Get(ctx context.Context, reservationID string) (*domain.Reservation, error)
	ListByRenter(ctx context.Context, renterID string) ([]domain.Reservation, error)
	Update(ctx context.Context, reservationID string, updates map[string]interface{}) error
}

type rentalStore interface {
	Put(ctx context.Context, r *domain.Rental) error
	Get(ctx context.Context, rentalID string) (*domain.Rental, error)
	Update(ctx context.Context, rentalID string, updates map[string]interface{}) error
}

type vehicleStore interface {
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
}

// notifier turns domain events into stored and pushed notifications.
// The notification adapter satisfies it.
type notifier interface {
	Process(ctx context.Context, evt domain.Event) (*domain.Notification, error)
}

type service struct {
	repo     reservationStore
	rentals  rentalStore
	vehicles vehicleStore
	notifier notifier
}

type ServiceDeps struct {
	ReservationRepo reservationStore
	RentalRepo      rentalStore
	VehicleRepo     vehicleStore
	Notifier        notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.ReservationRepo,
		rentals:  deps.RentalRepo,
		vehicles: deps.VehicleRepo,
		notifier: deps.Notifier,
	}
}

func (s *service) Create(ctx context.Context, renterID string, req domain.CreateReservationRequest) (*domain.Reservation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if req.EndDate < req.StartDate {
		return nil, fmt.Errorf("end date before start date: %w", domain.ErrBadRequest)
	}
	v, err := s.vehicles.Get(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if v.HostID == renterID {
		return nil, fmt.Errorf("cannot reserve own vehicle: %w", domain.ErrBadRequest)
	}

	days := daysBetween(req.StartDate, req.EndDate)
	now := time.Now().UTC()
	res := &domain.Reservation{
		ReservationID: id.New(),
		VehicleID:     v.VehicleID,
		RenterID:      renterID,
		HostID:        v.HostID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        domain.ReservationPending,
		Amount:        float64(days) * v.PricePerDay,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, reservationID, userID string) (*domain.Reservation, error) {
	res, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.RenterID != userID && res.HostID != userID {
		return nil, fmt.Errorf("reservation belongs to another user: %w", domain.ErrForbidden)
	}
	return res, nil
}

func (s *service) ListByRenter(ctx context.Context, renterID string) ([]domain.Reservation, error) {
	return s.repo.ListByRenter(ctx, renterID)
}

// Confirm moves the reservation to CONFIRMADA, opens the rental and
// notifies the renter.
func (s *service) Confirm(ctx context.Context, reservationID, hostID string) (*domain.Reservation, error) {
	res, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.HostID != hostID {
		return nil, fmt.Errorf("only the host can confirm: %w", domain.ErrForbidden)
	}
	if res.Status != domain.ReservationPending {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, domain.ErrConflict)
	}

	if err := s.repo.Update(ctx, reservationID, map[string]interface{}{
		fieldStatus: domain.ReservationConfirmed,
	}); err != nil {
		return nil, err
	}
	res.Status = domain.ReservationConfirmed

	now := time.Now().UTC()
	rental := &domain.Rental{
		RentalID:      id.New(),
		ReservationID: res.ReservationID,
		RenterID:      res.RenterID,
		HostID:        res.HostID,
		Status:        domain.RentalActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.rentals.Put(ctx, rental); err != nil {
		return nil, err
	}

	s.notify(ctx, domain.Event{
		Type:       "RESERVA_CONFIRMADA",
		UserID:     res.RenterID,
		EntityID:   &res.ReservationID,
		EntityKind: ptr(domain.EntityReservation),
		Data: map[string]interface{}{
			"auto":        s.vehicleData(ctx, res.VehicleID),
			"fechaInicio": res.StartDate,
		},
	})
	return res, nil
}

func (s *service) Cancel(ctx context.Context, reservationID, userID, reason string) (*domain.Reservation, error) {
	res, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.RenterID != userID && res.HostID != userID {
		return nil, fmt.Errorf("reservation belongs to another user: %w", domain.ErrForbidden)
	}
	if res.Status == domain.ReservationCancelled {
		return nil, fmt.Errorf("reservation already cancelled: %w", domain.ErrConflict)
	}

	if err := s.repo.Update(ctx, reservationID, map[string]interface{}{
		fieldStatus: domain.ReservationCancelled,
	}); err != nil {
		return nil, err
	}
	res.Status = domain.ReservationCancelled

	s.notify(ctx, domain.Event{
		Type:       "RESERVA_CANCELADA",
		UserID:     res.RenterID,
		EntityID:   &res.ReservationID,
		EntityKind: ptr(domain.EntityReservation),
		Data: map[string]interface{}{
			"idReserva": res.ReservationID,
			"motivo":    reason,
		},
	})
	return res, nil
}

func (s *service) Modify(ctx context.Context, reservationID, renterID string, req domain.ModifyReservationRequest) (*domain.Reservation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if req.EndDate < req.StartDate {
		return nil, fmt.Errorf("end date before start date: %w", domain.ErrBadRequest)
	}
	res, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.RenterID != renterID {
		return nil, fmt.Errorf("reservation belongs to another user: %w", domain.ErrForbidden)
	}
	if res.Status == domain.ReservationCancelled {
		return nil, fmt.Errorf("reservation is cancelled: %w", domain.ErrConflict)
	}

	v, err := s.vehicles.Get(ctx, res.VehicleID)
	if err != nil {
		return nil, err
	}
	days := daysBetween(req.StartDate, req.EndDate)
	if err := s.repo.Update(ctx, reservationID, map[string]interface{}{
		fieldStartDate: req.StartDate,
		fieldEndDate:   req.EndDate,
		"amount":       float64(days) * v.PricePerDay,
	}); err != nil {
		return nil, err
	}
	res.StartDate = req.StartDate
	res.EndDate = req.EndDate
	res.Amount = float64(days) * v.PricePerDay

	s.notify(ctx, domain.Event{
		Type:       "RESERVA_MODIFICADA",
		UserID:     res.RenterID,
		EntityID:   &res.ReservationID,
		EntityKind: ptr(domain.EntityReservation),
		Data: map[string]interface{}{
			"idReserva":   res.ReservationID,
			"fechaInicio": res.StartDate,
			"fechaFin":    res.EndDate,
		},
	})
	return res, nil
}

// PayDeposit marks the deposit as paid and notifies both parties.
func (s *service) PayDeposit(ctx context.Context, reservationID, renterID string) (*domain.Reservation, error) {
	res, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.RenterID != renterID {
		return nil, fmt.Errorf("reservation belongs to another user: %w", domain.ErrForbidden)
	}
	if res.DepositPaid {
		return nil, fmt.Errorf("deposit already paid: %w", domain.ErrConflict)
	}
	if err := s.repo.Update(ctx, reservationID, map[string]interface{}{
		fieldDepositPaid: true,
	}); err != nil {
		return nil, err
	}
	res.DepositPaid = true

	data := map[string]interface{}{
		"monto":     res.Amount,
		"reservaId": res.ReservationID,
	}
	s.notify(ctx, domain.Event{
		Type:       "DEPOSITO_CONFIRMADO",
		UserID:     res.RenterID,
		EntityID:   &res.ReservationID,
		EntityKind: ptr(domain.EntityReservation),
		Data:       data,
	})
	s.notify(ctx, domain.Event{
		Type:       "DEPOSITO_RECIBIDO",
		UserID:     res.HostID,
		EntityID:   &res.ReservationID,
		EntityKind: ptr(domain.EntityReservation),
		Data:       data,
	})
	return res, nil
}

func (s *service) FinishRental(ctx context.Context, rentalID, hostID string) (*domain.Rental, error) {
	rental, err := s.rentals.Get(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.HostID != hostID {
		return nil, fmt.Errorf("only the host can finish a rental: %w", domain.ErrForbidden)
	}
	if rental.Status != domain.RentalActive {
		return nil, fmt.Errorf("rental is %s: %w", rental.Status, domain.ErrConflict)
	}
	if err := s.rentals.Update(ctx, rentalID, map[string]interface{}{
		fieldStatus: domain.RentalFinished,
	}); err != nil {
		return nil, err
	}
	rental.Status = domain.RentalFinished

	data := map[string]interface{}{}
	if res, err := s.repo.Get(ctx, rental.ReservationID); err == nil {
		data["auto"] = s.vehicleData(ctx, res.VehicleID)
	}
	s.notify(ctx, domain.Event{
		Type:       "ALQUILER_FINALIZADO",
		UserID:     rental.RenterID,
		EntityID:   &rental.RentalID,
		EntityKind: ptr(domain.EntityRental),
		Data:       data,
	})
	return rental, nil
}

func (s *service) CancelRental(ctx context.Context, rentalID, userID, reason string) (*domain.Rental, error) {
	rental, err := s.rentals.Get(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.RenterID != userID && rental.HostID != userID {
		return nil, fmt.Errorf("rental belongs to another user: %w", domain.ErrForbidden)
	}
	if rental.Status != domain.RentalActive {
		return nil, fmt.Errorf("rental is %s: %w", rental.Status, domain.ErrConflict)
	}
	if err := s.rentals.Update(ctx, rentalID, map[string]interface{}{
		fieldStatus: domain.RentalCancelled,
	}); err != nil {
		return nil, err
	}
	rental.Status = domain.RentalCancelled

	s.notify(ctx, domain.Event{
		Type:       "ALQUILER_CANCELADO",
		UserID:     rental.RenterID,
		EntityID:   &rental.RentalID,
		EntityKind: ptr(domain.EntityRental),
		Data: map[string]interface{}{
			"motivo": reason,
		},
	})
	return rental, nil
}

// notify is best-effort: a notification failure never fails the booking
// operation that triggered it.
func (s *service) notify(ctx context.Context, evt domain.Event) {
	if _, err := s.notifier.Process(ctx, evt); err != nil {
		slog.Warn("reservation: notification failed", "type", evt.Type, "user_id", evt.UserID, "err", err)
	}
}

// vehicleData returns the template payload for the reservation's vehicle.
// Missing vehicles degrade to the template's own fallbacks.
func (s *service) vehicleData(ctx context.Context, vehicleID string) map[string]interface{} {
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil
	}
	return map[string]interface{}{
		"marca":  v.Brand,
		"modelo": v.Model,
	}
}

func daysBetween(start, end string) int {
	s, err1 := time.Parse("2006-01-02", start)
	e, err2 := time.Parse("2006-01-02", end)
	if err1 != nil || err2 != nil {
		return 1
	}
	days := int(e.Sub(s).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

func ptr(s string) *string {
	return &s
}
