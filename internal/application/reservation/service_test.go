package reservation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memReservations struct{ rows map[string]*domain.Reservation }

func (m *memReservations) Put(_ context.Context, r *domain.Reservation) error {
	cp := *r
	m.rows[r.ReservationID] = &cp
	return nil
}
func (m *memReservations) Get(_ context.Context, id string) (*domain.Reservation, error) {
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, fmt.Errorf("reservation not found: %w", domain.ErrNotFound)
}
func (m *memReservations) ListByRenter(_ context.Context, renterID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range m.rows {
		if r.RenterID == renterID {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *memReservations) Update(_ context.Context, id string, updates map[string]interface{}) error {
	r, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("reservation not found: %w", domain.ErrNotFound)
	}
	if v, ok := updates["status"]; ok {
		r.Status = v.(string)
	}
	if v, ok := updates["start_date"]; ok {
		r.StartDate = v.(string)
	}
	if v, ok := updates["end_date"]; ok {
		r.EndDate = v.(string)
	}
	if v, ok := updates["deposit_paid"]; ok {
		r.DepositPaid = v.(bool)
	}
	return nil
}

type memRentals struct{ rows map[string]*domain.Rental }

func (m *memRentals) Put(_ context.Context, r *domain.Rental) error {
	cp := *r
	m.rows[r.RentalID] = &cp
	return nil
}
func (m *memRentals) Get(_ context.Context, id string) (*domain.Rental, error) {
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, fmt.Errorf("rental not found: %w", domain.ErrNotFound)
}
func (m *memRentals) Update(_ context.Context, id string, updates map[string]interface{}) error {
	r, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("rental not found: %w", domain.ErrNotFound)
	}
	if v, ok := updates["status"]; ok {
		r.Status = v.(string)
	}
	return nil
}

type stubVehicles struct{ rows map[string]*domain.Vehicle }

func (s stubVehicles) Get(_ context.Context, id string) (*domain.Vehicle, error) {
	if v, ok := s.rows[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("vehicle not found: %w", domain.ErrNotFound)
}

type recordingNotifier struct {
	events []domain.Event
	fail   bool
}

func (n *recordingNotifier) Process(_ context.Context, evt domain.Event) (*domain.Notification, error) {
	if n.fail {
		return nil, errors.New("notify failed")
	}
	n.events = append(n.events, evt)
	return &domain.Notification{}, nil
}

type fixture struct {
	svc      Service
	res      *memReservations
	rentals  *memRentals
	notifier *recordingNotifier
}

func newFixture() *fixture {
	res := &memReservations{rows: map[string]*domain.Reservation{}}
	rentals := &memRentals{rows: map[string]*domain.Rental{}}
	notifier := &recordingNotifier{}
	veh := stubVehicles{rows: map[string]*domain.Vehicle{
		"auto-1": {VehicleID: "auto-1", HostID: "host-1", Brand: "Toyota", Model: "Corolla", PricePerDay: 50},
	}}
	svc := NewService(ServiceDeps{
		ReservationRepo: res,
		RentalRepo:      rentals,
		VehicleRepo:     veh,
		Notifier:        notifier,
	})
	return &fixture{svc: svc, res: res, rentals: rentals, notifier: notifier}
}

func createValid(t *testing.T, fx *fixture) *domain.Reservation {
	t.Helper()
	res, err := fx.svc.Create(context.Background(), "renter-1", domain.CreateReservationRequest{
		VehicleID: "auto-1",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-04",
	})
	require.NoError(t, err)
	return res
}

// --- tests ---

func TestCreate_ComputesAmountAndState(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)

	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, "host-1", res.HostID)
	assert.Equal(t, float64(150), res.Amount) // 3 days * 50
	assert.Empty(t, fx.notifier.events, "creation alone raises no event")
}

func TestCreate_OwnVehicleRejected(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.Create(context.Background(), "host-1", domain.CreateReservationRequest{
		VehicleID: "auto-1",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-02",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestConfirm_OpensRentalAndNotifiesRenter(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)

	confirmed, err := fx.svc.Confirm(context.Background(), res.ReservationID, "host-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, confirmed.Status)

	require.Len(t, fx.rentals.rows, 1)
	for _, rental := range fx.rentals.rows {
		assert.Equal(t, domain.RentalActive, rental.Status)
		assert.Equal(t, res.ReservationID, rental.ReservationID)
	}

	require.Len(t, fx.notifier.events, 1)
	evt := fx.notifier.events[0]
	assert.Equal(t, "RESERVA_CONFIRMADA", evt.Type)
	assert.Equal(t, "renter-1", evt.UserID)
	require.NotNil(t, evt.EntityKind)
	assert.Equal(t, domain.EntityReservation, *evt.EntityKind)
	auto, ok := evt.Data["auto"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Toyota", auto["marca"])
}

func TestConfirm_OnlyHost(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)

	_, err := fx.svc.Confirm(context.Background(), res.ReservationID, "renter-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConfirm_AlreadyConfirmedConflicts(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)
	_, err := fx.svc.Confirm(context.Background(), res.ReservationID, "host-1")
	require.NoError(t, err)

	_, err = fx.svc.Confirm(context.Background(), res.ReservationID, "host-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancel_CarriesReason(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)

	cancelled, err := fx.svc.Cancel(context.Background(), res.ReservationID, "renter-1", "cambio de planes")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, cancelled.Status)

	require.Len(t, fx.notifier.events, 1)
	assert.Equal(t, "RESERVA_CANCELADA", fx.notifier.events[0].Type)
	assert.Equal(t, "cambio de planes", fx.notifier.events[0].Data["motivo"])
}

func TestPayDeposit_NotifiesBothParties(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)

	paid, err := fx.svc.PayDeposit(context.Background(), res.ReservationID, "renter-1")
	require.NoError(t, err)
	assert.True(t, paid.DepositPaid)

	require.Len(t, fx.notifier.events, 2)
	assert.Equal(t, "DEPOSITO_CONFIRMADO", fx.notifier.events[0].Type)
	assert.Equal(t, "renter-1", fx.notifier.events[0].UserID)
	assert.Equal(t, "DEPOSITO_RECIBIDO", fx.notifier.events[1].Type)
	assert.Equal(t, "host-1", fx.notifier.events[1].UserID)

	_, err = fx.svc.PayDeposit(context.Background(), res.ReservationID, "renter-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFinishRental_NotifiesRenter(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)
	_, err := fx.svc.Confirm(context.Background(), res.ReservationID, "host-1")
	require.NoError(t, err)

	var rentalID string
	for id := range fx.rentals.rows {
		rentalID = id
	}
	rental, err := fx.svc.FinishRental(context.Background(), rentalID, "host-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RentalFinished, rental.Status)

	last := fx.notifier.events[len(fx.notifier.events)-1]
	assert.Equal(t, "ALQUILER_FINALIZADO", last.Type)
	assert.Equal(t, "renter-1", last.UserID)
	require.NotNil(t, last.EntityKind)
	assert.Equal(t, domain.EntityRental, *last.EntityKind)
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	fx := newFixture()
	res := createValid(t, fx)
	fx.notifier.fail = true

	confirmed, err := fx.svc.Confirm(context.Background(), res.ReservationID, "host-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, confirmed.Status)
}
