package rating

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/redibo/rental-api/internal/pkg/id"
	"github.com/redibo/rental-api/internal/pkg/validate"
)

type Service interface {
	Create(ctx context.Context, raterID string, req domain.CreateRatingRequest) (*domain.Rating, error)
	Get(ctx context.Context, ratingID string) (*domain.Rating, error)
}

type ratingStore interface {
	Put(ctx context.Context, r *domain.Rating) error
	Get(ctx context.Context, ratingID string) (*domain.Rating, error)
}

type rentalStore interface {
	Get(ctx context.Context, rentalID string) (*domain.Rental, error)
}

type reservationStore interface {
	Get(ctx context.Context, reservationID string) (*domain.Reservation, error)
}

type vehicleStore interface {
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
}

type notifier interface {
	Process(ctx context.Context, evt domain.Event) (*domain.Notification, error)
}

type service struct {
	repo         ratingStore
	rentals      rentalStore
	reservations reservationStore
	vehicles     vehicleStore
	notifier     notifier
}

type ServiceDeps struct {
	RatingRepo      ratingStore
	RentalRepo      rentalStore
	ReservationRepo reservationStore
	VehicleRepo     vehicleStore
	Notifier        notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.RatingRepo,
		rentals:      deps.RentalRepo,
		reservations: deps.ReservationRepo,
		vehicles:     deps.VehicleRepo,
		notifier:     deps.Notifier,
	}
}

// Create stores a rating for a finished rental and notifies the rated
// party. When the renter is the rater the host additionally gets a
// vehicle-rated notification.
func (s *service) Create(ctx context.Context, raterID string, req domain.CreateRatingRequest) (*domain.Rating, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	rental, err := s.rentals.Get(ctx, req.RentalID)
	if err != nil {
		return nil, err
	}
	if rental.RenterID != raterID && rental.HostID != raterID {
		return nil, fmt.Errorf("rental belongs to another user: %w", domain.ErrForbidden)
	}
	if rental.Status != domain.RentalFinished {
		return nil, fmt.Errorf("rental not finished: %w", domain.ErrConflict)
	}

	ratedUserID := rental.HostID
	if raterID == rental.HostID {
		ratedUserID = rental.RenterID
	}

	r := &domain.Rating{
		RatingID:    id.New(),
		RentalID:    rental.RentalID,
		RaterID:     raterID,
		RatedUserID: ratedUserID,
		Score:       req.Score,
		Comment:     req.Comment,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}

	s.notify(ctx, domain.Event{
		Type:       "NUEVA_CALIFICACION",
		UserID:     ratedUserID,
		EntityID:   &r.RatingID,
		EntityKind: ptr(domain.EntityRating),
		Data: map[string]interface{}{
			"calificacion": r.Score,
			"comentario":   r.Comment,
		},
	})

	// A renter rating the rental also rates the host's vehicle.
	if raterID == rental.RenterID {
		data := map[string]interface{}{
			"calificacion": r.Score,
		}
		if res, err := s.reservations.Get(ctx, rental.ReservationID); err == nil {
			if v, err := s.vehicles.Get(ctx, res.VehicleID); err == nil {
				data["auto"] = map[string]interface{}{
					"marca":  v.Brand,
					"modelo": v.Model,
				}
			}
		}
		s.notify(ctx, domain.Event{
			Type:       "VEHICULO_CALIFICADO",
			UserID:     rental.HostID,
			EntityID:   &r.RatingID,
			EntityKind: ptr(domain.EntityRating),
			Data:       data,
		})
	}
	return r, nil
}

func (s *service) Get(ctx context.Context, ratingID string) (*domain.Rating, error) {
	return s.repo.Get(ctx, ratingID)
}

func (s *service) notify(ctx context.Context, evt domain.Event) {
	if _, err := s.notifier.Process(ctx, evt); err != nil {
		slog.Warn("rating: notification failed", "type", evt.Type, "user_id", evt.UserID, "err", err)
	}
}

func ptr(s string) *string {
	return &s
}
