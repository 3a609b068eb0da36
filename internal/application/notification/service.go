package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/redibo/rental-api/internal/pkg/id"
	"github.com/redibo/rental-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldRead    = "read"
	fieldReadAt  = "read_at"
	fieldDeleted = "deleted"
)

const defaultPageSize = 10

// Enriched is a notification decorated with the image of the vehicle its
// referenced entity resolves to, or null when no image can be resolved.
type Enriched struct {
	domain.Notification
	VehicleImage *string `json:"imagenAuto"`
}

// ListResult is one page of a user's notification feed.
type ListResult struct {
	Notifications []Enriched `json:"notificaciones"`
	Total         int        `json:"total"`
	Page          int        `json:"page"`
	Limit         int        `json:"limit"`
}

type Service interface {
	Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error)
	List(ctx context.Context, f domain.NotificationFilter) (*ListResult, error)
	GetDetail(ctx context.Context, notificationID, userID string) (*Enriched, error)
	MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	SoftDelete(ctx context.Context, notificationID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	Dropdown(ctx context.Context, userID string, limit int) ([]Enriched, bool, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	Update(ctx context.Context, notificationID string, updates map[string]interface{}) error
	QueryByUser(ctx context.Context, userID string, f domain.NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type reservationStore interface {
	Get(ctx context.Context, reservationID string) (*domain.Reservation, error)
}

type rentalStore interface {
	Get(ctx context.Context, rentalID string) (*domain.Rental, error)
}

type ratingStore interface {
	Get(ctx context.Context, ratingID string) (*domain.Rating, error)
}

type vehicleStore interface {
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
}

type service struct {
	repo         notificationStore
	reservations reservationStore
	rentals      rentalStore
	ratings      ratingStore
	vehicles     vehicleStore
	dispatcher   *Dispatcher
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	ReservationRepo  reservationStore
	RentalRepo       rentalStore
	RatingRepo       ratingStore
	VehicleRepo      vehicleStore
	Dispatcher       *Dispatcher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.NotificationRepo,
		reservations: deps.ReservationRepo,
		rentals:      deps.RentalRepo,
		ratings:      deps.RatingRepo,
		vehicles:     deps.VehicleRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// Create stores the notification and pushes it to the user's live channels.
// Push failures never fail the create.
func (s *service) Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	prio := req.Priority
	if !prio.Valid() {
		prio = domain.PriorityMedium
	}

	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         req.UserID,
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		Priority:       prio,
		EntityID:       req.EntityID,
		EntityKind:     req.EntityKind,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}

	s.dispatcher.Created(ctx, n)
	return n, nil
}

func (s *service) List(ctx context.Context, f domain.NotificationFilter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	all, err := s.repo.QueryByUser(ctx, f.UserID, f)
	if err != nil {
		return nil, err
	}

	total := len(all)
	page := all
	if f.Offset >= len(page) {
		page = nil
	} else {
		page = page[f.Offset:]
	}
	if len(page) > f.Limit {
		page = page[:f.Limit]
	}

	enriched := make([]Enriched, 0, len(page))
	for i := range page {
		enriched = append(enriched, Enriched{
			Notification: page[i],
			VehicleImage: s.resolveImage(ctx, &page[i]),
		})
	}

	return &ListResult{
		Notifications: enriched,
		Total:         total,
		Page:          f.Offset/f.Limit + 1,
		Limit:         f.Limit,
	}, nil
}

func (s *service) GetDetail(ctx context.Context, notificationID, userID string) (*Enriched, error) {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.Deleted {
		return nil, fmt.Errorf("notification deleted: %w", domain.ErrNotFound)
	}
	return &Enriched{Notification: *n, VehicleImage: s.resolveImage(ctx, n)}, nil
}

// MarkRead is idempotent: re-reading an already read notification refreshes
// its read timestamp, matching the original behavior.
func (s *service) MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.Deleted {
		return nil, fmt.Errorf("notification deleted: %w", domain.ErrNotFound)
	}

	now := time.Now().UTC()
	if err := s.repo.Update(ctx, notificationID, map[string]interface{}{
		fieldRead:   true,
		fieldReadAt: now.Format(time.RFC3339Nano),
	}); err != nil {
		return nil, err
	}
	n.Read = true
	n.ReadAt = &now

	s.dispatcher.Read(n)
	return n, nil
}

func (s *service) SoftDelete(ctx context.Context, notificationID, userID string) error {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, notificationID, map[string]interface{}{
		fieldDeleted: true,
	}); err != nil {
		return err
	}

	s.dispatcher.Deleted(n.UserID, notificationID)
	return nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	unread := false
	return s.repo.QueryByUser(ctx, userID, domain.NotificationFilter{
		UserID: userID,
		Read:   &unread,
	})
}

// Dropdown returns the newest notifications for the header bell, plus a
// flag telling the client whether older ones exist beyond the cut.
func (s *service) Dropdown(ctx context.Context, userID string, limit int) ([]Enriched, bool, error) {
	if limit <= 0 {
		limit = 4
	}
	all, err := s.repo.QueryByUser(ctx, userID, domain.NotificationFilter{UserID: userID})
	if err != nil {
		return nil, false, err
	}

	hasMore := len(all) > limit
	if hasMore {
		all = all[:limit]
	}
	enriched := make([]Enriched, 0, len(all))
	for i := range all {
		enriched = append(enriched, Enriched{
			Notification: all[i],
			VehicleImage: s.resolveImage(ctx, &all[i]),
		})
	}
	return enriched, hasMore, nil
}

// owned loads a notification and checks the caller owns it.
func (s *service) owned(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	return n, nil
}

// resolveImage walks from the notification's referenced entity to its
// vehicle and returns the first image URL. Any broken hop yields nil; the
// feed must render with or without an image.
func (s *service) resolveImage(ctx context.Context, n *domain.Notification) *string {
	if n.EntityID == nil || n.EntityKind == nil {
		return nil
	}

	switch strings.ToLower(*n.EntityKind) {
	case domain.EntityReservation:
		return s.imageByReservation(ctx, *n.EntityID)
	case domain.EntityRental:
		return s.imageByRental(ctx, *n.EntityID)
	case domain.EntityRating:
		rating, err := s.ratings.Get(ctx, *n.EntityID)
		if err != nil {
			return nil
		}
		return s.imageByRental(ctx, rating.RentalID)
	}
	return nil
}

func (s *service) imageByRental(ctx context.Context, rentalID string) *string {
	rental, err := s.rentals.Get(ctx, rentalID)
	if err != nil {
		return nil
	}
	return s.imageByReservation(ctx, rental.ReservationID)
}

func (s *service) imageByReservation(ctx context.Context, reservationID string) *string {
	res, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		return nil
	}
	v, err := s.vehicles.Get(ctx, res.VehicleID)
	if err != nil {
		return nil
	}
	return v.FirstImageURL()
}
