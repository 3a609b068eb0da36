package vehicle

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	s3infra "github.com/redibo/rental-api/internal/infrastructure/s3"
	"github.com/redibo/rental-api/internal/pkg/id"
	"github.com/redibo/rental-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldBrand       = "brand"
	fieldModel       = "model"
	fieldYear        = "year"
	fieldPricePerDay = "price_per_day"
)

type Service interface {
	Create(ctx context.Context, hostID string, req domain.CreateVehicleRequest) (*domain.Vehicle, error)
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Vehicle, error)
	Update(ctx context.Context, vehicleID, hostID string, req domain.UpdateVehicleRequest) (*domain.Vehicle, error)
	Delete(ctx context.Context, vehicleID, hostID string) error
	UploadImage(ctx context.Context, vehicleID, hostID, filename string, r io.Reader) (*domain.Vehicle, error)
}

type vehicleStore interface {
	Put(ctx context.Context, v *domain.Vehicle) error
	Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Vehicle, error)
	Update(ctx context.Context, vehicleID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, vehicleID string) error
	AppendImage(ctx context.Context, vehicleID string, img domain.VehicleImage) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	repo    vehicleStore
	objects objectStore
}

func NewService(repo vehicleStore, objects objectStore) Service {
	return &service{repo: repo, objects: objects}
}

func (s *service) Create(ctx context.Context, hostID string, req domain.CreateVehicleRequest) (*domain.Vehicle, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	v := &domain.Vehicle{
		VehicleID:   id.New(),
		HostID:      hostID,
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Plate:       req.Plate,
		PricePerDay: req.PricePerDay,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return s.repo.Get(ctx, vehicleID)
}

func (s *service) ListByHost(ctx context.Context, hostID string) ([]domain.Vehicle, error) {
	return s.repo.ListByHost(ctx, hostID)
}

func (s *service) Update(ctx context.Context, vehicleID, hostID string, req domain.UpdateVehicleRequest) (*domain.Vehicle, error) {
	if _, err := s.owned(ctx, vehicleID, hostID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Brand != nil {
		updates[fieldBrand] = *req.Brand
	}
	if req.Model != nil {
		updates[fieldModel] = *req.Model
	}
	if req.Year != nil {
		updates[fieldYear] = *req.Year
	}
	if req.PricePerDay != nil {
		updates[fieldPricePerDay] = *req.PricePerDay
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, vehicleID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, vehicleID)
}

func (s *service) Delete(ctx context.Context, vehicleID, hostID string) error {
	if _, err := s.owned(ctx, vehicleID, hostID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, vehicleID)
}

// UploadImage stores the image in the object store and appends it to the
// vehicle's gallery. The first image is the one notification feeds show.
func (s *service) UploadImage(ctx context.Context, vehicleID, hostID, filename string, r io.Reader) (*domain.Vehicle, error) {
	if _, err := s.owned(ctx, vehicleID, hostID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("vehicles/%s/%s%s", vehicleID, id.New(), path.Ext(filename))
	url, err := s.objects.Upload(ctx, key, r, s3infra.DetectContentType(filename))
	if err != nil {
		return nil, err
	}
	if err := s.repo.AppendImage(ctx, vehicleID, domain.VehicleImage{URL: url}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, vehicleID)
}

func (s *service) owned(ctx context.Context, vehicleID, hostID string) (*domain.Vehicle, error) {
	v, err := s.repo.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.HostID != hostID {
		return nil, fmt.Errorf("vehicle belongs to another host: %w", domain.ErrForbidden)
	}
	return v, nil
}
