package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	s3infra "github.com/redibo/rental-api/internal/infrastructure/s3"
	"github.com/redibo/rental-api/internal/pkg/id"
	"github.com/redibo/rental-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName        = "first_name"
	fieldLastName         = "last_name"
	fieldPhone            = "phone"
	fieldTwoFactorEnabled = "two_factor_enabled"
	fieldPhotoURL         = "photo_url"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	UploadProfilePhoto(ctx context.Context, userID, filename string, r io.Reader) (*domain.User, error)
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	DeleteByURL(ctx context.Context, url string) error
}

type service struct {
	repo    userStore
	objects objectStore
}

func NewService(repo userStore, objects objectStore) Service {
	return &service{repo: repo, objects: objects}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.RoleRenter
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AuthProvider: "local",
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.TwoFactorEnabled != nil {
		updates[fieldTwoFactorEnabled] = *req.TwoFactorEnabled
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// UploadProfilePhoto stores the image in the object store and points the
// user's profile at it. A superseded photo object is removed best-effort.
func (s *service) UploadProfilePhoto(ctx context.Context, userID, filename string, r io.Reader) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profiles/%s/%s%s", userID, id.New(), path.Ext(filename))
	url, err := s.objects.Upload(ctx, key, r, s3infra.DetectContentType(filename))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{
		fieldPhotoURL: url,
	}); err != nil {
		return nil, err
	}
	if u.PhotoURL != nil && *u.PhotoURL != url {
		if err := s.objects.DeleteByURL(ctx, *u.PhotoURL); err != nil {
			slog.Warn("user: failed to remove superseded profile photo", "user_id", userID, "err", err)
		}
	}
	return s.repo.Get(ctx, userID)
}
