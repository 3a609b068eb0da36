package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memUsers struct{ rows map[string]*domain.User }

func (m *memUsers) Put(_ context.Context, u *domain.User) error {
	cp := *u
	m.rows[u.UserID] = &cp
	return nil
}
func (m *memUsers) Get(_ context.Context, userID string) (*domain.User, error) {
	if u, ok := m.rows[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}
func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}
func (m *memUsers) Update(_ context.Context, userID string, updates map[string]interface{}) error {
	u, ok := m.rows[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if v, ok := updates[fieldPhotoURL]; ok {
		url := v.(string)
		u.PhotoURL = &url
	}
	if v, ok := updates[fieldFirstName]; ok {
		u.FirstName = v.(string)
	}
	return nil
}

type recordingObjects struct {
	uploaded  []string
	deleted   []string
	deleteErr error
}

func (r *recordingObjects) Upload(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
	r.uploaded = append(r.uploaded, key)
	return "s3://test-bucket/" + key, nil
}
func (r *recordingObjects) DeleteByURL(_ context.Context, url string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, url)
	return nil
}

func seedUser(photoURL *string) (*memUsers, *recordingObjects, Service) {
	users := &memUsers{rows: map[string]*domain.User{
		"u1": {UserID: "u1", Email: "alice@example.com", FirstName: "Alice", PhotoURL: photoURL, Enable: true},
	}}
	objects := &recordingObjects{}
	return users, objects, NewService(users, objects)
}

// --- tests ---

func TestUploadProfilePhoto_FirstUpload(t *testing.T) {
	_, objects, svc := seedUser(nil)

	u, err := svc.UploadProfilePhoto(context.Background(), "u1", "cara.png", strings.NewReader("img"))
	require.NoError(t, err)
	require.NotNil(t, u.PhotoURL)
	assert.True(t, strings.HasPrefix(*u.PhotoURL, "s3://test-bucket/profiles/u1/"))
	assert.True(t, strings.HasSuffix(*u.PhotoURL, ".png"))
	assert.Empty(t, objects.deleted, "nothing to remove on first upload")
}

func TestUploadProfilePhoto_RemovesSupersededPhoto(t *testing.T) {
	old := "s3://test-bucket/profiles/u1/old.png"
	_, objects, svc := seedUser(&old)

	u, err := svc.UploadProfilePhoto(context.Background(), "u1", "nueva.jpg", strings.NewReader("img"))
	require.NoError(t, err)
	require.NotNil(t, u.PhotoURL)
	assert.NotEqual(t, old, *u.PhotoURL)
	assert.Equal(t, []string{old}, objects.deleted)
}

func TestUploadProfilePhoto_RemovalFailureDoesNotFailUpload(t *testing.T) {
	old := "s3://test-bucket/profiles/u1/old.png"
	users, objects, svc := seedUser(&old)
	objects.deleteErr = errors.New("object store down")

	u, err := svc.UploadProfilePhoto(context.Background(), "u1", "nueva.jpg", strings.NewReader("img"))
	require.NoError(t, err)
	require.NotNil(t, u.PhotoURL)
	assert.NotEqual(t, old, *u.PhotoURL)

	stored, err := users.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, *u.PhotoURL, *stored.PhotoURL)
}

func TestUploadProfilePhoto_UnknownUser(t *testing.T) {
	_, objects, svc := seedUser(nil)

	_, err := svc.UploadProfilePhoto(context.Background(), "ghost", "cara.png", strings.NewReader("img"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, objects.uploaded)
}
