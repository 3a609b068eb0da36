package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redibo/rental-api/internal/application/notification"
	"github.com/redibo/rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chiRouterWithParam mounts a handler on a chi route so URL params resolve.
func chiRouterWithParam(t *testing.T, pattern string, fn http.HandlerFunc) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Get(pattern, fn)
	r.Put(pattern, fn)
	r.Delete(pattern, fn)
	return r
}

// stubNotificationService returns canned values per method.
type stubNotificationService struct {
	err       error
	list      *notification.ListResult
	detail    *notification.Enriched
	marked    *domain.Notification
	unread    int
	dropdown  []notification.Enriched
	hasMore   bool
	lastLimit int
	lastFilt  domain.NotificationFilter
}

func (s *stubNotificationService) Create(context.Context, domain.CreateNotificationRequest) (*domain.Notification, error) {
	return nil, s.err
}
func (s *stubNotificationService) List(_ context.Context, f domain.NotificationFilter) (*notification.ListResult, error) {
	s.lastFilt = f
	return s.list, s.err
}
func (s *stubNotificationService) GetDetail(context.Context, string, string) (*notification.Enriched, error) {
	return s.detail, s.err
}
func (s *stubNotificationService) MarkRead(context.Context, string, string) (*domain.Notification, error) {
	return s.marked, s.err
}
func (s *stubNotificationService) SoftDelete(context.Context, string, string) error {
	return s.err
}
func (s *stubNotificationService) UnreadCount(context.Context, string) (int, error) {
	return s.unread, s.err
}
func (s *stubNotificationService) ListUnread(context.Context, string) ([]domain.Notification, error) {
	return nil, s.err
}
func (s *stubNotificationService) Dropdown(_ context.Context, _ string, limit int) ([]notification.Enriched, bool, error) {
	s.lastLimit = limit
	return s.dropdown, s.hasMore, s.err
}

func TestDetail_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("notification not found: %w", domain.ErrNotFound), http.StatusNotFound},
		{"forbidden", fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden), http.StatusForbidden},
		{"bad request", fmt.Errorf("bad id: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{"internal", fmt.Errorf("dynamo exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewNotificationHandler(&stubNotificationService{err: tc.err})
			r := chiRouterWithParam(t, "/detalle-notificacion/{id}", h.Detail)

			req := authedRequest(context.Background(), "/detalle-notificacion/n1", "u1")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDetail_InternalErrorDoesNotLeak(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{err: fmt.Errorf("secret table arn failed")})
	r := chiRouterWithParam(t, "/detalle-notificacion/{id}", h.Detail)

	req := authedRequest(context.Background(), "/detalle-notificacion/n1", "u1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestPanel_ParsesFilters(t *testing.T) {
	stub := &stubNotificationService{list: &notification.ListResult{Limit: 10, Page: 1}}
	h := NewNotificationHandler(stub)

	target := "/panel-notificaciones?tipo=RESERVA_CONFIRMADA&prioridad=ALTA&tipoEntidad=reserva&leido=false&limit=5&offset=10"
	req := authedRequest(context.Background(), target, "u1")
	rr := httptest.NewRecorder()
	h.Panel(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", stub.lastFilt.UserID)
	assert.Equal(t, "RESERVA_CONFIRMADA", stub.lastFilt.Type)
	assert.Equal(t, domain.PriorityHigh, stub.lastFilt.Priority)
	assert.Equal(t, "reserva", stub.lastFilt.EntityKind)
	require.NotNil(t, stub.lastFilt.Read)
	assert.False(t, *stub.lastFilt.Read)
	assert.Equal(t, 5, stub.lastFilt.Limit)
	assert.Equal(t, 10, stub.lastFilt.Offset)
}

func TestPanel_Unauthenticated(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{})
	rr := httptest.NewRecorder()
	h.Panel(rr, httptest.NewRequest(http.MethodGet, "/panel-notificaciones", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDelete_ReturnsConfirmation(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{})
	r := chiRouterWithParam(t, "/eliminar-notificacion/{id}", h.Delete)

	req := authedRequest(context.Background(), "/eliminar-notificacion/n9", "u1")
	req.Method = http.MethodDelete
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		ID        string `json:"id"`
		Eliminada bool   `json:"eliminada"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "n9", body.ID)
	assert.True(t, body.Eliminada)
}

func TestUnreadCount_Payload(t *testing.T) {
	h := NewNotificationHandler(&stubNotificationService{unread: 3})

	req := authedRequest(context.Background(), "/notificaciones-no-leidas", "u1")
	rr := httptest.NewRecorder()
	h.UnreadCount(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 3, body["count"])
	assert.Equal(t, 3, body["totalNoLeidas"])
}

func TestDropdown_Payload(t *testing.T) {
	stub := &stubNotificationService{
		dropdown: []notification.Enriched{
			{Notification: domain.Notification{NotificationID: "n1", UserID: "u1"}},
		},
		hasMore: true,
		unread:  7,
	}
	h := NewNotificationHandler(stub)

	req := authedRequest(context.Background(), "/dropdown-notificaciones", "u1")
	rr := httptest.NewRecorder()
	h.Dropdown(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 4, stub.lastLimit)

	var body struct {
		Notificaciones []json.RawMessage `json:"notificaciones"`
		TotalNoLeidas  int               `json:"totalNoLeidas"`
		HayMas         bool              `json:"hayMas"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Notificaciones, 1)
	assert.Equal(t, 7, body.TotalNoLeidas)
	assert.True(t, body.HayMas)
}
