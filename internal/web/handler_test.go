package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository/memory"
	booking_service "gym-class-booking/internal/service/booking"
	catalog_service "gym-class-booking/internal/service/catalog"
	"gym-class-booking/pkg/auth"

	"go.uber.org/zap/zaptest"
)

type testServer struct {
	router http.Handler
	store  *memory.Store
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	logger := zaptest.NewLogger(t)
	tokens := auth.NewTokenService("test-secret")

	h := NewHandler(
		booking_service.NewBookingService(store.Bookings(), logger),
		catalog_service.NewCatalogService(store.Classes(), store.Bookings(), logger),
		tokens,
		time.Second,
		logger,
	)
	return &testServer{router: NewRouter(h), store: store, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID string, roles ...models.Role) string {
	t.Helper()
	tok, err := s.tokens.Issue(userID, roles, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createClass(t *testing.T, adminToken, name string, start time.Time) ClassJSON {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/classes", adminToken, ClassRequest{
		Name:      name,
		StartDate: start,
		Duration:  "45m",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create class: status %d body %s", rec.Code, rec.Body.String())
	}
	var class ClassJSON
	decode(t, rec, &class)
	return class
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestToggleAndList(t *testing.T) {
	s := newTestServer(t)
	adminTok := s.token(t, "admin", models.RoleMember, models.RoleAdmin)
	memberTok := s.token(t, "u1", models.RoleMember)

	yoga := s.createClass(t, adminTok, "Yoga", time.Now().Add(48*time.Hour))
	togglePath := fmt.Sprintf("/classes/%d/toggle", yoga.ID)

	rec := s.do(t, http.MethodPost, togglePath, memberTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d body %s", rec.Code, rec.Body.String())
	}
	var toggled ToggleJSON
	decode(t, rec, &toggled)
	if toggled.Result != string(models.ToggleCreated) || !toggled.Attending {
		t.Fatalf("first toggle = %+v, want created", toggled)
	}

	rec = s.do(t, http.MethodGet, "/classes", memberTok, nil)
	var list ClassListJSON
	decode(t, rec, &list)
	if list.Mode != models.ModeUpcoming.String() {
		t.Fatalf("mode = %q, want upcoming", list.Mode)
	}
	if len(list.Classes) != 1 || !list.Classes[0].Attending {
		t.Fatalf("classes = %+v, want one attended class", list.Classes)
	}

	rec = s.do(t, http.MethodGet, "/classes", "", nil)
	decode(t, rec, &list)
	if list.Mode != models.ModeAnonymous.String() || list.Classes[0].Attending {
		t.Fatalf("anonymous list = %+v, want no attendance", list)
	}

	rec = s.do(t, http.MethodGet, "/classes?history=true", memberTok, nil)
	decode(t, rec, &list)
	if list.Mode != models.ModeHistory.String() || len(list.Classes) != 1 {
		t.Fatalf("history = %+v, want one class", list)
	}

	rec = s.do(t, http.MethodPost, togglePath, memberTok, nil)
	decode(t, rec, &toggled)
	if toggled.Result != string(models.ToggleRemoved) || toggled.Attending {
		t.Fatalf("second toggle = %+v, want removed", toggled)
	}
	if n := s.store.BookingCount(); n != 0 {
		t.Fatalf("bookings = %d, want 0", n)
	}

	rec = s.do(t, http.MethodGet, "/bookings", memberTok, nil)
	decode(t, rec, &list)
	if len(list.Classes) != 0 {
		t.Fatalf("bookings after removal = %+v, want empty", list.Classes)
	}
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	adminTok := s.token(t, "admin", models.RoleAdmin)
	memberTok := s.token(t, "u1", models.RoleMember)
	class := s.createClass(t, adminTok, "Spin", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"anonymous toggle", http.MethodPost, fmt.Sprintf("/classes/%d/toggle", class.ID), "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/classes", "not-a-jwt", nil, http.StatusUnauthorized},
		{"toggle missing class", http.MethodPost, "/classes/9999/toggle", memberTok, nil, http.StatusNotFound},
		{"toggle id zero", http.MethodPost, "/classes/0/toggle", memberTok, nil, http.StatusBadRequest},
		{"bad history flag", http.MethodGet, "/classes?history=maybe", memberTok, nil, http.StatusBadRequest},
		{"anonymous bookings", http.MethodGet, "/bookings", "", nil, http.StatusUnauthorized},
		{"member creates class", http.MethodPost, "/classes", memberTok,
			ClassRequest{Name: "Box", StartDate: time.Now().Add(time.Hour), Duration: "30m"}, http.StatusForbidden},
		{"invalid duration", http.MethodPost, "/classes", adminTok,
			ClassRequest{Name: "Box", StartDate: time.Now().Add(time.Hour), Duration: "soon"}, http.StatusBadRequest},
		{"empty name", http.MethodPost, "/classes", adminTok,
			ClassRequest{Name: "  ", StartDate: time.Now().Add(time.Hour), Duration: "30m"}, http.StatusBadRequest},
		{"stale version", http.MethodPut, fmt.Sprintf("/classes/%d", class.ID), adminTok,
			ClassRequest{Name: "Spin", StartDate: time.Now().Add(time.Hour), Duration: "30m", Version: class.Version + 5}, http.StatusConflict},
		{"delete missing class", http.MethodDelete, "/classes/9999", adminTok, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			var body errorJSON
			decode(t, rec, &body)
			if body.Code == "" {
				t.Fatalf("error body has no code: %s", rec.Body.String())
			}
		})
	}
}

func TestUpdateAndDeleteClass(t *testing.T) {
	s := newTestServer(t)
	adminTok := s.token(t, "admin", models.RoleAdmin)
	memberTok := s.token(t, "u1", models.RoleMember)
	class := s.createClass(t, adminTok, "Pilates", time.Now().Add(time.Hour))

	s.do(t, http.MethodPost, fmt.Sprintf("/classes/%d/toggle", class.ID), memberTok, nil)

	rec := s.do(t, http.MethodPut, fmt.Sprintf("/classes/%d", class.ID), adminTok, ClassRequest{
		Name:      "Mat Pilates",
		StartDate: time.Now().Add(2 * time.Hour),
		Duration:  "1h",
		Version:   class.Version,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	var updated ClassJSON
	decode(t, rec, &updated)
	if updated.Name != "Mat Pilates" || updated.Version != class.Version+1 {
		t.Fatalf("updated = %+v", updated)
	}

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/classes/%d", class.ID), memberTok, nil)
	var details ClassJSON
	decode(t, rec, &details)
	if !details.Attending || details.Duration != "1h0m0s" {
		t.Fatalf("details = %+v, want attending with 1h duration", details)
	}

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/classes/%d", class.ID), adminTok, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if n := s.store.BookingCount(); n != 0 {
		t.Fatalf("bookings after delete = %d, want 0", n)
	}

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/classes/%d", class.ID), memberTok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: status %d, want 404", rec.Code)
	}
}
