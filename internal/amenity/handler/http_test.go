package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"society-shield/backend/internal/amenity/repository"
	"society-shield/backend/internal/amenity/service"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/tenant"
)

type caller struct {
	tenantID, role string
}

// newServer mounts the handler behind a stand-in for the authentication and tenant
// propagation middleware, driven by the X-Test-Caller header ("tenant:role").
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.NewService(db.NewMemoryUnitOfWork(nil), repository.NewMemoryRepository(), nil, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if v := req.Header.Get("X-Test-Caller"); v != "" {
				parts := strings.SplitN(v, ":", 2)
				ctx := principal.WithPrincipal(req.Context(), &principal.Principal{
					UserID: "u-" + parts[0], TenantID: parts[0], Role: parts[1], Kind: principal.KindUser,
				})
				req = req.WithContext(tenant.WithTenantID(ctx, parts[0]))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/v1/amenities", NewHandler(svc).Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, c *caller, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		req.Header.Set("X-Test-Caller", c.tenantID+":"+c.role)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, respBody
}

func TestAmenityEndpoints(t *testing.T) {
	srv := newServer(t)
	adminA := &caller{"tenant-a", "ADMIN"}
	ownerA := &caller{"tenant-a", "OWNER"}
	adminB := &caller{"tenant-b", "ADMIN"}

	resp, body := call(t, srv, adminA, http.MethodPost, "/api/v1/amenities", `{"name":"Clubhouse","capacity":40}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created amenityResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if !created.BookingAllowed || created.TenantID != "tenant-a" {
		t.Errorf("created = %+v", created)
	}
	item := "/api/v1/amenities/" + created.ID

	tests := []struct {
		name   string
		c      *caller
		method string
		path   string
		body   string
		want   int
	}{
		{"anonymous list", nil, http.MethodGet, "/api/v1/amenities", "", http.StatusUnauthorized},
		{"owner list", ownerA, http.MethodGet, "/api/v1/amenities?limit=10", "", http.StatusOK},
		{"bad limit", ownerA, http.MethodGet, "/api/v1/amenities?limit=x", "", http.StatusBadRequest},
		{"owner get", ownerA, http.MethodGet, item, "", http.StatusOK},
		{"owner create", ownerA, http.MethodPost, "/api/v1/amenities", `{"name":"Gym"}`, http.StatusForbidden},
		{"missing name", adminA, http.MethodPost, "/api/v1/amenities", `{"capacity":3}`, http.StatusBadRequest},
		{"negative capacity", adminA, http.MethodPost, "/api/v1/amenities", `{"name":"Gym","capacity":-1}`, http.StatusBadRequest},
		{"other tenant get", adminB, http.MethodGet, item, "", http.StatusNotFound},
		{"other tenant update", adminB, http.MethodPut, item, `{"name":"Hacked"}`, http.StatusNotFound},
		{"other tenant delete", adminB, http.MethodDelete, item, "", http.StatusNotFound},
		{"malformed id get", adminA, http.MethodGet, "/api/v1/amenities/abc", "", http.StatusNotFound},
		{"malformed id update", adminA, http.MethodPut, "/api/v1/amenities/abc", `{"name":"Pool"}`, http.StatusNotFound},
		{"malformed id delete", adminA, http.MethodDelete, "/api/v1/amenities/abc", "", http.StatusNotFound},
		{"update", adminA, http.MethodPut, item, `{"name":"Clubhouse Hall","capacity":60,"bookingAllowed":false}`, http.StatusOK},
		{"delete", adminA, http.MethodDelete, item, "", http.StatusNoContent},
		{"get deleted", adminA, http.MethodGet, item, "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := call(t, srv, tt.c, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.want, body)
			}
		})
	}
}
