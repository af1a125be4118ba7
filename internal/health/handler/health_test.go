package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestLiveness(t *testing.T) {
	c := NewChecker(&mockPinger{pingErr: errors.New("down")}, nil)
	rec := httptest.NewRecorder()
	c.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200 regardless of dependencies", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		policy     PolicyChecker
		wantStatus int
		wantChecks map[string]string
	}{
		{"no dependencies", nil, nil, http.StatusOK, map[string]string{}},
		{"all healthy", &mockPinger{}, &mockPolicyChecker{}, http.StatusOK,
			map[string]string{"database": "ok", "policy": "ok"}},
		{"database down", &mockPinger{pingErr: errors.New("connection refused")}, &mockPolicyChecker{}, http.StatusServiceUnavailable,
			map[string]string{"database": "unavailable", "policy": "ok"}},
		{"policy broken", &mockPinger{}, &mockPolicyChecker{healthErr: errors.New("compile")}, http.StatusServiceUnavailable,
			map[string]string{"database": "ok", "policy": "unavailable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(tt.pinger, tt.policy)
			rec := httptest.NewRecorder()
			c.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body readiness
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if len(body.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", body.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if body.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, body.Checks[k], v)
				}
			}
		})
	}
}

func TestSyncGRPC(t *testing.T) {
	hs := health.NewServer()
	pinger := &mockPinger{}
	c := NewChecker(pinger, nil)

	c.SyncGRPC(context.Background(), hs)
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Check = %v, %v; want SERVING", resp.GetStatus(), err)
	}

	pinger.pingErr = errors.New("connection refused")
	c.SyncGRPC(context.Background(), hs)
	resp, err = hs.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Check = %v, %v; want NOT_SERVING", resp.GetStatus(), err)
	}
}
