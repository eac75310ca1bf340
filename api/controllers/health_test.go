package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/societyhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	cases := []struct {
		name   string
		db     Pinger
		cache  Pinger
		status int
	}{
		{"all up", stubPinger{}, stubPinger{}, http.StatusOK},
		{"db down", stubPinger{err: errors.New("refused")}, stubPinger{}, http.StatusServiceUnavailable},
		{"redis down", stubPinger{}, stubPinger{err: errors.New("timeout")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			HealthReady(cfg, nil, tc.db, tc.cache)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
			if got := resp.Header().Get("X-SocietyHub-Env"); got != "test" {
				t.Fatalf("expected env header test, got %q", got)
			}
			if tc.status != http.StatusOK {
				if code := decodeError(t, resp).Code; code != string(pkgerrors.CodeDependency) {
					t.Fatalf("expected dependency error, got %s", code)
				}
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive(&config.Config{})(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
