package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestHealthCheck(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		database Pinger
		cache    Pinger
		status   int
		postgres string
		redis    string
	}{
		{"all connected", stubPinger{}, stubPinger{}, http.StatusOK, "connected", "connected"},
		{"database down", stubPinger{err: errBoom}, stubPinger{}, http.StatusServiceUnavailable, "error", "connected"},
		{"cache down", stubPinger{}, stubPinger{err: errBoom}, http.StatusServiceUnavailable, "connected", "error"},
		{"cache missing", stubPinger{}, nil, http.StatusServiceUnavailable, "connected", "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := HealthHandler{
				Database:    tc.database,
				Cache:       tc.cache,
				Environment: "test",
				StartedAt:   started,
				NowFunc:     func() time.Time { return started.Add(90 * time.Second) },
			}

			rec := httptest.NewRecorder()
			handler.Check(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
			resp := decodeBody[healthResponse](t, rec)
			if resp.PostgreSQL != tc.postgres || resp.Redis != tc.redis {
				t.Fatalf("unexpected dependency states %+v", resp)
			}
			if resp.Uptime != 90 || resp.Environment != "test" {
				t.Fatalf("unexpected uptime or environment %+v", resp)
			}
			if tc.status == http.StatusOK && resp.Status != "ok" {
				t.Fatalf("expected ok status, got %q", resp.Status)
			}
			if tc.postgres == "error" && resp.PostgreSQLError == "" {
				t.Fatal("expected postgresql_error to be reported")
			}
			if tc.redis == "error" && resp.RedisError == "" {
				t.Fatal("expected redis_error to be reported")
			}
		})
	}
}

func TestHealthCheckBoundsSlowPings(t *testing.T) {
	handler := HealthHandler{Database: blockingPinger{}, Cache: stubPinger{}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	handler.Check(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for a hung database ping, got %d", rec.Code)
	}
}

func TestHealthInfo(t *testing.T) {
	handler := HealthHandler{
		LookupEnv: func(key string) (string, bool) {
			if key == "VIDEOHUB_DATABASE_URL" {
				return "postgres://db", true
			}
			return "", false
		},
	}

	rec := httptest.NewRecorder()
	handler.Info(rec, httptest.NewRequest(http.MethodGet, "/api/health/info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	info := decodeBody[infoResponse](t, rec)
	if info.Go == "" || info.CPUs == 0 {
		t.Fatalf("expected runtime details, got %+v", info)
	}
	if info.Env["DATABASE_URL"] != "[defined]" || info.Env["REDIS_URL"] != "[undefined]" {
		t.Fatalf("unexpected env report %v", info.Env)
	}

	handler.Production = true
	rec = httptest.NewRecorder()
	handler.Info(rec, httptest.NewRequest(http.MethodGet, "/api/health/info", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 in production got %d", rec.Code)
	}
}
