package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// stubChecker — ReadinessChecker с фиксированным ответом.
type stubChecker struct {
	status  string
	message string
}

func (s stubChecker) CheckReady() (string, string) {
	return s.status, s.message
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["service"] != "paint-catalog" {
		t.Errorf("неожиданный ответ: %v", body)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name     string
		checker  ReadinessChecker
		wantCode int
		wantStat string
	}{
		{"каталог доступен", stubChecker{"ok", "Каталог доступен"}, http.StatusOK, "ok"},
		{"каталог деградирован", stubChecker{"degraded", "404"}, http.StatusOK, "degraded"},
		{"каталог недоступен", stubChecker{"fail", "timeout"}, http.StatusServiceUnavailable, "fail"},
		{"checker не задан", nil, http.StatusServiceUnavailable, "fail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checker)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.wantCode)
			}
			var body healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.wantStat {
				t.Errorf("status = %q, ожидался %q", body.Status, tt.wantStat)
			}
		})
	}
}

// stubDependencies — DependencyHealth с фиксированной картой.
type stubDependencies map[string]bool

func (s stubDependencies) Health() map[string]bool { return s }

func TestHealthReady_Dependencies(t *testing.T) {
	tests := []struct {
		name     string
		catalog  stubChecker
		deps     stubDependencies
		wantCode int
		wantStat string
		wantDeps map[string]string
	}{
		{
			name:     "мониторинг подтверждает доступность",
			catalog:  stubChecker{"ok", "Каталог доступен"},
			deps:     stubDependencies{"catalog-api:catalog.local:443": true},
			wantCode: http.StatusOK,
			wantStat: "ok",
			wantDeps: map[string]string{"catalog-api:catalog.local:443": "ok"},
		},
		{
			name:     "мониторинг видит сбой",
			catalog:  stubChecker{"ok", "Каталог доступен"},
			deps:     stubDependencies{"catalog-api:catalog.local:443": false},
			wantCode: http.StatusOK,
			wantStat: "degraded",
			wantDeps: map[string]string{"catalog-api:catalog.local:443": "degraded"},
		},
		{
			name:     "проверок ещё не было",
			catalog:  stubChecker{"ok", "Каталог доступен"},
			deps:     stubDependencies{},
			wantCode: http.StatusOK,
			wantStat: "ok",
		},
		{
			name:     "каталог недоступен",
			catalog:  stubChecker{"fail", "timeout"},
			deps:     stubDependencies{"catalog-api:catalog.local:443": true},
			wantCode: http.StatusServiceUnavailable,
			wantStat: "fail",
			wantDeps: map[string]string{"catalog-api:catalog.local:443": "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.catalog)
			h.SetDependencyHealth(tt.deps)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.wantCode)
			}
			var body healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.wantStat {
				t.Errorf("status = %q, ожидался %q", body.Status, tt.wantStat)
			}
			if len(body.Checks.Dependencies) != len(tt.wantDeps) {
				t.Fatalf("dependencies = %v, ожидалось %v", body.Checks.Dependencies, tt.wantDeps)
			}
			for k, want := range tt.wantDeps {
				if got := body.Checks.Dependencies[k].Status; got != want {
					t.Errorf("dependencies[%q] = %q, ожидался %q", k, got, want)
				}
			}
		})
	}
}

func TestGetMetrics(t *testing.T) {
	h := NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	h.GetMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("в ответе нет стандартных метрик Go")
	}
}

func TestOverallStatus(t *testing.T) {
	if got := overallStatus("ok", "degraded"); got != "degraded" {
		t.Errorf("overallStatus = %q", got)
	}
	if got := overallStatus("degraded", "fail"); got != "fail" {
		t.Errorf("overallStatus = %q", got)
	}
	if got := overallStatus(); got != "ok" {
		t.Errorf("overallStatus = %q", got)
	}
}
