package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/menulens/config"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// MockExtractor returns a canned result and records what it was asked for
type MockExtractor struct {
	mu     sync.Mutex
	calls  []domain.RestaurantDescriptor
	result func(desc domain.RestaurantDescriptor) *domain.ExtractionResult
}

func (m *MockExtractor) Extract(ctx context.Context, desc domain.RestaurantDescriptor) *domain.ExtractionResult {
	m.mu.Lock()
	m.calls = append(m.calls, desc)
	m.mu.Unlock()
	if m.result != nil {
		return m.result(desc)
	}
	return &domain.ExtractionResult{RestaurantID: desc.ID, Items: []domain.MenuItem{}}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://review-*", "http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter creates a test router around extractor, which may be nil
func setupTestRouter(extractor usecase.MenuExtractor) *gin.Engine {
	handler := NewHandler(extractor, nil)
	reg := prometheus.NewRegistry()
	return SetupRouter(testConfig(), handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil)
}

func postExtract(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/api/v1/menus/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(nil)

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "menulens" {
			t.Errorf("service = %v, want menulens", response["service"])
		}
		if response["version"] != Version {
			t.Errorf("version = %v, want %s", response["version"], Version)
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(nil)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("served when a handler is given", func(t *testing.T) {
		router := setupTestRouter(nil)

		req, _ := http.NewRequest("GET", "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("absent without a handler", func(t *testing.T) {
		router := SetupRouter(testConfig(), NewHandler(nil, nil), nil, nil)

		req, _ := http.NewRequest("GET", "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestExtractMenuEndpoint(t *testing.T) {
	t.Run("returns the extraction result", func(t *testing.T) {
		price := 14.0
		extractor := &MockExtractor{result: func(desc domain.RestaurantDescriptor) *domain.ExtractionResult {
			return &domain.ExtractionResult{
				RunID:        "run-1",
				RestaurantID: desc.ID,
				Success:      true,
				ItemCount:    1,
				Items: []domain.MenuItem{{
					Name:     "Pad Thai",
					Price:    &price,
					Category: "mains",
					Source:   domain.StrategySelectorPattern,
				}},
			}
		}}
		router := setupTestRouter(extractor)

		w := postExtract(router, `{"id":"r1","name":"Thai Garden","url":"https://thaigarden.example","location":"Austin, TX"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var got domain.ExtractionResult
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if !got.Success || got.ItemCount != 1 || got.Items[0].Name != "Pad Thai" {
			t.Errorf("result = %+v, want one Pad Thai item", got)
		}
		if got.RestaurantID != "r1" {
			t.Errorf("restaurantId = %q, want r1", got.RestaurantID)
		}

		if len(extractor.calls) != 1 {
			t.Fatalf("extractor called %d times, want 1", len(extractor.calls))
		}
		want := domain.RestaurantDescriptor{ID: "r1", Name: "Thai Garden", URL: "https://thaigarden.example", Location: "Austin, TX"}
		if extractor.calls[0] != want {
			t.Errorf("descriptor = %+v, want %+v", extractor.calls[0], want)
		}
	})

	t.Run("pipeline failures still answer 200", func(t *testing.T) {
		extractor := &MockExtractor{result: func(desc domain.RestaurantDescriptor) *domain.ExtractionResult {
			return &domain.ExtractionResult{
				RestaurantID: desc.ID,
				Items:        []domain.MenuItem{},
				Error:        domain.ErrAllSourcesExhausted.Error(),
			}
		}}
		router := setupTestRouter(extractor)

		w := postExtract(router, `{"id":"r2","name":"Nowhere","url":"https://nowhere.example"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), domain.ErrAllSourcesExhausted.Error()) {
			t.Errorf("body = %s, want the exhaustion error", w.Body.String())
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		extractor := &MockExtractor{}
		router := setupTestRouter(extractor)

		for _, body := range []string{"", "{", `{"id": 7}`, "[]"} {
			w := postExtract(router, body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("body %q: Status = %d, want %d", body, w.Code, http.StatusBadRequest)
			}
		}
		if len(extractor.calls) != 0 {
			t.Errorf("extractor called %d times, want 0", len(extractor.calls))
		}
	})

	t.Run("unconfigured extractor", func(t *testing.T) {
		router := setupTestRouter(nil)

		w := postExtract(router, `{"id":"r1","name":"x","url":"https://x.example"}`)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		if !strings.Contains(w.Body.String(), "not configured") {
			t.Errorf("body = %s, want to contain 'not configured'", w.Body.String())
		}
	})

	t.Run("requires correct path and method", func(t *testing.T) {
		router := setupTestRouter(&MockExtractor{})

		cases := []struct{ method, path string }{
			{"GET", "/api/v1/menus/extract"},
			{"POST", "/api/v1/menus"},
			{"POST", "/api/menus/extract"},
			{"POST", "/menus/extract"},
		}
		for _, c := range cases {
			req, _ := http.NewRequest(c.method, c.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("%s %s: Status = %d, want %d", c.method, c.path, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(&MockExtractor{})

	req, _ := http.NewRequest("POST", "/api/v1/menus/extract", strings.NewReader(`{"id":"r1","name":"x","url":"https://x.example"}`))
	req.Header.Set("Origin", "https://review-7.menulens.dev")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://review-7.menulens.dev" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://review-7.menulens.dev")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter(nil)
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req, _ := http.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/menus/extract"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter(&MockExtractor{})

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q, want %q", got, "application/json; charset=utf-8")
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
