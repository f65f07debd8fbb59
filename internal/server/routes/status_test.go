package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
)

func TestStatusRoute(t *testing.T) {
	app := fiber.New()
	RegisterStatusRoutes(app, StatusInfo{
		CacheBackend: "memory",
		CacheTTL:     30 * time.Minute,
		StartedAt:    time.Now(),
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/status", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Version      string `json:"version"`
		CacheBackend string `json:"cache_backend"`
		CacheTTLSecs int64  `json:"cache_ttl_secs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if payload.CacheBackend != "memory" {
		t.Fatalf("unexpected backend %q", payload.CacheBackend)
	}
	if payload.CacheTTLSecs != 1800 {
		t.Fatalf("unexpected ttl %d", payload.CacheTTLSecs)
	}
	if payload.Version == "" {
		t.Fatal("version should be populated")
	}
}
