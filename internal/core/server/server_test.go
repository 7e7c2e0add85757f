package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(port int) *config.AppConfig {
	return &config.AppConfig{ServerPort: port, CORSAllowedOrigins: "*"}
}

// TestNew verifies that New creates a Server with the correct configuration.
func TestNew(t *testing.T) {
	cfg := testConfig(8080)

	logger.Init("development", "debug")
	srv := New(cfg)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.App)
	assert.Equal(t, cfg, srv.cfg)
}

// TestServer_Run_Error verifies that Run returns an error when binding fails (e.g., privileged port).
func TestServer_Run_Error(t *testing.T) {
	logger.Init("development", "error")

	srv := New(testConfig(1))

	errCh := make(chan error)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(1 * time.Second):
		srv.App.Shutdown()
		t.Log("Server unexpectedly started or timed out on Error test")
	}
}

func TestServer_AccessLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, logger.InitWithOptions("production", "info", logger.Options{File: path}))
	t.Cleanup(func() { logger.Init("development", "info") })

	srv := New(testConfig(8080))
	resp, err := srv.App.Test(httptest.NewRequest("GET", "/health/live?token=eyJsecret", nil))
	require.NoError(t, err)
	rayID := resp.Header.Get("X-Ray-ID")
	require.NotEmpty(t, rayID)
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"path":"/health/live"`)
	assert.Contains(t, line, `"rayId":"`+rayID+`"`)
	assert.NotContains(t, line, "eyJsecret")
}

func TestServer_Health(t *testing.T) {
	srv := New(testConfig(8080))

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	srv.AddHealthCheck("database", func(context.Context) error { return nil })
	resp, err = srv.App.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	srv.AddHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	resp, err = srv.App.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestErrorHandler_MapsKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		fields  []string
	}{
		{"Validation", fmt.Errorf("create: %w", apperr.NewValidation("receiver.phone is required")), 400, "Validation failed", []string{"receiver.phone is required"}},
		{"InvalidID", apperr.Invalid("Invalid parcel id"), 400, "Invalid parcel id", nil},
		{"Duplicate", apperr.Duplicate("Email already registered"), 400, "Email already registered", nil},
		{"Unauthorized", apperr.ErrUnauthorized, 401, "Not authorized", nil},
		{"Forbidden", fmt.Errorf("get: %w", apperr.Forbidden("Access denied")), 403, "Access denied", nil},
		{"NotFound", apperr.NotFound("Parcel not found"), 404, "Parcel not found", nil},
		{"FiberError", fiber.ErrMethodNotAllowed, 405, "Method Not Allowed", nil},
		{"Internal", errors.New("pq: connection reset"), 500, "Internal server error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Use(func(c *fiber.Ctx) error {
				c.Locals("requestid", "test-ray-id")
				return c.Next()
			})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.fields, body.Errors)
			assert.Equal(t, "test-ray-id", body.RayID)
		})
	}
}
