package server

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/partons-hub/partons/internal/config"
)

func TestRouterSetsRequestID(t *testing.T) {
	app := newTestApp(t, 5000)
	app.Get("/-/ping", func(c fiber.Ctx) error {
		if RequestID(c) == "" {
			t.Errorf("request id should be available to handlers")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/ping", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 status, got %d", resp.StatusCode)
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestRouterReturnsJSON404ForUnknownPath(t *testing.T) {
	app := newTestApp(t, 5000)

	resp, err := app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 status, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"not_found"`)) {
		t.Fatalf("expected not_found error, got %s", string(body))
	}
}

func TestRouterHidesHandlerErrors(t *testing.T) {
	app := newTestApp(t, 5000)
	app.Get("/-/boom", func(fiber.Ctx) error {
		return errors.New("disk on fire")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/boom", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if bytes.Contains(body, []byte("disk on fire")) {
		t.Fatalf("internal error details leaked: %s", string(body))
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if _, err := NewApp(AppOptions{Registry: &SourceRegistry{}, ListenPort: 5000}); err == nil {
		t.Fatalf("missing logger should fail")
	}
	if _, err := NewApp(AppOptions{Logger: logger, ListenPort: 5000}); err == nil {
		t.Fatalf("missing registry should fail")
	}
	if _, err := NewApp(AppOptions{Logger: logger, Registry: &SourceRegistry{}}); err == nil {
		t.Fatalf("missing port should fail")
	}
}

func newTestApp(t *testing.T, port int) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		Global: config.GlobalConfig{
			DataPath:   t.TempDir(),
			ListenPort: port,
		},
		Sources: []config.SourceConfig{
			{
				Name:  "lhapdf",
				URL:   "https://lhapdfsets.web.cern.ch/current/",
				Index: "https://lhapdfsets.web.cern.ch/current/pdfsets.index",
			},
		},
	}

	registry, err := NewSourceRegistry(cfg, NewUpstreamClient(cfg), nil)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	if _, ok := registry.Lookup("lhapdf"); !ok {
		t.Fatalf("registry lookup failed for lhapdf")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app, err := NewApp(AppOptions{
		Logger:     logger,
		Registry:   registry,
		ListenPort: port,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}
