package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/partons-hub/partons/internal/config"
	"github.com/partons-hub/partons/internal/server"
)

const legacyInfo = "SetIndex: 10800\nSetDesc: CT10 NLO\nAuthors: CTEQ\nYear: 2010\nErrorType: hessian\n"

func TestSourcesListing(t *testing.T) {
	app, dataPath := newSourcesApp(t)
	if err := os.MkdirAll(filepath.Join(dataPath, "lhapdf", "CT10"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var payload struct {
		Sources []sourcePayload `json:"sources"`
	}
	status := getJSON(t, app, "/-/sources", &payload)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(payload.Sources) != 1 {
		t.Fatalf("expected one source, got %+v", payload.Sources)
	}
	got := payload.Sources[0]
	if got.Name != "lhapdf" || got.Format != "legacy" || got.Cached != 1 || got.Patterns.Info != "{name}/{name}.info" {
		t.Fatalf("unexpected source payload %+v", got)
	}

	var sets struct {
		Sets []string `json:"sets"`
	}
	if status := getJSON(t, app, "/-/sources/lhapdf/sets", &sets); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(sets.Sets) != 1 || sets.Sets[0] != "CT10" {
		t.Fatalf("unexpected cached sets %v", sets.Sets)
	}
}

func TestSourceIndexAndInfo(t *testing.T) {
	app, _ := newSourcesApp(t)

	var idx struct {
		Sets []struct {
			ID      uint32 `json:"id"`
			Name    string `json:"name"`
			Members uint32 `json:"members"`
		} `json:"sets"`
	}
	if status := getJSON(t, app, "/-/sources/lhapdf/index", &idx); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(idx.Sets) != 2 || idx.Sets[0].Name != "CT10" || idx.Sets[1].Members != 101 {
		t.Fatalf("unexpected index %+v", idx.Sets)
	}

	if status := getJSON(t, app, "/-/sources/lhapdf/index?pattern=NNPDF.*", &idx); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(idx.Sets) != 1 || idx.Sets[0].ID != 331100 {
		t.Fatalf("pattern lookup returned %+v", idx.Sets)
	}

	var info struct {
		Info struct {
			Description string `json:"description"`
			ErrorType   string `json:"errorType"`
		} `json:"info"`
	}
	if status := getJSON(t, app, "/-/sources/lhapdf/sets/CT10/info", &info); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if info.Info.Description != "CT10 NLO" || info.Info.ErrorType != "hessian" {
		t.Fatalf("unexpected info %+v", info.Info)
	}
}

func TestSourceRouteErrors(t *testing.T) {
	app, _ := newSourcesApp(t)

	cases := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "unknown source", path: "/-/sources/nope/sets", status: fiber.StatusNotFound, code: "source_not_found"},
		{name: "unknown set", path: "/-/sources/lhapdf/sets/MISSING/info", status: fiber.StatusNotFound, code: "set_not_found"},
		{name: "ambiguous pattern", path: "/-/sources/lhapdf/index?pattern=.*", status: fiber.StatusConflict, code: "ambiguous_pattern"},
		{name: "invalid pattern", path: "/-/sources/lhapdf/index?pattern=(", status: fiber.StatusBadRequest, code: "invalid_pattern"},
		{name: "upstream 404", path: "/-/sources/lhapdf/sets/NNPDF40_nnlo_as_01180/info", status: fiber.StatusBadGateway, code: "upstream_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				Error string `json:"error"`
			}
			status := getJSON(t, app, tc.path, &body)
			if status != tc.status || body.Error != tc.code {
				t.Fatalf("expected %d/%s, got %d/%s", tc.status, tc.code, status, body.Error)
			}
		})
	}
}

func newSourcesApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pdfsets.index":
			_, _ = io.WriteString(w, "10800 CT10 53\n331100 NNPDF40_nnlo_as_01180 101\n")
		case "/CT10/CT10.info":
			_, _ = io.WriteString(w, legacyInfo)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	dataPath := t.TempDir()
	cfg := &config.Config{
		Global: config.GlobalConfig{DataPath: dataPath, ListenPort: 5000},
		Sources: []config.SourceConfig{
			{
				Name:     "lhapdf",
				URL:      upstream.URL + "/",
				Index:    upstream.URL + "/pdfsets.index",
				Format:   "legacy",
				Patterns: config.Patterns{Info: "{name}/{name}.info", Grids: "{name}.tar.gz"},
			},
		},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	registry, err := server.NewSourceRegistry(cfg, server.NewUpstreamClient(cfg), logger)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	app, err := server.NewApp(server.AppOptions{Logger: logger, Registry: registry, ListenPort: 5000})
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	RegisterSourceRoutes(app, registry)
	return app, dataPath
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		t.Fatalf("GET %s: expected JSON, got %q", path, resp.Header.Get("Content-Type"))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: decode: %v", path, err)
	}
	return resp.StatusCode
}
