package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
	"github.com/five82/netmoya/internal/mockapi"
)

type harness struct {
	configPath string
	dir        string
}

func newHarness(t *testing.T, h http.Handler) harness {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`environment = "development"
base_url = %q
use_keyring = false
token_file = %q
log_file = %q
log_level = "debug"
`, srv.URL, filepath.Join(dir, "token.toml"), filepath.Join(dir, "netmoya.log"))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return harness{configPath: path, dir: dir}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (h harness) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out, &errOut)
	root := newRootCmd(c)
	root.SetArgs(append([]string{"--config", h.configPath, "--assume-online"}, args...))
	err := root.ExecuteContext(context.Background())
	if err != nil {
		c.reportError(err)
	}
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestProductsListText(t *testing.T) {
	h := newHarness(t, mockapi.New())
	res := h.run(t, "", "products", "list")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "iPhone 15 Pro")
	require.Contains(t, res.stdout, "Desk Lamp")
	require.Contains(t, res.stdout, "page 1 of 1, 4 total")
}

func TestProductsListJSONAndYAML(t *testing.T) {
	h := newHarness(t, mockapi.New())

	res := h.run(t, "", "products", "list", "--limit", "2", "-o", "json")
	require.NoError(t, res.err)
	var page catalog.ProductListResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &page))
	require.Len(t, page.Products, 2)
	require.True(t, page.HasMore())

	res = h.run(t, "", "products", "list", "--category", "Audio", "-o", "yaml")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "name: AirPods Pro")
	require.NotContains(t, res.stdout, "Desk Lamp")
}

func TestLoginLogoutFlow(t *testing.T) {
	h := newHarness(t, mockapi.New(mockapi.WithToken("secret")))

	res := h.run(t, "", "products", "list")
	require.ErrorIs(t, res.err, api.ErrUnauthorized)
	require.Contains(t, res.stderr, "(unauthorized)")

	res = h.run(t, "secret\n", "login")
	require.NoError(t, res.err)
	require.FileExists(t, filepath.Join(h.dir, "token.toml"))

	res = h.run(t, "", "products", "get", "1")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "iPhone 15 Pro")

	res = h.run(t, "", "logout")
	require.NoError(t, res.err)
	require.NoFileExists(t, filepath.Join(h.dir, "token.toml"))

	res = h.run(t, "", "products", "get", "1")
	require.ErrorIs(t, res.err, api.ErrUnauthorized)
}

func TestUnauthorizedClearsStoredToken(t *testing.T) {
	h := newHarness(t, mockapi.New(mockapi.WithToken("secret")))

	require.NoError(t, h.run(t, "", "login", "--token", "expired").err)
	require.FileExists(t, filepath.Join(h.dir, "token.toml"))

	res := h.run(t, "", "products", "list")
	require.ErrorIs(t, res.err, api.ErrUnauthorized)
	require.NoFileExists(t, filepath.Join(h.dir, "token.toml"))
}

func TestProductLifecycle(t *testing.T) {
	mock := mockapi.New()
	h := newHarness(t, mock)

	res := h.run(t, "", "products", "create",
		"--name", "Standing Desk", "--price", "420", "--currency", "EUR",
		"--category", "Home", "--stock", "7", "--sku", "SD-1", "-o", "json")
	require.NoError(t, res.err)
	var created catalog.Product
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "SD-1", *created.SKU)

	res = h.run(t, "", "products", "update", created.ID)
	require.ErrorIs(t, res.err, errNothingToUpdate)

	res = h.run(t, "", "products", "update", created.ID, "--price", "399.5")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "399.50 EUR")

	imagePath := filepath.Join(h.dir, "desk.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))
	res = h.run(t, "", "products", "upload-image", created.ID, imagePath)
	require.NoError(t, res.err)
	data, ok := mock.Image(created.ID)
	require.True(t, ok)
	require.Equal(t, "\x89PNG\r\n\x1a\nfake", string(data))

	res = h.run(t, "", "products", "delete", created.ID, "4")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "deleted "+created.ID)

	res = h.run(t, "", "products", "get", created.ID, "-o", "json")
	require.ErrorIs(t, res.err, api.ErrNotFound)
	// Warnings are mirrored to stderr ahead of the report.
	start := strings.LastIndex(res.stderr, "{\n")
	require.GreaterOrEqual(t, start, 0, res.stderr)
	var report errorReport
	require.NoError(t, json.Unmarshal([]byte(res.stderr[start:]), &report))
	require.Equal(t, "not_found", report.Kind)
	require.Equal(t, http.StatusNotFound, report.Status)
}

func TestCreateValidationError(t *testing.T) {
	h := newHarness(t, mockapi.New())
	res := h.run(t, "", "products", "create", "--price", "1")
	require.ErrorIs(t, res.err, api.ErrAPIError)
	require.Contains(t, res.stderr, "Validation failed")
}

func TestHealthAndTodos(t *testing.T) {
	h := newHarness(t, mockapi.New())

	res := h.run(t, "", "health")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "api ok")

	res = h.run(t, "", "todos")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, mockapi.SampleTodos()[0].Title)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t, mockapi.New())
	res := h.run(t, "", "health", "-o", "xml")
	require.Error(t, res.err)
	require.Contains(t, res.stderr, "unknown output format")
}

func TestLogsCommand(t *testing.T) {
	h := newHarness(t, mockapi.New())
	lines := `{"level":"info","time":"2026-01-10T08:30:00Z","message":"first"}
{"level":"warn","time":"2026-01-10T08:30:01Z","kind":"not_found","message":"request failed"}
`
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "netmoya.log"), []byte(lines), 0o600))

	res := h.run(t, "", "logs", "-n", "1")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "request failed kind=not_found")
	require.NotContains(t, res.stdout, "first")

	res = h.run(t, "", "logs", "--raw")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, `"message":"first"`)
}

func TestResponseShapeFlagAndConfig(t *testing.T) {
	bare := map[string]api.Shape{"list_products": api.ShapeBare}
	h := newHarness(t, mockapi.New(mockapi.WithShapes(bare)))

	res := h.run(t, "", "products", "list")
	require.ErrorIs(t, res.err, api.ErrDecoding)

	res = h.run(t, "", "--response-shape", "list_products=bare", "products", "list")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Desk Lamp")

	f, err := os.OpenFile(h.configPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("\n[shapes]\nlist_products = \"bare\"\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res = h.run(t, "", "products", "list")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Desk Lamp")

	res = h.run(t, "", "--response-shape", "list_products=xml", "products", "list")
	require.Error(t, res.err)
}

func TestParseShapes(t *testing.T) {
	shapes, err := parseShapes(map[string]string{"list_products": "Bare", "get_product": "envelope"})
	require.NoError(t, err)
	require.Equal(t, api.ShapeBare, shapes["list_products"])
	require.Equal(t, api.ShapeEnvelope, shapes["get_product"])

	_, err = parseShapes(map[string]string{"list_products": "xml"})
	require.Error(t, err)
}

func TestDetectMimeType(t *testing.T) {
	require.Equal(t, "image/webp", detectMimeType("image/webp", "a.png", nil))
	require.Equal(t, "image/png", detectMimeType("", "a.png", nil))
	require.Equal(t, "image/png", detectMimeType("", "noext", []byte("\x89PNG\r\n\x1a\n0000")))
}
