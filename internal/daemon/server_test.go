package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcdickinson/apiref/internal/cas"
	"github.com/jcdickinson/apiref/internal/config"
	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/rpc"
)

const calc = "fixtures:calculator"

func testServer(t *testing.T) (*Server, *httptest.Server, *Client) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "db.db"))
	require.NoError(t, err)

	cfg := &config.Config{
		Web:      config.WebConfig{CacheControl: "public, max-age=60"},
		Daemon:   config.DaemonConfig{ExpirationSeconds: 600},
		Registry: config.RegistryConfig{URL: "http://127.0.0.1:0", Timeout: time.Second},
		Fixtures: config.FixturesConfig{Dir: filepath.Join("..", "..", "fixtures")},
		Highlight: config.HighlightConfig{
			Enabled:  true,
			Style:    "onedark",
			Language: "typescript",
		},
	}
	s := NewServer(cfg, database, "", WithStore(cas.New(t.TempDir())), WithLogger(zap.NewNop()))
	s.exit = func(int) {}

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		database.Close()
	})
	return s, srv, &Client{baseURL: srv.URL, httpClient: srv.Client()}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPackagePage_JSON(t *testing.T) {
	_, srv, _ := testServer(t)

	resp, body := get(t, srv.URL+"/package/"+calc+"/Calculator.add")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "public, max-age=60", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var data struct {
		BaseURL      string `json:"baseUrl"`
		Slug         string `json:"slug"`
		Title        string `json:"title"`
		Navigation   []json.RawMessage
		DocViewProps struct {
			Title string `json:"title"`
			Kind  string `json:"kind"`
		} `json:"docViewProps"`
		PackageInfo struct {
			Name string `json:"name"`
		} `json:"packageInfo"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &data))
	assert.Equal(t, "/package/"+calc, data.BaseURL)
	assert.Equal(t, "Calculator.add", data.Slug)
	assert.Equal(t, "Calculator.add", data.Title)
	assert.Equal(t, "Method", data.DocViewProps.Kind)
	assert.Equal(t, "@example/calculator", data.PackageInfo.Name)
	assert.Len(t, data.Navigation, 1, "the entry point is the single navigation root")
}

func TestPackagePage_RootAndFormats(t *testing.T) {
	_, srv, _ := testServer(t)

	resp, body := get(t, srv.URL+"/package/"+calc+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"slug":""`)

	resp, body = get(t, srv.URL+"/package/"+calc+"/Calculator.add?format=markdown")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown"))
	assert.True(t, strings.HasPrefix(body, "---\n"), body)
	assert.Contains(t, body, "package: "+`"`+calc+`"`)
	assert.Contains(t, body, "# Calculator.add (Method)")

	resp, body = get(t, srv.URL+"/package/"+calc+"/Calculator?format=html")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, body, "<h1")
	assert.NotContains(t, body, "<script")

	resp, body = get(t, srv.URL+"/package/"+calc+"/Calculator?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, rpc.CodeBadRequest)
}

func TestPackagePage_NotFoundCodes(t *testing.T) {
	_, srv, _ := testServer(t)

	resp, body := get(t, srv.URL+"/package/"+calc+"/Nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"page_not_found"`)

	resp, body = get(t, srv.URL+"/package/fixtures:missing/Anything")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"package_not_found"`)
}

func TestClient_GetPage(t *testing.T) {
	_, _, client := testServer(t)
	ctx := context.Background()

	resp, err := client.GetPage(ctx, rpc.GetPageRequest{Package: calc, Path: "Color", Format: rpc.FormatMarkdown})
	require.NoError(t, err)
	assert.Equal(t, "Color", resp.Page.Slug)
	assert.Contains(t, resp.Markdown, "## Enumeration Members")
	assert.Empty(t, resp.HTML)

	_, err = client.GetPage(ctx, rpc.GetPageRequest{Package: calc, Path: "Nope"})
	assert.ErrorIs(t, err, rpc.ErrPageNotFound)

	_, err = client.GetPage(ctx, rpc.GetPageRequest{Package: "fixtures:missing"})
	assert.ErrorIs(t, err, rpc.ErrPackageNotFound)

	_, err = client.GetPage(ctx, rpc.GetPageRequest{})
	assert.ErrorIs(t, err, rpc.ErrBadRequest)
}

func TestClient_AddSearchStatus(t *testing.T) {
	_, _, client := testServer(t)
	ctx := context.Background()

	var progress []string
	added, err := client.AddPackages(ctx, []string{calc, "fixtures:missing"}, func(msg string) {
		progress = append(progress, msg)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"loading " + calc, "loading fixtures:missing"}, progress)
	require.Len(t, added.Results, 2)
	assert.Equal(t, "@example/calculator", added.Results[0].Name)
	assert.Equal(t, 19, added.Results[0].Pages)
	assert.Positive(t, added.Results[0].Symbols)
	assert.Empty(t, added.Results[0].Error)
	assert.NotEmpty(t, added.Results[1].Error)

	found, err := client.Search(ctx, rpc.SearchRequest{Query: "add"})
	require.NoError(t, err)
	require.NotEmpty(t, found.Results)
	assert.Equal(t, "add", found.Results[0].Title)
	assert.Equal(t, "/package/"+calc+"/add", found.Results[0].Route)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{calc}, status.Loaded)
	require.Len(t, status.Packages, 1)
	assert.Equal(t, calc, status.Packages[0].ID)
	assert.True(t, status.Packages[0].Loaded)

	recent, err := client.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, recent.Packages, 1)

	require.NoError(t, client.ClearCache(ctx))
	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.Packages)
	assert.Empty(t, status.Loaded)
}

func TestClient_NavigationAndResolve(t *testing.T) {
	_, _, client := testServer(t)
	ctx := context.Background()

	nav, err := client.Navigation(ctx, calc)
	require.NoError(t, err)
	require.Len(t, nav.Navigation, 1)
	assert.Equal(t, "@example/calculator", nav.Navigation[0].Title)
	assert.NotEmpty(t, nav.Navigation[0].Children)

	cases := map[string]string{
		"@example/calculator!Calculator:class": "/package/" + calc + "/Calculator",
		"Calculator.add":                       "/package/" + calc + "/Calculator.add",
		"Color.Red":                            "/package/" + calc + "/Color#Red",
	}
	for ref, want := range cases {
		res, err := client.Resolve(ctx, rpc.ResolveRequest{Package: calc, Reference: ref})
		require.NoError(t, err, ref)
		assert.True(t, res.Found, ref)
		assert.Equal(t, want, res.Route, ref)
	}

	res, err := client.Resolve(ctx, rpc.ResolveRequest{Package: calc, Reference: "Nothing"})
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = client.Resolve(ctx, rpc.ResolveRequest{Package: calc})
	assert.ErrorIs(t, err, rpc.ErrBadRequest)
}

func TestMetricsAndHealth(t *testing.T) {
	_, srv, _ := testServer(t)

	resp, _ := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/package/"+calc+"/add")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "apiref_pages_rendered_total 1")
	assert.Contains(t, body, `apiref_model_loads_total{result="success"} 1`)
}

func TestShutdown(t *testing.T) {
	s, _, client := testServer(t)
	exited := make(chan int, 1)
	s.exit = func(code int) { exited <- code }

	require.NoError(t, client.Shutdown(context.Background()))
	select {
	case code := <-exited:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit")
	}
}
