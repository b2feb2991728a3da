package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jcdickinson/apiref/internal/apimodel"
)

const (
	// FixturePrefix selects a bundled doc model: fixtures:<name>.
	FixturePrefix = "fixtures:"
	// LocalID selects the doc model configured as the local input file.
	LocalID = "local"

	userAgent = "apiref/0.1.0"
	// maxModelSize bounds a downloaded .api.json.
	maxModelSize = 64 << 20
)

var httpURLRe = regexp.MustCompile(`^https?://`)

// Document is a raw doc model and the package metadata it came with.
type Document struct {
	Data []byte
	Info apimodel.PackageInfo
}

// Loader acquires the raw doc model for a package identifier.
type Loader interface {
	Fetch(ctx context.Context, id string) (*Document, error)
}

// Fetcher loads doc models from the npm CDN, the fixtures directory or a
// local file, depending on the identifier.
type Fetcher struct {
	registryURL string
	fixturesDir string
	localInput  string
	httpClient  *http.Client
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFixturesDir sets the directory fixtures:<name> identifiers read from.
func WithFixturesDir(dir string) FetcherOption {
	return func(f *Fetcher) { f.fixturesDir = dir }
}

// WithLocalInput sets the file served for the "local" identifier.
func WithLocalInput(file string) FetcherOption {
	return func(f *Fetcher) { f.localInput = file }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewFetcher returns a Fetcher for the registry at registryURL
// (for example https://unpkg.com).
func NewFetcher(registryURL string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		registryURL: strings.TrimRight(registryURL, "/"),
		fixturesDir: "fixtures",
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the doc model for id.
func (f *Fetcher) Fetch(ctx context.Context, id string) (*Document, error) {
	switch {
	case strings.HasPrefix(id, FixturePrefix):
		return f.fetchFixture(strings.TrimPrefix(id, FixturePrefix))
	case id == LocalID && f.localInput != "":
		return f.fetchLocal()
	default:
		return f.fetchRegistry(ctx, id)
	}
}

func (f *Fetcher) fetchFixture(name string) (*Document, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: invalid fixture name %q", ErrPackageNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(f.fixturesDir, name+".api.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: fixture %s", ErrPackageNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", name, err)
	}

	doc := &Document{Data: data}
	meta, err := os.ReadFile(filepath.Join(f.fixturesDir, name+".package.json"))
	if err == nil {
		pj, err := decodePackageJSON(meta)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", name, err)
		}
		doc.Info = pj.info()
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading fixture metadata %s: %w", name, err)
	}
	return doc, nil
}

func (f *Fetcher) fetchLocal() (*Document, error) {
	data, err := os.ReadFile(f.localInput)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, f.localInput)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.localInput, err)
	}
	return &Document{Data: data}, nil
}

func (f *Fetcher) fetchRegistry(ctx context.Context, id string) (*Document, error) {
	if id == "" || strings.Contains(id, "..") {
		return nil, fmt.Errorf("%w: invalid identifier %q", ErrPackageNotFound, id)
	}

	body, err := f.get(ctx, id, "/package.json")
	if err != nil {
		return nil, err
	}
	pj, err := decodePackageJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if pj.DocModel == "" {
		return nil, fmt.Errorf("%w (%s)", ErrNoDocModel, id)
	}

	data, err := f.get(ctx, id, path.Join("/", pj.DocModel))
	if err != nil {
		return nil, err
	}
	return &Document{Data: data, Info: pj.info()}, nil
}

func (f *Fetcher) get(ctx context.Context, id, file string) ([]byte, error) {
	url := f.registryURL + "/" + id + file

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s%s", ErrPackageNotFound, id, file)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("registry returned %d for %s%s: %s", resp.StatusCode, id, file, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxModelSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxModelSize {
		return nil, fmt.Errorf("%s%s exceeds %d bytes", id, file, maxModelSize)
	}
	return data, nil
}

type packageJSON struct {
	Name     any    `json:"name"`
	Version  any    `json:"version"`
	Homepage any    `json:"homepage"`
	DocModel string `json:"docModel"`
}

func decodePackageJSON(data []byte) (*packageJSON, error) {
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("decoding package.json: %w", err)
	}
	return &pj, nil
}

func (pj *packageJSON) info() apimodel.PackageInfo {
	info := apimodel.PackageInfo{
		Name:    stringField(pj.Name),
		Version: stringField(pj.Version),
	}
	if home := stringField(pj.Homepage); httpURLRe.MatchString(home) {
		info.Homepage = home
	}
	return info
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
