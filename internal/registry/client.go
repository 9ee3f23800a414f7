package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org"

	apiTimeout = 10 * time.Second
	userAgent  = "arcane-cli"
)

// ErrRegistry marks a version lookup that failed or returned nothing usable.
var ErrRegistry = errors.New("registry lookup failed")

// packageDocument is the subset of the registry's package document we read.
type packageDocument struct {
	Name     string                     `json:"name"`
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]versionDocument `json:"versions"`
}

type versionDocument struct {
	Version string `json:"version"`
	Dist    struct {
		Tarball   string `json:"tarball"`
		Integrity string `json:"integrity"`
	} `json:"dist"`
}

// Client fetches package documents from an npm compatible registry.
type Client struct {
	logger     *zerolog.Logger
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a registry client for baseURL. An empty baseURL selects DefaultRegistry.
func NewClient(logger *zerolog.Logger, baseURL string) *Client {
	return NewClientWithHTTP(logger, baseURL, &http.Client{Timeout: apiTimeout})
}

// NewClientWithHTTP creates a registry client that sends requests through httpClient.
func NewClientWithHTTP(logger *zerolog.Logger, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	return &Client{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the registry root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Versions returns every published version of name, in registry order.
// A non-200 response is treated as "no data" and yields an empty list.
func (c *Client) Versions(ctx context.Context, name string) ([]string, error) {
	doc, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	versions := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		versions = append(versions, v)
	}
	return versions, nil
}

// TarballURL returns the dist.tarball URL of a published version.
func (c *Client) TarballURL(ctx context.Context, name, version string) (string, error) {
	doc, err := c.fetch(ctx, name)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("%w: package %s not found", ErrRegistry, name)
	}
	v, ok := doc.Versions[version]
	if !ok || v.Dist.Tarball == "" {
		return "", fmt.Errorf("%w: %s@%s has no tarball", ErrRegistry, name, version)
	}
	return v.Dist.Tarball, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*packageDocument, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty package name", ErrRegistry)
	}

	docURL := c.packageURL(name)
	c.logger.Debug().Msgf("Fetching package document from %s", docURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrRegistry, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %w", ErrRegistry, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Msgf("Registry returned %s for %s", resp.Status, name)
		return nil, nil
	}

	var doc packageDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode package document for %s: %w", ErrRegistry, name, err)
	}
	return &doc, nil
}

// packageURL joins the registry base with the package name. Scoped names keep
// their leading "@" and escape the separator, the way npm clients request them.
func (c *Client) packageURL(name string) string {
	if strings.HasPrefix(name, "@") {
		return c.baseURL + "/@" + url.PathEscape(strings.TrimPrefix(name, "@"))
	}
	return c.baseURL + "/" + url.PathEscape(name)
}
