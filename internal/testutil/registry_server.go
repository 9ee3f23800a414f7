package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// RegistryServer is an in-memory npm registry serving package documents and
// gzipped tarballs.
type RegistryServer struct {
	*httptest.Server

	mu       sync.Mutex
	packages map[string]map[string][]byte
	requests []string
}

// NewRegistryServer starts a registry that is closed with the test.
func NewRegistryServer(t *testing.T) *RegistryServer {
	t.Helper()
	r := &RegistryServer{packages: map[string]map[string][]byte{}}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.Close)
	return r
}

// Publish adds version of name with files packed under "package/", the way
// npm packs them.
func (r *RegistryServer) Publish(t *testing.T, name, version string, files map[string]string) {
	t.Helper()
	tarball, err := PackTarball(files)
	if err != nil {
		t.Fatalf("failed to pack %s@%s: %v", name, version, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.packages[name] == nil {
		r.packages[name] = map[string][]byte{}
	}
	r.packages[name][version] = tarball
}

// Requests returns the paths requested so far.
func (r *RegistryServer) Requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}

func (r *RegistryServer) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req.URL.Path)

	path := strings.TrimPrefix(req.URL.Path, "/")
	if name, file, ok := strings.Cut(path, "/-/"); ok {
		r.serveTarball(w, name, file)
		return
	}

	versions, ok := r.packages[path]
	if !ok {
		http.NotFound(w, req)
		return
	}

	type dist struct {
		Tarball string `json:"tarball"`
	}
	type versionDoc struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Dist    dist   `json:"dist"`
	}
	doc := struct {
		Name     string                `json:"name"`
		Versions map[string]versionDoc `json:"versions"`
	}{Name: path, Versions: map[string]versionDoc{}}
	for v := range versions {
		doc.Versions[v] = versionDoc{
			Name:    path,
			Version: v,
			Dist:    dist{Tarball: fmt.Sprintf("%s/%s/-/%s.tgz", r.URL, path, v)},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (r *RegistryServer) serveTarball(w http.ResponseWriter, name, file string) {
	tarball, ok := r.packages[name][strings.TrimSuffix(file, ".tgz")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(tarball)
}

// PackTarball builds a gzipped tar with files under the "package/" prefix.
func PackTarball(files map[string]string) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		body := files[name]
		hdr := &tar.Header{
			Name:     "package/" + name,
			Mode:     0644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
