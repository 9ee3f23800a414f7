package pkgcache

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

const (
	tarballTimeout   = 60 * time.Second
	downloadAttempts = 3
	retryDelay       = 500 * time.Millisecond
	userAgent        = "arcane-cli"
)

// TarballLocator returns the download URL of a published package version.
type TarballLocator interface {
	TarballURL(ctx context.Context, name, version string) (string, error)
}

// TarballBackend installs packages by downloading the registry tarball and
// extracting it into the cache.
type TarballBackend struct {
	logger     *zerolog.Logger
	locator    TarballLocator
	httpClient *http.Client
	attempts   uint
}

// NewTarballBackend creates a backend that looks up tarballs through locator.
func NewTarballBackend(logger *zerolog.Logger, locator TarballLocator) *TarballBackend {
	return NewTarballBackendWithHTTP(logger, locator, &http.Client{Timeout: tarballTimeout})
}

// NewTarballBackendWithHTTP creates a backend downloading through httpClient.
func NewTarballBackendWithHTTP(logger *zerolog.Logger, locator TarballLocator, httpClient *http.Client) *TarballBackend {
	return &TarballBackend{
		logger:     logger,
		locator:    locator,
		httpClient: httpClient,
		attempts:   downloadAttempts,
	}
}

// Install downloads req's tarball into a staging directory inside the store
// and renames it onto req.Dest once extraction finished.
func (b *TarballBackend) Install(ctx context.Context, req Request) error {
	url, err := b.locator.TarballURL(ctx, req.Name, req.Version)
	if err != nil {
		return err
	}

	staging := filepath.Join(req.StoreDir, ".staging-"+uuid.NewString())
	defer os.RemoveAll(staging)

	err = retry.Do(
		func() error {
			if err := os.RemoveAll(staging); err != nil {
				return retry.Unrecoverable(err)
			}
			return b.downloadAndExtract(ctx, url, staging)
		},
		retry.Context(ctx),
		retry.Attempts(b.attempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			b.logger.Debug().Err(err).Msgf("Retrying download of %s (attempt %d)", url, n+2)
		}),
	)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(req.Dest), 0755); err != nil {
		return fmt.Errorf("failed to create cache entry parent: %w", err)
	}
	if err := os.RemoveAll(req.Dest); err != nil {
		return fmt.Errorf("failed to clear cache entry %s: %w", req.Dest, err)
	}
	if err := os.Rename(staging, req.Dest); err != nil {
		return fmt.Errorf("failed to move package into cache: %w", err)
	}
	b.logger.Debug().Msgf("Installed %s into %s", req.Spec, req.Dest)
	return nil
}

func (b *TarballBackend) downloadAndExtract(ctx context.Context, url, destDir string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("User-Agent", userAgent)

	b.logger.Debug().Msgf("Downloading %s", url)
	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to download tarball: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("tarball download failed with status: %s", resp.Status)
		if resp.StatusCode < http.StatusInternalServerError {
			return retry.Unrecoverable(err)
		}
		return err
	}

	return b.extractTarball(resp.Body, destDir)
}

// extractTarball unpacks a gzip+tar stream into destDir, dropping the single
// top-level directory npm packs everything under ("package/").
func (b *TarballBackend) extractTarball(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	cleanDest := filepath.Clean(destDir) + string(os.PathSeparator)

	tr := tar.NewReader(gz)
	var topLevelPrefix string
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}
		if header.Typeflag == tar.TypeXGlobalHeader || header.Typeflag == tar.TypeXHeader {
			continue
		}

		if topLevelPrefix == "" {
			topLevelPrefix = strings.SplitN(header.Name, "/", 2)[0] + "/"
		}
		name := strings.TrimPrefix(header.Name, topLevelPrefix)
		if name == "" || name == header.Name {
			continue
		}

		targetPath := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(filepath.Clean(targetPath)+string(os.PathSeparator), cleanDest) {
			return retry.Unrecoverable(fmt.Errorf("illegal file path in archive: %s", header.Name))
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", targetPath, err)
			}
		case tar.TypeReg:
			if err := writeFile(tr, targetPath, os.FileMode(header.Mode)&0755|0600); err != nil {
				return err
			}
		default:
			b.logger.Debug().Msgf("Skipping %s (type %c)", header.Name, header.Typeflag)
		}
	}
	return nil
}

func writeFile(r io.Reader, path string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return f.Close()
}
