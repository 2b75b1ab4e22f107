// File: internal/modelcache/cache.go
// Description: Local artifact cache for post-filter model weights. Fetches on
// miss or digest mismatch and verifies integrity against the registry digest.

package modelcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/internal/registry"
)

// ErrSourceNotFound is returned when a file:// artifact source does not exist.
var ErrSourceNotFound = errors.New("model source file not found")

// ErrDownloadFailed wraps transport errors fetching a remote artifact.
var ErrDownloadFailed = errors.New("model download failed")

// ErrChecksumMismatch is returned when a freshly fetched artifact still fails
// digest verification. This is a tamper or misconfiguration signal, never
// retried and never silently accepted.
var ErrChecksumMismatch = errors.New("model checksum mismatch")

// Cache materializes registry entries into verified local artifact files.
type Cache struct {
	root   string
	client *http.Client
	logger *zap.Logger
}

// New creates a cache rooted at dir. A nil client defaults to
// http.DefaultClient.
func New(dir string, client *http.Client, logger *zap.Logger) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{root: dir, client: client, logger: logger.Named("modelcache")}
}

// TargetPath computes the deterministic local path for an entry: the basename
// of the URI path under the cache root, or "{name}-{version}.bin" when the URI
// has no path component.
func (c *Cache) TargetPath(entry registry.Entry) string {
	filename := ""
	if parsed, err := url.Parse(entry.URI); err == nil {
		filename = filepath.Base(parsed.Path)
	}
	if filename == "" || filename == "." || filename == "/" {
		filename = fmt.Sprintf("%s-%s.bin", entry.Name, entry.Version)
	}
	return filepath.Join(c.root, filename)
}

// EnsureCached guarantees a local, integrity-verified copy of the entry's
// artifact and returns its path. With an intact cache the call performs no I/O
// beyond the existence and digest checks.
func (c *Cache) EnsureCached(entry registry.Entry) (string, error) {
	target := c.TargetPath(entry)
	shouldVerify := IsHexDigest(entry.SHA256)

	fresh := false
	if _, err := os.Stat(target); os.IsNotExist(err) {
		fresh = true
	} else if shouldVerify {
		ok, err := verifySHA(target, entry.SHA256)
		if err != nil {
			return "", err
		}
		if !ok {
			c.logger.Warn("Cached artifact failed verification, refetching",
				zap.String("model", entry.Name),
				zap.String("path", target),
			)
			fresh = true
		}
	}

	if fresh {
		if err := c.fetch(entry.URI, target); err != nil {
			return "", err
		}
		if shouldVerify {
			ok, err := verifySHA(target, entry.SHA256)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", fmt.Errorf("%w: model %q after download", ErrChecksumMismatch, entry.Name)
			}
		}
		c.logger.Info("Model artifact cached",
			zap.String("model", entry.Name),
			zap.String("version", entry.Version),
			zap.String("path", target),
		)
	}

	return target, nil
}

// fetch copies or downloads the artifact at uri to target.
func (c *Cache) fetch(uri, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" || parsed.Scheme == "file" {
		source := uri
		if err == nil && parsed.Scheme == "file" {
			source = parsed.Path
		}
		return copyFile(source, target)
	}

	resp, err := c.client.Get(uri)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrDownloadFailed, uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %s", ErrDownloadFailed, uri, resp.Status)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("%w: writing %s: %v", ErrDownloadFailed, target, err)
	}
	return out.Close()
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, source)
		}
		return fmt.Errorf("open model source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("copy model artifact: %w", err)
	}
	return out.Close()
}

// verifySHA reports whether the file at path hashes to the expected digest.
func verifySHA(path, expected string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open cached artifact: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, fmt.Errorf("hash cached artifact: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)) == expected, nil
}

// IsHexDigest reports whether value is a usable sha256 digest: exactly 64
// hexadecimal characters. Anything else means "no verification requested".
func IsHexDigest(value string) bool {
	if len(value) != 64 {
		return false
	}
	if _, err := hex.DecodeString(value); err != nil {
		return false
	}
	return true
}
