package postfilter_test

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellisa/iacsec/internal/modelcache"
	"github.com/intellisa/iacsec/internal/postfilter"
	"github.com/intellisa/iacsec/internal/registry"
)

// newLoader builds a loader over a temp registry with two local model sources.
func newLoader(t *testing.T) *postfilter.Loader {
	t.Helper()
	dir := t.TempDir()

	writeModel := func(name string, data []byte) (string, string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		sum := sha256.Sum256(data)
		return path, hex.EncodeToString(sum[:])
	}

	alphaPath, alphaSHA := writeModel("alpha.bin", []byte("alpha weights"))
	betaPath, _ := writeModel("beta.bin", []byte("beta weights"))

	doc := fmt.Sprintf(`
models:
  - name: alpha
    uri: %s
    version: "1.0.0"
    sha256: %s
    framework: torch
    default_threshold: 0.5
    labels: [TP, FP]
  - name: beta
    uri: %s
    version: "2.0.0"
    framework: onnx
    default_threshold: 0.7
    labels: [TP, FP]
`, alphaPath, alphaSHA, betaPath)

	regPath := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(regPath, []byte(doc), 0o644))

	reg, err := registry.Load(regPath)
	require.NoError(t, err)

	cache := modelcache.New(filepath.Join(dir, "cache"), nil, nil)
	return postfilter.NewLoader(reg, cache, nil)
}

func TestLoader_ActiveBeforeLoad(t *testing.T) {
	loader := newLoader(t)
	_, err := loader.Active()
	assert.ErrorIs(t, err, postfilter.ErrNoModelLoaded)
}

func TestLoader_LoadProducesVerifiedHandle(t *testing.T) {
	loader := newLoader(t)

	handle, err := loader.Load("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", handle.Name)
	assert.Equal(t, "1.0.0", handle.Version)
	assert.Equal(t, "torch", handle.Framework)
	assert.Equal(t, 0.5, handle.DefaultThreshold)
	assert.Equal(t, "alpha@1.0.0", handle.Descriptor())
	assert.FileExists(t, handle.Path)
}

func TestLoader_LastLoadWins(t *testing.T) {
	loader := newLoader(t)

	_, err := loader.Load("alpha")
	require.NoError(t, err)
	_, err = loader.Load("beta")
	require.NoError(t, err)

	active, err := loader.Active()
	require.NoError(t, err)
	assert.Equal(t, "beta", active.Name)
}

func TestLoader_FailedLoadKeepsActiveHandle(t *testing.T) {
	loader := newLoader(t)

	_, err := loader.Load("alpha")
	require.NoError(t, err)

	_, err = loader.Load("missing")
	require.ErrorIs(t, err, registry.ErrModelNotFound)

	active, err := loader.Active()
	require.NoError(t, err)
	assert.Equal(t, "alpha", active.Name)
}
