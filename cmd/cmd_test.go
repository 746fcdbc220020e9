package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orca-models/orca/pkg/registry"
)

const blobDigest = "sha256:0b5d1a"

func testContent(size int) []byte {
	content := make([]byte, size)
	rnd := rand.New(rand.NewSource(7))
	_, _ = rnd.Read(content)
	return content
}

func serveBlob(content []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}
}

// newRegistry serves a manifest for library/tiny:latest whose model layer is content.
func newRegistry(t *testing.T, content []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/library/tiny/manifests/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.docker.distribution.manifest.v2+json")
		_, _ = fmt.Fprintf(w, `{"schemaVersion":2,"layers":[`+
			`{"mediaType":"application/vnd.ollama.image.license","digest":"sha256:license","size":5},`+
			`{"mediaType":"application/vnd.ollama.image.model","digest":%q,"size":%d}]}`, blobDigest, len(content))
	})
	mux.HandleFunc("/v2/library/tiny/blobs/"+blobDigest, serveBlob(content))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func runOrca(args ...string) error {
	viper.Reset()
	rootCMD := GetRootCommand()
	rootCMD.SetArgs(args)
	rootCMD.SetOut(io.Discard)
	rootCMD.SetErr(io.Discard)
	return rootCMD.ExecuteContext(context.Background())
}

var smallParts = []string{"--progress", "none", "--min-part-size", "64KiB", "--max-part-size", "128KiB"}

func TestRootCommandDownloads(t *testing.T) {
	defer viper.Reset()
	content := testContent(300 * 1024)
	ts := httptest.NewServer(serveBlob(content))
	defer ts.Close()
	dest := filepath.Join(t.TempDir(), "model.bin")

	err := runOrca(append(smallParts, ts.URL, dest)...)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestRootCommandRefusesExistingDest(t *testing.T) {
	defer viper.Reset()
	ts := httptest.NewServer(serveBlob(testContent(1024)))
	defer ts.Close()
	dest := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(dest, []byte("keep"), 0o644))

	err := runOrca(append(smallParts, ts.URL, dest)...)
	require.Error(t, err)

	kept, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), kept)
}

func TestExportCommandDownloadsModelLayer(t *testing.T) {
	defer viper.Reset()
	content := testContent(200 * 1024)
	ts := newRegistry(t, content)
	dir := t.TempDir()
	dest := filepath.Join(dir, "tiny.gguf")

	args := append([]string{"export", "--registry", ts.URL, "--pid-file", filepath.Join(dir, "orca.pid")}, smallParts...)
	err := runOrca(append(args, "tiny", dest)...)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestExportCommandRejectsHostInReference(t *testing.T) {
	defer viper.Reset()
	dest := filepath.Join(t.TempDir(), "model.gguf")

	err := runOrca("export", "--progress", "none", "registry.example.com:5000/ns/model", dest)
	assert.ErrorIs(t, err, registry.ErrInvalidReference)
	assert.NoFileExists(t, dest)
}

func TestExportCommandMissingManifest(t *testing.T) {
	defer viper.Reset()
	ts := newRegistry(t, testContent(1024))
	dest := filepath.Join(t.TempDir(), "model.gguf")

	err := runOrca(append([]string{"export", "--registry", ts.URL}, append(smallParts, "absent", dest)...)...)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
}
