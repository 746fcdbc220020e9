// Package registry resolves model references to the URL and size of their weight blob.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/orca-models/orca/pkg/logging"
)

const (
	DefaultHost = "registry.ollama.ai"

	defaultNamespace = "library"
	defaultTag       = "latest"

	modelMediaType    = "application/vnd.ollama.image.model"
	manifestMediaType = "application/vnd.docker.distribution.manifest.v2+json"
)

var (
	ErrInvalidReference = errors.New("invalid model reference")
	ErrNoLayers         = errors.New("manifest has no layers")
	ErrMissingDigest    = errors.New("manifest layer has no digest")
)

// Reference names a model as [namespace/]model[:tag].
type Reference struct {
	Namespace string
	Model     string
	Tag       string
}

func ParseReference(s string) (Reference, error) {
	ref := Reference{Namespace: defaultNamespace, Tag: defaultTag}
	name := s
	// a ':' before the last '/' belongs to a host:port, which references do not carry
	if i := strings.LastIndex(s, ":"); i > strings.LastIndex(s, "/") {
		name, ref.Tag = s[:i], s[i+1:]
	}
	switch parts := strings.Split(name, "/"); len(parts) {
	case 1:
		ref.Model = parts[0]
	case 2:
		ref.Namespace, ref.Model = parts[0], parts[1]
	default:
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	if ref.Namespace == "" || ref.Model == "" || ref.Tag == "" || strings.Contains(name, ":") {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	return ref, nil
}

func (r Reference) String() string {
	return fmt.Sprintf("%s/%s:%s", r.Namespace, r.Model, r.Tag)
}

type Layer struct {
	MediaType string `json:"mediaType"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

type Manifest struct {
	SchemaVersion int     `json:"schemaVersion"`
	MediaType     string  `json:"mediaType"`
	Layers        []Layer `json:"layers"`
}

// Blob is where a model's weights can be fetched from.
type Blob struct {
	URL    string
	Digest string
	Size   int64
}

// Resolver looks up manifests on an OCI-style model registry.
type Resolver struct {
	Client *http.Client
	Host   string
	// Scheme defaults to https.
	Scheme string
}

// NewResolver returns a resolver for host. host may carry a scheme, e.g. http://localhost:5000 for a plain-HTTP
// registry; otherwise https is used.
func NewResolver(client *http.Client, host string) *Resolver {
	if host == "" {
		host = DefaultHost
	}
	scheme := "https"
	if before, after, found := strings.Cut(host, "://"); found {
		scheme, host = before, strings.TrimSuffix(after, "/")
	}
	return &Resolver{Client: client, Host: host, Scheme: scheme}
}

// Resolve fetches the manifest for ref and returns its model layer, or the first layer when no layer is marked as
// model weights.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (Blob, error) {
	logger := logging.Component("registry")
	manifestURL := fmt.Sprintf("%s/v2/%s/%s/manifests/%s", r.baseURL(), ref.Namespace, ref.Model, ref.Tag)
	logger.Debug().Str("manifest_url", manifestURL).Msg("Resolving")

	manifest, err := r.fetchManifest(ctx, manifestURL)
	if err != nil {
		return Blob{}, fmt.Errorf("resolving %s: %w", ref, err)
	}
	layer, err := modelLayer(manifest)
	if err != nil {
		return Blob{}, fmt.Errorf("resolving %s: %w", ref, err)
	}

	blob := Blob{
		URL:    fmt.Sprintf("%s/v2/%s/%s/blobs/%s", r.baseURL(), ref.Namespace, ref.Model, layer.Digest),
		Digest: layer.Digest,
		Size:   layer.Size,
	}
	logger.Info().Str("model", ref.String()).Str("digest", blob.Digest).Int64("size", blob.Size).Msg("Resolved")
	return blob, nil
}

func (r *Resolver) fetchManifest(ctx context.Context, manifestURL string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", manifestMediaType)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching manifest", resp.StatusCode)
	}

	var manifest Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &manifest, nil
}

func modelLayer(manifest *Manifest) (Layer, error) {
	if len(manifest.Layers) == 0 {
		return Layer{}, ErrNoLayers
	}
	layer := manifest.Layers[0]
	for _, l := range manifest.Layers {
		if l.MediaType == modelMediaType {
			layer = l
			break
		}
	}
	if layer.Digest == "" {
		return Layer{}, ErrMissingDigest
	}
	return layer, nil
}

func (r *Resolver) baseURL() string {
	scheme := r.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = DefaultHost
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}
