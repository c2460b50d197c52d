package vdr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wow-sven/nuwa-sub012/identity"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPVDR resolves DIDs of one method against a remote registry endpoint:
// GET <baseURL>/<did> returns the DID Document, POST <baseURL> registers
// one. The client transport is instrumented with otelhttp.
type HTTPVDR struct {
	method  string
	baseURL string
	client  *http.Client
}

// HTTPVDROption configures an HTTPVDR.
type HTTPVDROption func(*HTTPVDR)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(client *http.Client) HTTPVDROption {
	return func(v *HTTPVDR) {
		v.client = client
	}
}

// NewHTTPVDR creates a resolver for the given DID method backed by a remote
// registry at baseURL.
func NewHTTPVDR(method, baseURL string, opts ...HTTPVDROption) (*HTTPVDR, error) {
	if method == "" {
		return nil, fmt.Errorf("DID method is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("registry base URL is required")
	}

	v := &HTTPVDR{
		method:  method,
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Method returns the DID method this resolver serves.
func (v *HTTPVDR) Method() string {
	return v.method
}

// Resolve fetches the DID Document from the registry endpoint. A 404 from
// the registry is a negative result, not an error.
func (v *HTTPVDR) Resolve(ctx context.Context, did string) (*identity.Document, error) {
	parsed, err := identity.Parse(did)
	if err != nil {
		return nil, err
	}
	if parsed.Method != v.method {
		return nil, fmt.Errorf("%w: resolver serves did:%s, got did:%s", ErrUnsupportedMethod, v.method, parsed.Method)
	}

	apiURL := v.baseURL + "/" + url.PathEscape(did)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolution request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach DID registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DID registry returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	var doc identity.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document: %w", err)
	}
	return &doc, nil
}

// Exists reports whether the registry holds a document for the DID.
func (v *HTTPVDR) Exists(ctx context.Context, did string) (bool, error) {
	doc, err := v.Resolve(ctx, did)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// Create registers a new DID with the remote registry.
func (v *HTTPVDR) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	if req == nil || req.PublicKeyMultibase == "" {
		return &CreateResult{Success: false, Error: "publicKeyMultibase is required"}, nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach DID registry: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &CreateResult{Success: false, Error: fmt.Sprintf("registry returned %s: %s", resp.Status, body)}, nil
	}

	var doc identity.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created DID document: %w", err)
	}
	return &CreateResult{Success: true, Document: &doc}, nil
}

var _ VDR = (*HTTPVDR)(nil)
