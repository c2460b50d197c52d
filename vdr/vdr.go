// Package vdr abstracts Verifiable Data Registries: per-method resolvers
// that turn a DID into a DID Document. The Registry dispatches on the DID
// method, memoizes documents in a bounded TTL cache, and collapses
// concurrent identical resolutions into one in-flight request.
package vdr

import (
	"context"
	"errors"

	"github.com/wow-sven/nuwa-sub012/identity"
)

// ErrUnsupportedMethod is returned when no VDR is registered for a DID's
// method. This is a hard failure, not a retryable one.
var ErrUnsupportedMethod = errors.New("unsupported DID method")

// CreateRequest carries the inputs for registering a new DID with a VDR.
type CreateRequest struct {
	// PublicKeyMultibase is the initial verification key, multicodec-prefixed.
	PublicKeyMultibase string

	// Controller optionally names a controller DID for the new document.
	Controller string

	// Options carries method-specific parameters.
	Options map[string]any
}

// CreateResult reports the outcome of a create operation.
type CreateResult struct {
	Success  bool
	Document *identity.Document
	Error    string
}

// VDR resolves and registers DIDs for exactly one method.
//
// Resolve returns (nil, nil) when the DID genuinely does not exist; a
// non-nil error means resolution itself failed and may be retried by the
// caller.
type VDR interface {
	Method() string
	Resolve(ctx context.Context, did string) (*identity.Document, error)
	Exists(ctx context.Context, did string) (bool, error)
	Create(ctx context.Context, req *CreateRequest) (*CreateResult, error)
}
