package auth

import (
	"context"
	"net/http"

	"github.com/wow-sven/nuwa-sub012/nonce"
	"github.com/wow-sven/nuwa-sub012/vdr"
)

type contextKey string

const signerDIDKey contextKey = "didauth_signer"

// ErrorHandler renders a verification failure to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, result VerifyResult)

// Middleware authenticates requests carrying a DIDAuth v1 Authorization
// header and injects the verified signer DID into the request context.
type Middleware struct {
	registry     *vdr.Registry
	store        nonce.Store
	opts         []VerifyOption
	errorHandler ErrorHandler
	optional     bool
}

// NewMiddleware builds DIDAuth middleware over a registry and nonce store.
// The verify options are applied to every request.
func NewMiddleware(registry *vdr.Registry, store nonce.Store, opts ...VerifyOption) *Middleware {
	return &Middleware{
		registry:     registry,
		store:        store,
		opts:         opts,
		errorHandler: defaultErrorHandler,
	}
}

// SetErrorHandler replaces the default failure response.
func (m *Middleware) SetErrorHandler(handler ErrorHandler) {
	if handler != nil {
		m.errorHandler = handler
	}
}

// SetOptional lets unauthenticated requests through without a signer DID in
// context. Requests that do carry a header are still fully verified.
func (m *Middleware) SetOptional(optional bool) {
	m.optional = optional
}

// Wrap authenticates every request before handing it to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.errorHandler(w, r, failure(ErrorKindMalformedHeader, "missing Authorization header"))
			return
		}

		result := VerifyAuthHeader(r.Context(), header, m.registry, m.store, m.opts...)
		if !result.OK {
			m.errorHandler(w, r, result)
			return
		}

		ctx := context.WithValue(r.Context(), signerDIDKey, result.Object.Signature.SignerDID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignerDIDFromContext extracts the verified signer DID set by Wrap.
func SignerDIDFromContext(ctx context.Context) (string, bool) {
	did, ok := ctx.Value(signerDIDKey).(string)
	return did, ok
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, result VerifyResult) {
	http.Error(w, string(result.Error)+": "+result.Detail, result.Error.HTTPStatus())
}
