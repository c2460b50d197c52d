package auth

import "net/http"

// ErrorKind discriminates verification failures. Verification-time errors
// are expected outcomes of adversarial input and are returned as values,
// never panics, so request-handling code can branch without exception-style
// control flow.
type ErrorKind string

const (
	// ErrorKindMalformedHeader: the header could not be parsed into a
	// SignedObject.
	ErrorKindMalformedHeader ErrorKind = "MalformedHeader"

	// ErrorKindDIDNotFound: the signer DID resolved negatively.
	ErrorKindDIDNotFound ErrorKind = "DIDNotFound"

	// ErrorKindUnsupportedMethod: no VDR is registered for the signer's
	// DID method.
	ErrorKindUnsupportedMethod ErrorKind = "UnsupportedMethod"

	// ErrorKindResolutionFailed: DID resolution itself failed (transient;
	// the caller may retry).
	ErrorKindResolutionFailed ErrorKind = "ResolutionFailed"

	// ErrorKindKeyNotFound: the referenced key id is not in the resolved
	// document.
	ErrorKindKeyNotFound ErrorKind = "KeyNotFound"

	// ErrorKindInsufficientCapability: the key exists but lacks the
	// required verification relationship.
	ErrorKindInsufficientCapability ErrorKind = "InsufficientCapability"

	// ErrorKindInvalidSignature: the signature does not verify against
	// the recomputed canonical bytes.
	ErrorKindInvalidSignature ErrorKind = "InvalidSignature"

	// ErrorKindExpired: the timestamp is outside the allowed clock skew.
	ErrorKindExpired ErrorKind = "Expired"

	// ErrorKindReplayDetected: the nonce was already consumed.
	ErrorKindReplayDetected ErrorKind = "ReplayDetected"

	// ErrorKindStorageError: the nonce store failed; the request cannot be
	// safely accepted.
	ErrorKindStorageError ErrorKind = "StorageError"
)

// HTTPStatus maps an error kind to the status code HTTP middleware should
// answer with: 403 for requests that authenticated but are not allowed,
// 503 for infrastructure failures, 401 for everything else.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorKindInvalidSignature, ErrorKindInsufficientCapability:
		return http.StatusForbidden
	case ErrorKindResolutionFailed, ErrorKindStorageError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// VerifyResult is the discriminated outcome of VerifyAuthHeader. Exactly
// one of OK or Error carries meaning: on success Object holds the verified
// SignedObject, on failure Error names the reason and Detail elaborates.
type VerifyResult struct {
	OK     bool
	Object *SignedObject
	Error  ErrorKind
	Detail string
}

func failure(kind ErrorKind, detail string) VerifyResult {
	return VerifyResult{Error: kind, Detail: detail}
}
