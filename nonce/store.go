// Package nonce implements the replay-protection ledger behind DIDAuth
// verification. A nonce is registered at most once per (signer DID, domain
// separator) pair within its TTL; a second registration attempt is a
// replay.
//
// The in-memory store is capacity-bounded with explicit FIFO eviction: when
// full, the insertion-order-oldest entry is evicted, which is not
// necessarily the soonest-to-expire one. Deployments needing a shared or
// durable ledger use the Redis store instead.
package nonce

import (
	"context"
	"time"
)

// Store is the replay-protection contract. TryStoreNonce is atomic with
// respect to concurrent callers for the same composite key: it returns true
// and records the nonce only if no unexpired record exists for
// (signerDID, domain, nonce); concurrent races on the same tuple yield
// exactly one true.
type Store interface {
	TryStoreNonce(ctx context.Context, signerDID, domain, nonce string, ttl time.Duration) (bool, error)
}

func compositeKey(signerDID, domain, nonce string) string {
	return signerDID + "|" + domain + "|" + nonce
}
