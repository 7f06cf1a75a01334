package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// KeyPrefix namespaces all keys written by this package.
const KeyPrefix = "whitelist:gql"

// Key identifies a cached response: the endpoint plus a digest of the exact
// request body (query document and variables).
type Key struct {
	// Endpoint is the GraphQL endpoint URL
	Endpoint string

	// Digest is the hex SHA-256 of the request body
	Digest string
}

// NewKey builds a key for a request body sent to endpoint.
func NewKey(endpoint string, body []byte) Key {
	sum := sha256.Sum256(body)
	return Key{
		Endpoint: endpoint,
		Digest:   hex.EncodeToString(sum[:]),
	}
}

// String generates a deterministic cache key string.
// Format: whitelist:gql:host/path:digest
//
// Example:
//
//	whitelist:gql:arweave.net/graphql:3f1c...
func (k Key) String() string {
	parts := []string{KeyPrefix}

	endpoint := k.Endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host + u.Path
	}
	endpoint = strings.Trim(endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if k.Digest != "" {
		parts = append(parts, k.Digest)
	}

	return strings.Join(parts, ":")
}
