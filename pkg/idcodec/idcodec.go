// Package idcodec implements the reversible obfuscation applied to listing
// identifiers before they are exposed publicly. The encoding is deterministic
// so the same record always maps to the same public code, and reversible so
// API routes can accept either form.
package idcodec

import (
	"encoding/base32"
	"fmt"
	"strings"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Codec encodes and decodes public listing identifiers.
type Codec struct {
	key []byte
}

// New creates a codec from a non-empty key.
func New(key string) (*Codec, error) {
	if key == "" {
		return nil, fmt.Errorf("idcodec: key must not be empty")
	}
	return &Codec{key: []byte(key)}, nil
}

// Encode obfuscates a raw identifier into its public form.
func (c *Codec) Encode(id string) string {
	raw := []byte(id)
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return strings.ToLower(encoding.EncodeToString(out))
}

// Decode recovers the raw identifier from a public code.
func (c *Codec) Decode(code string) (string, error) {
	raw, err := encoding.DecodeString(strings.ToUpper(code))
	if err != nil {
		return "", fmt.Errorf("idcodec: invalid code: %w", err)
	}
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return string(out), nil
}
