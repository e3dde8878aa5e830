package infra

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// accessTokenBytes is the entropy of a generated access token. Rendered
// as hex the token is a fixed 64 characters.
const accessTokenBytes = 32

// NewAccessToken generates the application's access credential from a
// cryptographically secure source. It is never derived from the
// deployment seed: resource names must be reproducible, the credential
// must not be.
//
// A fresh token is generated on every imperative-phase run, so re-running
// phase 2 rotates the credential and invalidates the previous one. The
// caller is responsible for redistributing it after every run.
func NewAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating access token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
