// Package token signs and verifies the opaque identifiers that cross the
// trust boundary: magic-link tokens and portal session cookie values.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const opaqueTokenBytes = 32

// Codec holds the server secrets used for magic-link storage hashing and
// cookie signing. The two concerns use separate keys so rotating one does
// not invalidate the other.
type Codec struct {
	magicSecret   []byte
	sessionSecret []byte
}

func NewCodec(magicSecret, sessionSecret string) *Codec {
	return &Codec{
		magicSecret:   []byte(magicSecret),
		sessionSecret: []byte(sessionSecret),
	}
}

// IssueOpaqueToken returns a fresh URL-safe random token of fixed length.
func (c *Codec) IssueOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashForStorage returns the keyed hash under which a raw magic-link
// token is persisted. The raw value itself is never stored.
func (c *Codec) HashForStorage(rawToken string) string {
	mac := hmac.New(sha256.New, c.magicSecret)
	mac.Write([]byte(rawToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignSessionID produces the cookie value "<id>.<sig>" for an auth
// session id.
func (c *Codec) SignSessionID(id string) string {
	return id + "." + c.sessionSignature(id)
}

// VerifySessionID checks a signed cookie value and returns the embedded
// session id. Any malformed input (missing separator, empty parts, bad
// signature) returns ok=false; comparison is constant time.
func (c *Codec) VerifySessionID(signed string) (string, bool) {
	id, sig, found := strings.Cut(signed, ".")
	if !found || id == "" || sig == "" {
		return "", false
	}
	expected := c.sessionSignature(id)
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return "", false
	}
	return id, true
}

func (c *Codec) sessionSignature(id string) string {
	mac := hmac.New(sha256.New, c.sessionSecret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ConstantTimeEqual compares two strings without leaking the mismatch
// position through timing.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
