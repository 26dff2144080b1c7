// Package csrf mints and checks HMAC tokens bound to a session ID. A
// token is handed out when a ceremony signs the user in and must
// accompany the logout request; a token minted for a different session
// or with a different key never validates.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const nonceLength = 32

func mac(key []byte, sessionID string, nonce []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write(nonce)

	return h.Sum(nil)
}

// NewToken mints a token of the form "mac.nonce" bound to the given
// session ID, both parts URL-safe base64 without padding.
func NewToken(sessionID string, key []byte) string {
	nonce := make([]byte, nonceLength)
	_, _ = rand.Read(nonce)

	return base64.RawURLEncoding.EncodeToString(mac(key, sessionID, nonce)) +
		"." + base64.RawURLEncoding.EncodeToString(nonce)
}

// Validate reports whether token was minted for sessionID with key.
func Validate(token, sessionID string, key []byte) bool {
	macPart, noncePart, found := strings.Cut(token, ".")
	if !found {
		return false
	}

	receivedMAC, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return false
	}

	nonce, err := base64.RawURLEncoding.DecodeString(noncePart)
	if err != nil {
		return false
	}

	return hmac.Equal(receivedMAC, mac(key, sessionID, nonce))
}
