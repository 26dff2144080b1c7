// Package challenge produces the random material bound into ceremony
// requests: a 64-byte user handle and a 32-byte challenge, both drawn
// from the platform CSPRNG and encoded as unpadded URL-safe base64.
package challenge

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/pawskey/ceremony-manager/internal/serviceerr"
)

const (
	// UserHandleLen is the byte length of a generated user handle.
	UserHandleLen = 64
	// ChallengeLen is the byte length of a generated challenge.
	ChallengeLen = 32
)

// Material is one registration attempt's worth of random input.
// It is generated fresh per attempt and never reused.
type Material struct {
	UserHandle []byte
	Challenge  []byte
}

type Source struct{}

func (s Source) randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Join(serviceerr.ErrEntropyUnavailable, err)
	}

	return b, nil
}

// UserHandle returns a fresh 64-byte user handle.
func (s Source) UserHandle() ([]byte, error) {
	return s.randBytes(UserHandleLen)
}

// Challenge returns a fresh 32-byte challenge.
func (s Source) Challenge() ([]byte, error) {
	return s.randBytes(ChallengeLen)
}

// Material returns a fresh user handle and challenge pair.
func (s Source) Material() (Material, error) {
	handle, err := s.UserHandle()
	if err != nil {
		return Material{}, err
	}

	ch, err := s.Challenge()
	if err != nil {
		return Material{}, err
	}

	return Material{UserHandle: handle, Challenge: ch}, nil
}

// Encode renders bytes as URL-safe base64 without padding or wrapping,
// the form the ceremony templates embed.
func (s Source) Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
