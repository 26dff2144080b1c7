// Package session owns the process-wide sign-in state: a persisted
// flag recording whether the user is signed in and which method got
// them there. Only a completing ceremony or an explicit logout writes
// it.
package session

import "time"

// Method tags how the current sign-in was established.
type Method string

const (
	MethodNone    Method = "none"
	MethodPasskey Method = "passkey"
)

// SignIn is the persisted sign-in record. A single record exists per
// deployment; it survives process restarts.
type SignIn struct {
	SignedIn    bool      `json:"signedIn"`
	Method      Method    `json:"method"`
	SessionID   string    `json:"sessionID"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
