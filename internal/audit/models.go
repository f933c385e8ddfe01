// Package audit records security-relevant auth events. Events flow through an
// in-process recorder to one or more sinks; recording is fire-and-forget and
// never blocks or fails the operation that produced the event.
package audit

import "time"

// Event kinds emitted by the auth flows.
const (
	KindSignedUp      = "user.signed_up"
	KindSignedIn      = "user.signed_in"
	KindSignInFailed  = "user.sign_in_failed"
	KindSignedOut     = "user.signed_out"
	KindSignOutFailed = "user.sign_out_failed"
	KindCodeIssued    = "admin.code_issued"
	KindCodeVerified  = "admin.code_verified"
	KindCodeRejected  = "admin.code_rejected"
)

// Event is one audit trail entry.
type Event struct {
	At        time.Time `json:"at"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
