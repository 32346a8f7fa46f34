// Package metrics holds in-process counters for the auth flows. Counters
// are lock-free atomics; Snapshot is a point-in-time copy safe to serialize.
package metrics

import "sync/atomic"

// ID identifies one counter.
type ID uint16

const (
	RegisterSuccess ID = iota
	RegisterDuplicate
	ActivateSuccess
	ActivateFailure
	LoginSuccess
	LoginFailure
	TwoFactorRequired
	TwoFactorSuccess
	TwoFactorFailure
	RefreshSuccess
	RefreshFailure
	RefreshReuseDetected
	Logout
	SessionsRevoked
	PasswordResetRequest
	PasswordResetSuccess
	PasswordResetFailure
	CodeIssued
	CodeConsumed
	CodeRejected
	MailDispatchFailure

	idCount
)

var names = map[ID]string{
	RegisterSuccess:      "register_success",
	RegisterDuplicate:    "register_duplicate",
	ActivateSuccess:      "activate_success",
	ActivateFailure:      "activate_failure",
	LoginSuccess:         "login_success",
	LoginFailure:         "login_failure",
	TwoFactorRequired:    "two_factor_required",
	TwoFactorSuccess:     "two_factor_success",
	TwoFactorFailure:     "two_factor_failure",
	RefreshSuccess:       "refresh_success",
	RefreshFailure:       "refresh_failure",
	RefreshReuseDetected: "refresh_reuse_detected",
	Logout:               "logout",
	SessionsRevoked:      "sessions_revoked",
	PasswordResetRequest: "password_reset_request",
	PasswordResetSuccess: "password_reset_success",
	PasswordResetFailure: "password_reset_failure",
	CodeIssued:           "code_issued",
	CodeConsumed:         "code_consumed",
	CodeRejected:         "code_rejected",
	MailDispatchFailure:  "mail_dispatch_failure",
}

func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return "unknown"
}

// Metrics is a fixed set of counters. A nil *Metrics is valid and counts
// nothing.
type Metrics struct {
	counters [idCount]atomic.Uint64
}

func New() *Metrics { return &Metrics{} }

// Inc increments one counter.
func (m *Metrics) Inc(id ID) {
	if m == nil || id >= idCount {
		return
	}
	m.counters[id].Add(1)
}

// Value reads one counter.
func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= idCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all counters keyed by name.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, int(idCount))
	if m == nil {
		return out
	}
	for id := ID(0); id < idCount; id++ {
		out[id.String()] = m.counters[id].Load()
	}
	return out
}
