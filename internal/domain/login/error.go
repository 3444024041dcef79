package login

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUserNotFound      = errors.New("user not found")
	ErrLocked            = errors.New("account locked")
	ErrInactive          = errors.New("account not active")
	ErrBadPassword       = errors.New("incorrect password")
	ErrOTP               = errors.New("one-time code rejected")
	ErrAuthFailed        = errors.New("sign-in failed")
)

const (
	MsgUserNotFound = "MinC user not found."
	MsgInactive     = "Account is not active. Contact MinC Support."
	MsgBadPassword  = "Incorrect password."
	MsgPasswordStep = "Error verifying password."
	MsgInitFailed   = "Login init failed."
	MsgOTPFailed    = "OTP verification failed."
	LockoutLayout   = "2006-01-02 15:04:05 MST"
)

// AuthError is a sign-in failure with account-state specific messaging.
// Lockout and attempt counts are for display only; the server enforces them.
type AuthError struct {
	Kind         error
	Message      string
	LockoutUntil time.Time
	AttemptsLeft *int
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Kind }

// Response is the error body of the auth endpoints.
type Response struct {
	Error         string `json:"error"`
	Reason        string `json:"reason"`
	LockoutUntil  string `json:"lockoutUntil"`
	AttemptsLeft  *int   `json:"attemptsLeft"`
	AttemptsLeft2 *int   `json:"attempts_left"`
}

func (r Response) attempts() *int {
	if r.AttemptsLeft != nil {
		return r.AttemptsLeft
	}
	return r.AttemptsLeft2
}

// FormatLockout renders a lockout instant in the admin's local zone.
func FormatLockout(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(LockoutLayout)
}

func parseLockout(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FromResponse maps an auth endpoint failure to an AuthError. fallback is
// the message used when the server gave none.
func FromResponse(status int, body Response, fallback string, loc *time.Location) *AuthError {
	switch {
	case status == http.StatusNotFound:
		return &AuthError{Kind: ErrUserNotFound, Message: MsgUserNotFound}

	case status == http.StatusForbidden:
		if strings.EqualFold(body.Reason, "locked") || body.LockoutUntil != "" {
			e := &AuthError{Kind: ErrLocked, Message: "Account locked", LockoutUntil: parseLockout(body.LockoutUntil)}
			if !e.LockoutUntil.IsZero() {
				e.Message += " until " + FormatLockout(e.LockoutUntil, loc)
			}
			return e
		}
		return &AuthError{Kind: ErrInactive, Message: orDefault(body.Error, MsgInactive)}

	case status == http.StatusUnauthorized:
		if left := body.attempts(); left != nil {
			return &AuthError{Kind: ErrBadPassword, Message: AttemptsMessage(*left), AttemptsLeft: left}
		}
		return &AuthError{Kind: ErrBadPassword, Message: orDefault(body.Error, MsgBadPassword)}

	default:
		return &AuthError{Kind: ErrAuthFailed, Message: orDefault(body.Error, fallback)}
	}
}

// AttemptsMessage is the warning shown after a wrong password.
func AttemptsMessage(left int) string {
	noun := "attempts"
	if left == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("Incorrect password. You have %d more %s before lockout.", left, noun)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
