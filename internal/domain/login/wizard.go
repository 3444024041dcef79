// Package login is the linear sign-in flow: identifier, password, then an
// emailed one-time code.
package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mincadmin/internal/domain/identifier"
)

type Step int

const (
	StepIdentifier Step = iota
	StepPassword
	StepOTP
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepIdentifier:
		return "identifier"
	case StepPassword:
		return "password"
	case StepOTP:
		return "otp"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const OTPContext = "minc_login"

var ErrWrongStep = errors.New("login: action not valid at this step")

// Account is what login-init and login-password return on success.
type Account struct {
	MincID         string
	Email          string
	DisplayName    string
	FailedAttempts int
	LockoutUntil   string
}

// Authenticator is the server side of sign-in. Failures are *AuthError.
type Authenticator interface {
	LoginInit(ctx context.Context, identifier string) (Account, error)
	LoginPassword(ctx context.Context, identifier, password string) (Account, error)
	SendOTP(ctx context.Context, email, otpContext string) error
	VerifyOTP(ctx context.Context, email, otp, otpContext string) error
}

type Config struct {
	AllowedDomains []string
	RequireOTP     bool
}

type Wizard struct {
	auth    Authenticator
	cfg     Config
	step    Step
	ident   identifier.Result
	account Account
}

func NewWizard(auth Authenticator, cfg Config) *Wizard {
	return &Wizard{auth: auth, cfg: cfg}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Account() Account { return w.account }

// Identifier is the normalized identifier accepted in step one.
func (w *Wizard) Identifier() string { return w.ident.Normalized }

// SubmitIdentifier validates raw locally and asks the server whether the
// account may sign in.
func (w *Wizard) SubmitIdentifier(ctx context.Context, raw string) error {
	if w.step != StepIdentifier {
		return ErrWrongStep
	}
	res := identifier.Classify(raw, w.cfg.AllowedDomains)
	if !res.Accepted() {
		return &AuthError{Kind: ErrInvalidIdentifier, Message: res.Message()}
	}

	acct, err := w.auth.LoginInit(ctx, res.Normalized)
	if err != nil {
		return err
	}
	w.ident = res
	w.account = acct
	w.step = StepPassword
	return nil
}

// SubmitPassword checks the password. A locked or inactive account sends the
// flow back to the identifier step.
func (w *Wizard) SubmitPassword(ctx context.Context, password string) error {
	if w.step != StepPassword {
		return ErrWrongStep
	}
	if password == "" {
		return &AuthError{Kind: ErrBadPassword, Message: "Password is required."}
	}

	id := w.account.MincID
	if id == "" {
		id = w.account.Email
	}
	if id == "" {
		id = w.ident.Normalized
	}

	acct, err := w.auth.LoginPassword(ctx, id, password)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) && (errors.Is(ae, ErrLocked) || errors.Is(ae, ErrInactive)) {
			w.step = StepIdentifier
		}
		return err
	}
	w.merge(acct)

	if !w.cfg.RequireOTP {
		w.step = StepDone
		return nil
	}
	w.step = StepOTP
	return nil
}

func (w *Wizard) merge(acct Account) {
	if acct.MincID != "" {
		w.account.MincID = acct.MincID
	}
	if acct.Email != "" {
		w.account.Email = acct.Email
	}
	if acct.DisplayName != "" {
		w.account.DisplayName = acct.DisplayName
	}
}

// SendOTP emails a one-time code to the account.
func (w *Wizard) SendOTP(ctx context.Context) error {
	if w.step != StepOTP {
		return ErrWrongStep
	}
	if w.account.Email == "" {
		return &AuthError{Kind: ErrOTP, Message: "Email not provided."}
	}
	return w.auth.SendOTP(ctx, w.account.Email, OTPContext)
}

// SubmitOTP finishes sign-in.
func (w *Wizard) SubmitOTP(ctx context.Context, code string) error {
	if w.step != StepOTP {
		return ErrWrongStep
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return &AuthError{Kind: ErrOTP, Message: "Email and OTP are required."}
	}
	if err := w.auth.VerifyOTP(ctx, w.account.Email, code, OTPContext); err != nil {
		return err
	}
	w.step = StepDone
	return nil
}

// Reset returns to the identifier step.
func (w *Wizard) Reset() {
	w.step = StepIdentifier
	w.ident = identifier.Result{}
	w.account = Account{}
}

// Lockout reports the lockout instant carried by err, if any.
func Lockout(err error) (time.Time, bool) {
	var ae *AuthError
	if errors.As(err, &ae) && !ae.LockoutUntil.IsZero() {
		return ae.LockoutUntil, true
	}
	return time.Time{}, false
}
