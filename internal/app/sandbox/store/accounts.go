package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mincadmin/internal/domain/identifier"
)

const (
	MaxAttempts  = 3
	LockDuration = 24 * time.Hour
	OTPDigits    = 5
	OTPTTL       = 5 * time.Minute

	StatusActive = "active"
	StatusLocked = "locked"
)

var (
	ErrBadIdentifier   = errors.New("Enter a valid MINC ID or Email address.")
	ErrAccountNotFound = errors.New("MinC user not found.")
	ErrNotActive       = errors.New("Account is not active. Contact MinC support.")
	ErrPasswordMissing = errors.New("Password is required.")
	ErrEmailMissing    = errors.New("Email not provided.")
	ErrOTPMissing      = errors.New("Email and OTP are required.")
	ErrNoOTP           = errors.New("No OTP found.")
	ErrOTPIncorrect    = errors.New("Incorrect OTP.")
	ErrOTPExpired      = errors.New("OTP has expired.")
)

// LockedError is returned while an account is locked out.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string { return "Account locked" }

// BadPasswordError is a wrong password that did not yet lock the account.
type BadPasswordError struct {
	AttemptsLeft int
}

func (e *BadPasswordError) Error() string { return "Incorrect password." }

// OTPContextError is a code issued for a different flow.
type OTPContextError struct {
	Context string
}

func (e *OTPContextError) Error() string {
	return fmt.Sprintf("OTP was not generated for %s context.", e.Context)
}

// Account is a MinC administrator.
type Account struct {
	MincID           string
	Email            string
	Status           string
	PasswordHash     []byte
	FailedLoginCount int
	LockoutUntil     time.Time
	LastLoginAt      time.Time
	AdminNotes       string
}

type otp struct {
	ID        string
	Code      string
	Context   string
	ExpiresAt time.Time
}

// Accounts implements the sign-in rules: lockout after MaxAttempts failures
// for LockDuration, automatic unlock once it expires, and one-time codes.
type Accounts struct {
	mu       sync.Mutex
	byMincID map[string]*Account
	otps     map[string]otp
	now      func() time.Time
	fixedOTP string
	cost     int
}

type AccountsOption func(*Accounts)

// WithFixedOTP makes every issued code equal to code (left-padded to OTPDigits).
func WithFixedOTP(code string) AccountsOption {
	return func(a *Accounts) { a.fixedOTP = code }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) AccountsOption {
	return func(a *Accounts) { a.cost = cost }
}

func NewAccounts(now func() time.Time, opts ...AccountsOption) *Accounts {
	if now == nil {
		now = time.Now
	}
	a := &Accounts{
		byMincID: map[string]*Account{},
		otps:     map[string]otp{},
		now:      now,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add registers an account with a bcrypt-hashed password.
func (a *Accounts) Add(mincID, email, password, status string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byMincID[strings.ToUpper(mincID)] = &Account{
		MincID:       strings.ToUpper(mincID),
		Email:        strings.ToLower(email),
		Status:       status,
		PasswordHash: hash,
	}
	return nil
}

func (a *Accounts) find(raw string) (*Account, error) {
	res := identifier.Classify(raw, nil)
	switch res.Kind {
	case identifier.KindMinc:
		if acct, ok := a.byMincID[res.Normalized]; ok {
			return acct, nil
		}
	case identifier.KindEmail, identifier.KindEmailDisallowed:
		for _, acct := range a.byMincID {
			if acct.Email == res.Normalized {
				return acct, nil
			}
		}
	default:
		return nil, ErrBadIdentifier
	}
	return nil, ErrAccountNotFound
}

func (a *Accounts) note(acct *Account, msg string) {
	line := fmt.Sprintf("[%s] %s", a.now().UTC().Format(time.RFC3339), msg)
	if acct.AdminNotes != "" {
		acct.AdminNotes += "\n"
	}
	acct.AdminNotes += line
}

// gate unlocks an expired lockout and rejects locked or inactive accounts.
func (a *Accounts) gate(acct *Account, step string) error {
	if acct.Status == StatusLocked {
		if acct.LockoutUntil.IsZero() || a.now().Before(acct.LockoutUntil) {
			return &LockedError{Until: acct.LockoutUntil}
		}
		acct.Status = StatusActive
		acct.FailedLoginCount = 0
		acct.LockoutUntil = time.Time{}
		a.note(acct, "Auto-unlock at "+step+" after lockout expiry.")
	}
	if acct.Status != StatusActive {
		return ErrNotActive
	}
	return nil
}

// Init is the first sign-in step.
func (a *Accounts) Init(identifier string) (Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acct, err := a.find(identifier)
	if err != nil {
		return Account{}, err
	}
	if err := a.gate(acct, "init"); err != nil {
		return Account{}, err
	}
	return *acct, nil
}

// CheckPassword is the second sign-in step.
func (a *Accounts) CheckPassword(identifier, password string) (Account, error) {
	if password == "" {
		return Account{}, ErrPasswordMissing
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	acct, err := a.find(identifier)
	if err != nil {
		return Account{}, err
	}
	if err := a.gate(acct, "password step"); err != nil {
		return Account{}, err
	}

	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		acct.FailedLoginCount++
		if acct.FailedLoginCount >= MaxAttempts {
			acct.Status = StatusLocked
			acct.LockoutUntil = a.now().Add(LockDuration).UTC()
			a.note(acct, fmt.Sprintf("Account auto-locked after %d failed attempts. lockoutUntil=%s",
				acct.FailedLoginCount, acct.LockoutUntil.Format(time.RFC3339)))
			return Account{}, &LockedError{Until: acct.LockoutUntil}
		}
		return Account{}, &BadPasswordError{AttemptsLeft: MaxAttempts - acct.FailedLoginCount}
	}

	acct.FailedLoginCount = 0
	acct.Status = StatusActive
	return *acct, nil
}

// IssueOTP creates a code for email and returns it.
func (a *Accounts) IssueOTP(email, otpContext string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailMissing
	}
	code := a.fixedOTP
	if code != "" {
		if len(code) < OTPDigits {
			code = strings.Repeat("0", OTPDigits-len(code)) + code
		}
		code = code[:OTPDigits]
	} else {
		n, err := rand.Int(rand.Reader, big.NewInt(100000))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		code = fmt.Sprintf("%0*d", OTPDigits, n.Int64())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.otps[email] = otp{
		ID:        uuid.NewString(),
		Code:      code,
		Context:   otpContext,
		ExpiresAt: a.now().Add(OTPTTL),
	}
	return code, nil
}

// VerifyOTP checks the latest code issued for email. Success records the
// login and clears any lingering lockout.
func (a *Accounts) VerifyOTP(email, code, otpContext string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return ErrOTPMissing
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	issued, ok := a.otps[email]
	switch {
	case !ok:
		return ErrNoOTP
	case issued.Context != otpContext:
		return &OTPContextError{Context: otpContext}
	case issued.Code != code:
		return ErrOTPIncorrect
	case a.now().After(issued.ExpiresAt):
		return ErrOTPExpired
	}
	delete(a.otps, email)

	for _, acct := range a.byMincID {
		if acct.Email == email {
			acct.LastLoginAt = a.now().UTC()
			acct.FailedLoginCount = 0
			acct.LockoutUntil = time.Time{}
		}
	}
	return nil
}

// Lookup returns a copy of the account, mainly for tests.
func (a *Accounts) Lookup(mincID string) (Account, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acct, ok := a.byMincID[strings.ToUpper(mincID)]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}
