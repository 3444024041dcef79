// Package identifier classifies the value typed into the sign-in field.
package identifier

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindEmpty           Kind = "empty"
	KindInvalid         Kind = "invalid"
	KindMinc            Kind = "minc"
	KindEmail           Kind = "email"
	KindEmailDisallowed Kind = "email-disallowed"
)

const (
	MsgInvalid    = "Enter a valid MINC ID or Email address."
	MsgDisallowed = "Invalid User ID"
)

var (
	mincRe  = regexp.MustCompile(`(?i)^MM\d{2}[A-Z]\d{5}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// DefaultAllowedDomains are the email domains accepted for admin sign-in.
var DefaultAllowedDomains = []string{"mihirmobile.com", "vegu.me"}

type Result struct {
	Kind       Kind
	Normalized string
}

// Classify returns the kind of raw and its normalized form. An empty allowed
// list falls back to DefaultAllowedDomains.
func Classify(raw string, allowed []string) Result {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Result{Kind: KindEmpty}
	}

	if mincRe.MatchString(s) {
		return Result{Kind: KindMinc, Normalized: strings.ToUpper(s)}
	}

	if emailRe.MatchString(s) {
		lower := strings.ToLower(s)
		domain := lower[strings.LastIndex(lower, "@")+1:]
		if domainAllowed(domain, allowed) {
			return Result{Kind: KindEmail, Normalized: lower}
		}
		return Result{Kind: KindEmailDisallowed, Normalized: lower}
	}

	return Result{Kind: KindInvalid}
}

func domainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultAllowedDomains
	}
	for _, d := range allowed {
		if strings.EqualFold(strings.TrimSpace(d), domain) {
			return true
		}
	}
	return false
}

// Accepted reports whether the identifier may be sent to the server.
func (r Result) Accepted() bool {
	return r.Kind == KindMinc || r.Kind == KindEmail
}

// Message is the inline error shown for a rejected identifier.
func (r Result) Message() string {
	switch r.Kind {
	case KindEmpty, KindInvalid:
		return MsgInvalid
	case KindEmailDisallowed:
		return MsgDisallowed
	default:
		return ""
	}
}
