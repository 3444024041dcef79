package record

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind string

const (
	KindInstitution Kind = "institution"
	KindUser        Kind = "user"
	KindResponder   Kind = "responder"
	KindComplaint   Kind = "complaint"
)

// Kinds lists every kind in display order.
func Kinds() []Kind {
	return []Kind{KindInstitution, KindUser, KindResponder, KindComplaint}
}

// ParseKind accepts the singular or plural form, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "s")
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Plural is the path segment used by the remote API, e.g. "institutions".
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Title is the human label of the kind.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ReadOnly reports whether records of this kind can never be patched.
func (k Kind) ReadOnly() bool {
	return k == KindComplaint
}

var (
	vgShortIDRe = regexp.MustCompile(`(?i)^VG\d{5,}$`)
	vgUserIDRe  = regexp.MustCompile(`(?i)^VG\d{7,}$`)
	vgAnyIDRe   = regexp.MustCompile(`(?i)^VG\S+$`)
)

// LooksLikeID reports whether a lookup query should be treated as a direct
// id rather than search keywords.
func (k Kind) LooksLikeID(q string) bool {
	q = strings.TrimSpace(q)
	switch k {
	case KindUser:
		return vgUserIDRe.MatchString(q)
	case KindComplaint:
		return vgAnyIDRe.MatchString(q)
	default:
		return vgShortIDRe.MatchString(q)
	}
}
