package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Normalize converts a backend document into the canonical Record. Both
// camelCase and snake_case keys are accepted; unknown keys are kept under
// their snake_case name so callers never need to branch on casing.
func Normalize(kind Kind, wire map[string]any) Record {
	rec := Record{Kind: kind, Fields: make(map[string]string)}
	used := map[string]bool{}

	pick := func(keys ...string) string {
		for _, k := range keys {
			v, ok := wire[k]
			if !ok {
				continue
			}
			used[k] = true
			if s := Stringify(v); s != "" {
				return s
			}
		}
		return ""
	}

	rec.ID = pick("vg_id", "vgId", "id")
	rec.AdminNotes = pick(FieldAdminNotes, "adminNotes")
	rec.UpdatedAt = pick(FieldUpdatedAt, "updatedAt")
	if rec.UpdatedAt == "" {
		rec.UpdatedAt = epochToRFC3339(wire["_ts"])
	}
	used["_ts"] = true

	if schema, err := SchemaFor(kind); err == nil {
		for _, f := range schema.Fields {
			rec.Fields[f.Name] = pick(append([]string{f.Name}, f.Aliases...)...)
		}
	}

	for k, v := range wire {
		if used[k] || strings.HasPrefix(k, "_") {
			continue
		}
		name := SnakeCase(k)
		if _, exists := rec.Fields[name]; exists || name == FieldAdminNotes || name == FieldUpdatedAt {
			continue
		}
		rec.Fields[name] = Stringify(v)
	}

	return rec
}

// Summarize builds a search row from a backend document.
func Summarize(kind Kind, wire map[string]any) Summary {
	rec := Normalize(kind, wire)
	s := Summary{Kind: kind, ID: rec.ID, Status: rec.Get(FieldStatus)}

	switch kind {
	case KindInstitution:
		s.Title = rec.Get("name")
		s.Subtitle = joinNonEmpty(", ", rec.Get("city"), rec.Get("country"))
	case KindUser, KindResponder:
		s.Title = joinNonEmpty(" ", rec.Get("first_name"), rec.Get("middle_name"), rec.Get("last_name"))
		if s.Title == "" {
			s.Title = rec.Get("email")
		}
		s.Subtitle = joinNonEmpty(" · ", rec.Get("email"), rec.Get("institution_name"))
	case KindComplaint:
		s.Title = rec.Get("display_subject")
		if s.Title == "" {
			s.Title = rec.Get("subject")
		}
		s.Subtitle = rec.Get("institution_name")
		if s.Status == "" {
			s.Status = rec.Get("threat_status")
		}
	}

	if s.Title == "" {
		s.Title = s.ID
	}
	return s
}

// Stringify renders a JSON value as the string stored in a Record field.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// SnakeCase converts camelCase keys ("institutionVgId", "websiteURL") to
// snake_case. Keys already in snake_case are returned unchanged.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func epochToRFC3339(v any) string {
	var sec int64
	switch t := v.(type) {
	case float64:
		sec = int64(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return ""
		}
		sec = n
	case int64:
		sec = t
	default:
		return ""
	}
	if sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
