// Package store holds the sandbox API's in-memory documents and admin accounts.
package store

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mincadmin/internal/domain/record"
)

var (
	ErrNotFound    = errors.New("not_found")
	ErrMissingID   = errors.New("vg_id is required")
	ErrEmptyPatch  = errors.New("patch object is required")
	ErrNoneAllowed = errors.New("No allowed fields in patch.")
)

// ConflictError reports a stale etag. ETag is the current one.
type ConflictError struct {
	ETag string
}

func (e *ConflictError) Error() string { return "etag_mismatch" }

// PatchError is a patch value the server refuses.
type PatchError struct {
	Message string
}

func (e *PatchError) Error() string { return e.Message }

const DefaultSearchLimit = 20

// collection describes how one kind is searched and patched.
type collection struct {
	searchFields []string
	returnFields []string
	allowed      []string
	synonyms     map[string]string
	check        func(key string, value any) error
}

var tokenSplit = regexp.MustCompile(`[^A-Za-z0-9@._+-]+`)

var dobRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var collections = map[record.Kind]collection{
	record.KindInstitution: {
		searchFields: []string{"vg_id", "name", "city", "complaint_email", "institution_type", "institution_category"},
		returnFields: []string{"id", "vg_id", "name", "city", "country", "status"},
		allowed: []string{
			"name", "address1", "address2", "city", "state", "postal_code", "country",
			"complaint_email", "complaint_phone", "country_code", "timezone",
			"status", "plan_type", "subscription_expiry", "institution_type", "institution_category",
			"personnel_name", "comment", "admin_notes", "max_responders", "testing",
			"primary_contact_name", "primary_contact_phone", "primary_contact_email", "website_url",
		},
	},
	record.KindUser: {
		searchFields: []string{"first_name", "middle_name", "last_name", "email", "vg_id"},
		returnFields: []string{"id", "vg_id", "first_name", "middle_name", "last_name", "email", "institution_name", "status", "timezone"},
		allowed:      []string{"status", "dob", "admin_notes"},
		check: func(key string, value any) error {
			s, ok := value.(string)
			switch key {
			case "status":
				if !ok || !slices.Contains(record.UserStatuses, s) {
					return &PatchError{Message: "invalid status"}
				}
			case "dob":
				if value != nil && (!ok || (s != "" && !dobRe.MatchString(s))) {
					return &PatchError{Message: "invalid dob (yyyy-mm-dd)"}
				}
			case "admin_notes":
				if !ok {
					return &PatchError{Message: "invalid admin_notes"}
				}
			}
			return nil
		},
	},
	record.KindResponder: {
		searchFields: []string{"vg_id", "email", "firstName", "middleName", "lastName", "institution_name"},
		returnFields: []string{"id", "vg_id", "firstName", "middleName", "lastName", "email", "institution_name", "status"},
		allowed:      []string{"firstName", "middleName", "lastName", "phone", "country", "department", "status", "admin_notes"},
		synonyms:     map[string]string{"first_name": "firstName", "middle_name": "middleName", "last_name": "lastName"},
		check: func(key string, value any) error {
			if key == "status" {
				s, _ := value.(string)
				if !slices.Contains(record.ResponderStatuses, s) {
					return &PatchError{Message: "invalid status"}
				}
			}
			return nil
		},
	},
	record.KindComplaint: {
		searchFields: []string{"vg_id", "display_subject", "subject", "institution_name"},
		returnFields: []string{"id", "vg_id", "display_subject", "subject", "institution_name", "last_updated", "threat_level", "threat_status"},
	},
}

type entry struct {
	doc  map[string]any
	etag string
}

// Records is a concurrency-safe document store keyed by kind and vg_id.
type Records struct {
	mu   sync.RWMutex
	docs map[record.Kind]map[string]*entry
	// reporters maps a complaint vg_id to the vg_id of the user who filed it.
	reporters map[string]string
	now       func() time.Time
}

func NewRecords(now func() time.Time) *Records {
	if now == nil {
		now = time.Now
	}
	docs := make(map[record.Kind]map[string]*entry, len(collections))
	for kind := range collections {
		docs[kind] = map[string]*entry{}
	}
	return &Records{docs: docs, reporters: map[string]string{}, now: now}
}

// MapReporter records which user filed a complaint.
func (s *Records) MapReporter(complaintID, userID string) error {
	if complaintID == "" || userID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reporters[complaintID] = userID
	return nil
}

// Reporter returns the vg_id of the user behind a complaint.
func (s *Records) Reporter(complaintID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.reporters[complaintID]
	if !ok {
		return "", ErrNotFound
	}
	return userID, nil
}

// Put inserts or replaces doc and returns its new etag.
func (s *Records) Put(kind record.Kind, doc map[string]any) (string, error) {
	id, _ := doc["vg_id"].(string)
	if id == "" {
		return "", ErrMissingID
	}
	bucket, ok := s.docs[kind]
	if !ok {
		return "", record.ErrUnknownKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entry{doc: maps.Clone(doc), etag: uuid.NewString()}
	if _, has := e.doc["id"]; !has {
		e.doc["id"] = id
	}
	e.doc["_ts"] = s.now().Unix()
	bucket[id] = e
	return e.etag, nil
}

// Get returns a copy of the document without internal fields.
func (s *Records) Get(kind record.Kind, id string) (map[string]any, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[kind][id]
	if !ok {
		return nil, "", ErrNotFound
	}
	return public(e.doc), e.etag, nil
}

// Search matches every token against any search field, case-insensitively,
// newest first.
func (s *Records) Search(kind record.Kind, q string, limit int) []map[string]any {
	c, ok := collections[kind]
	if !ok {
		return nil
	}
	tokens := tokenize(q)
	if len(tokens) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	var hits []map[string]any
	for _, e := range s.docs[kind] {
		if matches(e.doc, c.searchFields, tokens) {
			hits = append(hits, e.doc)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(hits, func(a, b map[string]any) int {
		if d := toInt64(b["_ts"]) - toInt64(a["_ts"]); d != 0 {
			if d > 0 {
				return 1
			}
			return -1
		}
		return strings.Compare(fmt.Sprint(a["vg_id"]), fmt.Sprint(b["vg_id"]))
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		row := make(map[string]any, len(c.returnFields))
		for _, f := range c.returnFields {
			row[f] = h[f]
		}
		out = append(out, row)
	}
	return out
}

// Update applies the allow-listed part of patch when etag matches (or is
// blank), stamps updated_at and rotates the etag.
func (s *Records) Update(kind record.Kind, id, etag string, patch map[string]any) (map[string]any, string, error) {
	c, ok := collections[kind]
	if !ok || len(c.allowed) == 0 {
		return nil, "", ErrNotFound
	}
	if id == "" {
		return nil, "", ErrMissingID
	}
	if len(patch) == 0 {
		return nil, "", ErrEmptyPatch
	}

	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if syn, ok := c.synonyms[k]; ok {
			k = syn
		}
		if !slices.Contains(c.allowed, k) {
			continue
		}
		if c.check != nil {
			if err := c.check(k, v); err != nil {
				return nil, "", err
			}
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		return nil, "", ErrNoneAllowed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[kind][id]
	if !ok {
		return nil, "", ErrNotFound
	}
	if etag != "" && etag != e.etag {
		return nil, "", &ConflictError{ETag: e.etag}
	}

	now := s.now().UTC()
	doc := maps.Clone(e.doc)
	maps.Copy(doc, clean)
	doc[record.FieldUpdatedAt] = now.Format(time.RFC3339)
	doc["_ts"] = now.Unix()

	e.doc = doc
	e.etag = uuid.NewString()
	return public(doc), e.etag, nil
}

func tokenize(q string) []string {
	var out []string
	for _, t := range tokenSplit.Split(strings.TrimSpace(q), -1) {
		if t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

func matches(doc map[string]any, fields, tokens []string) bool {
	for _, t := range tokens {
		hit := false
		for _, f := range fields {
			if strings.Contains(strings.ToLower(record.Stringify(doc[f])), t) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func public(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	}
	return 0
}
