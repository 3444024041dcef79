package record

import (
	"maps"
)

// Record is the canonical, server-owned representation of an entity. Field
// names are always snake_case regardless of what the backend sent.
type Record struct {
	Kind       Kind              `json:"kind" yaml:"kind"`
	ID         string            `json:"id" yaml:"id"`
	Fields     map[string]string `json:"fields" yaml:"fields"`
	AdminNotes string            `json:"admin_notes" yaml:"admin_notes"`
	UpdatedAt  string            `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Get returns the value of a field; missing fields read as "".
func (r Record) Get(name string) string {
	switch name {
	case FieldAdminNotes:
		return r.AdminNotes
	case FieldUpdatedAt:
		return r.UpdatedAt
	}
	return r.Fields[name]
}

// Set writes a field value. admin_notes and updated_at map to their
// dedicated attributes.
func (r *Record) Set(name, value string) {
	switch name {
	case FieldAdminNotes:
		r.AdminNotes = value
		return
	case FieldUpdatedAt:
		r.UpdatedAt = value
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[name] = value
}

func (r Record) Clone() Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	if out.Fields == nil {
		out.Fields = make(map[string]string)
	}
	return out
}

// Same reports whether r and other are the same persisted revision.
func (r Record) Same(other Record) bool {
	return r.Kind == other.Kind &&
		r.ID == other.ID &&
		r.UpdatedAt == other.UpdatedAt &&
		r.AdminNotes == other.AdminNotes &&
		maps.Equal(r.Fields, other.Fields)
}

// Summary is a lightweight search row.
type Summary struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
}
