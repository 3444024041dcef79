// Package draft holds the mutable working copy of a record under edit and
// turns it into a minimal patch.
package draft

import (
	"fmt"
	"strings"
	"time"

	"mincadmin/internal/domain/record"
)

const (
	DefaultActor = "MinC Admin"
	StampLayout  = "2006-01-02 15:04:05 MST"
)

type Clock func() time.Time

type Option func(*Engine)

// WithClock sets the time source of note stamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.now = c }
}

// WithActor sets the label written into note stamps. Blank keeps the default.
func WithActor(actor string) Option {
	return func(e *Engine) {
		if a := strings.TrimSpace(actor); a != "" {
			e.actor = a
		}
	}
}

type part struct {
	base   string
	detail string
}

// Engine is not safe for concurrent use; the edit controller serializes
// access to it.
type Engine struct {
	schema   record.Schema
	original record.Record
	draft    *record.Record
	parts    map[string]part
	note     string
	now      Clock
	actor    string
}

func New(kind record.Kind, opts ...Option) (*Engine, error) {
	schema, err := record.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		schema: schema,
		now:    time.Now,
		actor:  DefaultActor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnterEdit seeds the draft from rec. Calling it again for the same revision
// keeps the current draft and note.
func (e *Engine) EnterEdit(rec record.Record) error {
	if rec.Kind != e.schema.Kind {
		return fmt.Errorf("%w: engine for %s got %s", record.ErrUnknownKind, e.schema.Kind, rec.Kind)
	}
	if e.kind().ReadOnly() {
		return record.ErrReadOnly
	}
	if e.draft != nil && e.original.Same(rec) {
		return nil
	}
	e.original = rec.Clone()
	e.seed()
	e.note = ""
	return nil
}

func (e *Engine) seed() {
	d := e.original.Clone()
	e.draft = &d
	e.parts = make(map[string]part)
	for _, f := range e.schema.Fields {
		if f.Type == record.TypeComposite {
			base, detail := record.SplitComposite(d.Get(f.Name))
			e.parts[f.Name] = part{base: base, detail: detail}
		}
	}
}

func (e *Engine) kind() record.Kind { return e.schema.Kind }

func (e *Engine) Editing() bool { return e.draft != nil }

func (e *Engine) Original() record.Record { return e.original.Clone() }

// Draft returns a copy of the working record with composite fields
// recomposed.
func (e *Engine) Draft() record.Record {
	if e.draft == nil {
		return e.original.Clone()
	}
	out := e.draft.Clone()
	for name := range e.parts {
		out.Set(name, e.composed(name))
	}
	return out
}

// SetField updates one field of the draft. Date fields are normalized to
// YYYY-MM-DD when parseable; composite fields are split into base and detail.
func (e *Engine) SetField(name, value string) error {
	if e.draft == nil {
		return ErrNotEditing
	}
	f, ok := e.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", record.ErrUnknownField, e.kind(), name)
	}
	switch f.Type {
	case record.TypeDate:
		value = NormalizeDate(value)
	case record.TypeComposite:
		base, detail := record.SplitComposite(value)
		e.parts[name] = part{base: base, detail: detail}
	}
	e.draft.Set(name, value)
	return nil
}

// SetComposite sets the two sub-parts of a composite field. The detail only
// survives when the base is "Other".
func (e *Engine) SetComposite(name, base, detail string) error {
	if e.draft == nil {
		return ErrNotEditing
	}
	f, ok := e.schema.Field(name)
	if !ok || f.Type != record.TypeComposite {
		return fmt.Errorf("%w: %s.%s is not a composite field", record.ErrUnknownField, e.kind(), name)
	}
	e.parts[name] = part{base: base, detail: detail}
	e.draft.Set(name, record.JoinComposite(base, detail))
	return nil
}

// Parts returns the base and detail of a composite field.
func (e *Engine) Parts(name string) (base, detail string) {
	p := e.parts[name]
	return p.base, p.detail
}

func (e *Engine) SetNote(note string) { e.note = note }

func (e *Engine) Note() string { return e.note }

func (e *Engine) composed(name string) string {
	p := e.parts[name]
	return record.JoinComposite(p.base, p.detail)
}

func (e *Engine) value(name string) string {
	if _, ok := e.parts[name]; ok {
		return e.composed(name)
	}
	return e.draft.Get(name)
}

// ComputePatch diffs the draft against the original over the editable
// allow-list only.
func (e *Engine) ComputePatch() Patch {
	p := Patch{}
	if e.draft == nil {
		return p
	}
	for _, name := range e.schema.Editable() {
		if v := e.value(name); v != e.original.Get(name) {
			p[name] = v
		}
	}
	return p
}

// IsDirty reports unsaved field edits or a non-blank note.
func (e *Engine) IsDirty() bool {
	if e.draft == nil {
		return false
	}
	return len(e.ComputePatch()) > 0 || strings.TrimSpace(e.note) != ""
}

// Commit returns the patch to submit. A non-empty patch requires a note and
// gets the stamped note appended to admin_notes.
func (e *Engine) Commit() (Patch, error) {
	if e.draft == nil {
		return nil, ErrNotEditing
	}
	p := e.ComputePatch()
	if len(p) == 0 {
		return p, nil
	}
	note := strings.TrimSpace(e.note)
	if note == "" {
		return nil, &ValidationError{Message: MsgNoteRequired}
	}
	p[record.FieldAdminNotes] = AppendNote(e.original.AdminNotes, e.Stamp(note))
	return p, nil
}

// Stamp formats one admin_notes entry.
func (e *Engine) Stamp(note string) string {
	return fmt.Sprintf("[%s] %s: %s", e.now().Format(StampLayout), e.actor, strings.TrimSpace(note))
}

// AppendNote adds entry to an existing notes log, one entry per line.
func AppendNote(existing, entry string) string {
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}

// Discard resets the draft to the original and clears the note.
func (e *Engine) Discard() {
	if e.draft == nil {
		return
	}
	e.seed()
	e.note = ""
}

// Leave exits edit mode.
func (e *Engine) Leave() {
	e.draft = nil
	e.parts = nil
	e.note = ""
}

// Rebase swaps in a freshly fetched original while keeping the admin's edits
// and note. Fields the admin never touched take the fresh value. Edits that
// are no longer valid for the fresh record are reset to its current value;
// their names are returned.
func (e *Engine) Rebase(fresh record.Record) ([]string, error) {
	if e.draft == nil {
		return nil, ErrNotEditing
	}
	if fresh.Kind != e.kind() {
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, fresh.Kind)
	}

	kept := e.ComputePatch()
	keptParts := e.parts
	note := e.note

	e.original = fresh.Clone()
	e.seed()
	e.note = note

	var dropped []string
	for _, name := range kept.Keys() {
		v := kept[name]
		if v == e.original.Get(name) {
			continue
		}
		if !e.schema.Valid(name, v, e.original) {
			dropped = append(dropped, name)
			continue
		}
		e.draft.Set(name, v)
		if p, ok := keptParts[name]; ok {
			e.parts[name] = p
		}
	}
	return dropped, nil
}
