package draft

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mincadmin/internal/domain/record"
)

var fixedNow = time.Date(2025, 3, 4, 9, 5, 6, 0, time.UTC)

func institution() record.Record {
	return record.Record{
		Kind: record.KindInstitution,
		ID:   "VG25001055",
		Fields: map[string]string{
			"name":                          "Austin Prep",
			record.FieldInstitutionType:     "Education",
			record.FieldInstitutionCategory: "School",
			record.FieldStatus:              "pending",
			record.FieldPlanType:            "free",
			"city":                          "Austin",
			"state":                         "TX",
		},
		AdminNotes: "",
		UpdatedAt:  "2025-03-01T00:00:00Z",
	}
}

func newEngine(t *testing.T, kind record.Kind) *Engine {
	t.Helper()
	e, err := New(kind, WithClock(func() time.Time { return fixedNow }), WithActor("Jo Admin"))
	require.NoError(t, err)
	return e
}

func TestEngine_PatchKeysMatchEditedFields(t *testing.T) {
	tests := []struct {
		name  string
		edits map[string]string
		want  Patch
	}{
		{
			name:  "no edits",
			edits: map[string]string{},
			want:  Patch{},
		},
		{
			name:  "single field",
			edits: map[string]string{"city": "Dallas"},
			want:  Patch{"city": "Dallas"},
		},
		{
			name:  "several fields",
			edits: map[string]string{"city": "Dallas", record.FieldStatus: "active", "address1": "1 Main St"},
			want:  Patch{"city": "Dallas", record.FieldStatus: "active", "address1": "1 Main St"},
		},
		{
			name:  "read-only field never patched",
			edits: map[string]string{"name": "Renamed"},
			want:  Patch{},
		},
		{
			name:  "same value is not a change",
			edits: map[string]string{"city": "Austin"},
			want:  Patch{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, record.KindInstitution)
			require.NoError(t, e.EnterEdit(institution()))
			for k, v := range tt.edits {
				require.NoError(t, e.SetField(k, v))
			}
			if diff := cmp.Diff(tt.want, e.ComputePatch()); diff != "" {
				t.Errorf("patch mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_RevertDropsField(t *testing.T) {
	e := newEngine(t, record.KindInstitution)
	require.NoError(t, e.EnterEdit(institution()))

	require.NoError(t, e.SetField("city", "Dallas"))
	require.NoError(t, e.SetField(record.FieldStatus, "active"))
	require.NoError(t, e.SetField("city", "Austin"))

	assert.Equal(t, []string{record.FieldStatus}, e.ComputePatch().Keys())
}

func TestEngine_SetFieldUnknown(t *testing.T) {
	e := newEngine(t, record.KindUser)
	require.NoError(t, e.EnterEdit(record.Record{Kind: record.KindUser, ID: "VG1000001"}))

	err := e.SetField("favourite_colour", "blue")
	assert.ErrorIs(t, err, record.ErrUnknownField)
}

func TestEngine_SetFieldBeforeEdit(t *testing.T) {
	e := newEngine(t, record.KindUser)
	assert.ErrorIs(t, e.SetField(record.FieldStatus, "active"), ErrNotEditing)
}

func TestEngine_ReadOnlyKind(t *testing.T) {
	e := newEngine(t, record.KindComplaint)
	err := e.EnterEdit(record.Record{Kind: record.KindComplaint, ID: "VGC1"})
	assert.ErrorIs(t, err, record.ErrReadOnly)
}

func TestEngine_DateNormalized(t *testing.T) {
	e := newEngine(t, record.KindUser)
	require.NoError(t, e.EnterEdit(record.Record{Kind: record.KindUser, ID: "VG1000001", Fields: map[string]string{record.FieldDOB: "1990-04-01"}}))

	require.NoError(t, e.SetField(record.FieldDOB, "04/01/1990"))
	assert.Empty(t, e.ComputePatch())

	require.NoError(t, e.SetField(record.FieldDOB, "1991-05-02T00:00:00Z"))
	assert.Equal(t, Patch{record.FieldDOB: "1991-05-02"}, e.ComputePatch())

	require.NoError(t, e.SetField(record.FieldDOB, "sometime"))
	assert.Equal(t, Patch{record.FieldDOB: "sometime"}, e.ComputePatch())
}

func TestEngine_Composite(t *testing.T) {
	e := newEngine(t, record.KindInstitution)
	require.NoError(t, e.EnterEdit(institution()))

	require.NoError(t, e.SetComposite(record.FieldInstitutionCategory, "Other", "  Charter  "))
	require.NoError(t, e.SetComposite(record.FieldPlanType, "other", "Pilot"))

	want := Patch{
		record.FieldInstitutionCategory: "Other - Charter",
		record.FieldPlanType:            "Other - Pilot",
	}
	assert.Equal(t, want, e.ComputePatch())

	require.NoError(t, e.SetComposite(record.FieldInstitutionCategory, "School", "leftover"))
	assert.Equal(t, []string{record.FieldPlanType}, e.ComputePatch().Keys())

	err := e.SetComposite("city", "Other", "x")
	assert.ErrorIs(t, err, record.ErrUnknownField)
}

func TestEngine_CompositeSeededFromRecord(t *testing.T) {
	rec := institution()
	rec.Fields[record.FieldInstitutionCategory] = "Other - Charter"

	e := newEngine(t, record.KindInstitution)
	require.NoError(t, e.EnterEdit(rec))

	base, detail := e.Parts(record.FieldInstitutionCategory)
	assert.Equal(t, "Other", base)
	assert.Equal(t, "Charter", detail)
	assert.Empty(t, e.ComputePatch())
}

func TestEngine_Commit(t *testing.T) {
	tests := []struct {
		name      string
		notes     string
		edits     map[string]string
		note      string
		wantErr   bool
		wantPatch Patch
	}{
		{
			name:      "nothing changed and blank note",
			wantPatch: Patch{},
		},
		{
			name:      "nothing changed but note typed",
			note:      "just looking",
			wantPatch: Patch{},
		},
		{
			name:    "change without note",
			edits:   map[string]string{record.FieldStatus: "active"},
			note:    "   ",
			wantErr: true,
		},
		{
			name:  "first note on empty log",
			edits: map[string]string{"city": "Dallas"},
			note:  "  Corrected city per user email  ",
			wantPatch: Patch{
				"city":                 "Dallas",
				record.FieldAdminNotes: "[2025-03-04 09:05:06 UTC] Jo Admin: Corrected city per user email",
			},
		},
		{
			name:  "appends to existing log",
			notes: "[2025-01-01 00:00:00 UTC] ops: created",
			edits: map[string]string{record.FieldStatus: "active"},
			note:  "approved",
			wantPatch: Patch{
				record.FieldStatus:     "active",
				record.FieldAdminNotes: "[2025-01-01 00:00:00 UTC] ops: created\n[2025-03-04 09:05:06 UTC] Jo Admin: approved",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := institution()
			rec.AdminNotes = tt.notes

			e := newEngine(t, record.KindInstitution)
			require.NoError(t, e.EnterEdit(rec))
			for k, v := range tt.edits {
				require.NoError(t, e.SetField(k, v))
			}
			e.SetNote(tt.note)
			before := e.Draft()

			p, err := e.Commit()
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, MsgNoteRequired, verr.Message)
				assert.ErrorIs(t, err, ErrValidation)
				assert.True(t, before.Same(e.Draft()))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.wantPatch, p); diff != "" {
				t.Errorf("patch mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_DefaultActor(t *testing.T) {
	e, err := New(record.KindUser, WithClock(func() time.Time { return fixedNow }), WithActor("   "))
	require.NoError(t, err)
	assert.Equal(t, "[2025-03-04 09:05:06 UTC] MinC Admin: x", e.Stamp(" x "))
}

func TestEngine_IsDirty(t *testing.T) {
	e := newEngine(t, record.KindInstitution)
	assert.False(t, e.IsDirty())

	require.NoError(t, e.EnterEdit(institution()))
	assert.False(t, e.IsDirty())

	e.SetNote("only a note")
	assert.True(t, e.IsDirty())

	e.SetNote("  ")
	assert.False(t, e.IsDirty())

	require.NoError(t, e.SetField("city", "Dallas"))
	assert.True(t, e.IsDirty())

	e.Discard()
	assert.False(t, e.IsDirty())
	assert.Equal(t, "Austin", e.Draft().Get("city"))
	assert.Empty(t, e.Note())
}

func TestEngine_EnterEditIdempotent(t *testing.T) {
	e := newEngine(t, record.KindInstitution)
	rec := institution()
	require.NoError(t, e.EnterEdit(rec))
	require.NoError(t, e.SetField("city", "Dallas"))
	e.SetNote("keep me")

	require.NoError(t, e.EnterEdit(rec))
	assert.Equal(t, "Dallas", e.Draft().Get("city"))
	assert.Equal(t, "keep me", e.Note())

	other := rec.Clone()
	other.UpdatedAt = "2025-03-02T00:00:00Z"
	require.NoError(t, e.EnterEdit(other))
	assert.Equal(t, "Austin", e.Draft().Get("city"))
	assert.Empty(t, e.Note())
}

func TestEngine_Rebase(t *testing.T) {
	e := newEngine(t, record.KindInstitution)
	require.NoError(t, e.EnterEdit(institution()))
	require.NoError(t, e.SetField("city", "Dallas"))
	require.NoError(t, e.SetField(record.FieldStatus, "paymentdue"))
	require.NoError(t, e.SetComposite(record.FieldInstitutionCategory, "University", ""))
	e.SetNote("Corrected city per user email")

	fresh := institution()
	fresh.UpdatedAt = "2025-03-04T09:00:00Z"
	fresh.Fields["state"] = "CA"
	fresh.Fields[record.FieldStatus] = "paymentdue"
	fresh.Fields[record.FieldInstitutionType] = "Company/Workplace"

	dropped, err := e.Rebase(fresh)
	require.NoError(t, err)

	assert.Equal(t, []string{record.FieldInstitutionCategory}, dropped)
	assert.Equal(t, Patch{"city": "Dallas"}, e.ComputePatch())
	assert.Equal(t, "CA", e.Draft().Get("state"))
	assert.Equal(t, "Corrected city per user email", e.Note())
	assert.Equal(t, fresh.UpdatedAt, e.Original().UpdatedAt)
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"2024-02-29":           "2024-02-29",
		" 2024-02-29 ":         "2024-02-29",
		"2024-02-29T23:10:00Z": "2024-02-29",
		"02/29/2024":           "2024-02-29",
		"2024/02/29":           "2024-02-29",
		"29.02.2024":           "29.02.2024",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeDate(in))
		})
	}
}
