package draft

import (
	"maps"
	"slices"

	"mincadmin/internal/domain/record"
)

// Patch maps changed editable fields to their new values. A committed Patch
// also carries the full admin_notes value.
type Patch map[string]string

// Keys returns the field names in sorted order.
func (p Patch) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Changed returns the edited field names, excluding admin_notes.
func (p Patch) Changed() []string {
	out := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		if k != record.FieldAdminNotes {
			out = append(out, k)
		}
	}
	return out
}

func (p Patch) Empty() bool {
	return len(p) == 0
}
