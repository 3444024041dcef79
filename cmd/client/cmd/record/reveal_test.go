package record

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mincadmin/internal/app/sandbox/store"
	"mincadmin/internal/domain/record"
)

func TestReveal(t *testing.T) {
	tests := []struct {
		name      string
		complaint string
		format    string
		idOnly    bool
		wantErr   error
		wantOut   []string
	}{
		{
			name:      "shows the user",
			complaint: store.SeedComplaintID,
			wantOut:   []string{"Complaint VGC25000001 was filed by user " + store.SeedUserID, "Sam", "sam.ortiz@example.com"},
		},
		{
			name:      "id only",
			complaint: "vgc25000001",
			idOnly:    true,
			wantOut:   []string{store.SeedUserID + "\n"},
		},
		{
			name:      "json",
			complaint: store.SeedComplaintID,
			format:    "json",
			wantOut:   []string{`"complaint_vg_id": "VGC25000001"`, `"user_vg_id": "` + store.SeedUserID + `"`},
		},
		{
			name:      "no mapping",
			complaint: "VGC00000000",
			wantErr:   record.ErrNotFound,
		},
		{
			name:      "odd id is still tried",
			complaint: "12345",
			wantErr:   record.ErrNotFound,
			wantOut:   []string{"does not look like a complaint ID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(t)

			var out bytes.Buffer
			err := reveal(context.Background(), app.Gateway(), tt.complaint, tt.format, tt.idOnly, &out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.wantOut {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}
