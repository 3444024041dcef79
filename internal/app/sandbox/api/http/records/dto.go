package records

type getInput struct {
	VgID string `path:"vg_id" doc:"VEGU id"`
}

type revealInput struct {
	ComplaintVgID string `path:"complaint_vg_id" doc:"Complaint VEGU id"`
}

type searchInput struct {
	Q     string `query:"q" doc:"Search text; tokens are matched case-insensitively"`
	Limit int    `query:"limit" minimum:"0" maximum:"50" doc:"Maximum rows (default 20)"`
}

type updateInput struct {
	Body struct {
		VgID  string         `json:"vg_id,omitempty"`
		ID    string         `json:"id,omitempty"`
		ETag  string         `json:"etag,omitempty" doc:"Token from the last read; stale tokens are rejected with 409"`
		Patch map[string]any `json:"patch,omitempty"`
	}
}

// output carries an envelope whose document key depends on the kind, e.g.
// {"success": true, "institution": {...}, "etag": "..."}.
type output struct {
	Status int
	Body   map[string]any
}

func failure(status int, msg string) *output {
	return &output{Status: status, Body: map[string]any{"success": false, "error": msg}}
}
