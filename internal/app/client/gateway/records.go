package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"mincadmin/internal/domain/draft"
	"mincadmin/internal/domain/edit"
	"mincadmin/internal/domain/record"
)

// documentKeys are the envelope keys a single document may be returned under.
func documentKeys(kind record.Kind) []string {
	return []string{string(kind), "item", "record", "data"}
}

func (h *Client) document(kind record.Kind, resp *response) (record.Record, string, error) {
	env, err := resp.envelope()
	if err != nil {
		return record.Record{}, "", err
	}
	if ok, isBool := env["success"].(bool); isBool && !ok {
		return record.Record{}, "", &ValidationError{Status: resp.status, Message: env.message()}
	}
	for _, key := range documentKeys(kind) {
		if doc, ok := env.object(key); ok {
			token := env.str("etag")
			if token == "" {
				token = strings.Trim(resp.header.Get("ETag"), `"`)
			}
			return record.Normalize(kind, doc), token, nil
		}
	}
	return record.Record{}, "", &ResponseError{
		Status: resp.status,
		Body:   truncate(string(resp.body), maxErrorBody),
		Err:    fmt.Errorf("no %s document in response", kind),
	}
}

// Get fetches one record and its concurrency token.
func (h *Client) Get(ctx context.Context, kind record.Kind, id string) (record.Record, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return record.Record{}, "", &ValidationError{Status: http.StatusBadRequest, Message: "Missing vg_id"}
	}
	resp, err := h.doRequest(ctx, http.MethodGet, getPath(kind, id), nil, nil)
	if err != nil {
		return record.Record{}, "", err
	}
	if err := resp.statusError(kind.Title() + " " + id); err != nil {
		return record.Record{}, "", err
	}
	return h.document(kind, resp)
}

// Search returns at most SearchLimit summaries. A blank query returns nothing
// without calling the server.
func (h *Client) Search(ctx context.Context, kind record.Kind, q string) ([]record.Summary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	resp, err := h.doRequest(ctx, http.MethodGet, searchPath(kind), url.Values{"q": {q}}, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.statusError(kind.Title() + " search"); err != nil {
		return nil, err
	}
	env, err := resp.envelope()
	if err != nil {
		return nil, err
	}
	items, _ := env["items"].([]any)

	out := make([]record.Summary, 0, min(len(items), SearchLimit))
	for _, it := range items {
		doc, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, record.Summarize(kind, doc))
		if len(out) == SearchLimit {
			break
		}
	}
	return out, nil
}

type updateRequest struct {
	VgID  string      `json:"vg_id"`
	ETag  string      `json:"etag,omitempty"`
	Patch draft.Patch `json:"patch"`
}

// Update sends patch guarded by token. A stale token yields *VersionConflictError.
func (h *Client) Update(ctx context.Context, kind record.Kind, id, token string, patch draft.Patch) (record.Record, string, error) {
	if kind.ReadOnly() {
		return record.Record{}, "", fmt.Errorf("%s: %w", kind, record.ErrReadOnly)
	}
	resp, err := h.doRequest(ctx, http.MethodPost, updatePath(kind), nil, updateRequest{
		VgID:  id,
		ETag:  token,
		Patch: patch,
	})
	if err != nil {
		return record.Record{}, "", err
	}
	if err := resp.statusError(kind.Title() + " " + id); err != nil {
		var conflict *VersionConflictError
		if errors.As(err, &conflict) {
			h.log.Info("update rejected: stale token",
				slog.String("kind", string(kind)),
				slog.String("id", id),
			)
		}
		return record.Record{}, "", err
	}
	return h.document(kind, resp)
}

// Lookup resolves q to a single record. An id-looking query is fetched
// directly, falling back to the first search hit; keywords are searched and
// the first hit fetched.
func (h *Client) Lookup(ctx context.Context, kind record.Kind, q string) (record.Record, string, error) {
	q = strings.TrimSpace(q)
	if kind.LooksLikeID(q) {
		rec, token, err := h.Get(ctx, kind, strings.ToUpper(q))
		if err == nil || !errors.Is(err, record.ErrNotFound) {
			return rec, token, err
		}
	}

	hits, err := h.Search(ctx, kind, q)
	if err != nil {
		return record.Record{}, "", err
	}
	if len(hits) == 0 || hits[0].ID == "" {
		return record.Record{}, "", fmt.Errorf("no %s matches %q: %w", kind, q, record.ErrNotFound)
	}
	return h.Get(ctx, kind, hits[0].ID)
}

// KindResults is one kind's share of a SearchAll.
type KindResults struct {
	Kind  record.Kind      `json:"kind"`
	Items []record.Summary `json:"items"`
}

// SearchAll searches every kind concurrently. Results keep record.Kinds order.
func (h *Client) SearchAll(ctx context.Context, q string) ([]KindResults, error) {
	kinds := record.Kinds()
	out := make([]KindResults, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			items, err := h.Search(gctx, kind, q)
			if err != nil {
				return fmt.Errorf("search %s: %w", kind.Plural(), err)
			}
			out[i] = KindResults{Kind: kind, Items: items}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RevealUser maps a complaint to the vg_id of the user who filed it. A
// complaint with no mapping is record.ErrNotFound.
func (h *Client) RevealUser(ctx context.Context, complaintID string) (string, error) {
	complaintID = strings.ToUpper(strings.Join(strings.Fields(complaintID), ""))
	if complaintID == "" {
		return "", &ValidationError{Status: http.StatusBadRequest, Message: "Missing complaint_vg_id"}
	}
	resp, err := h.doRequest(ctx, http.MethodGet, h.paths.RevealUser+"/"+url.PathEscape(complaintID), nil, nil)
	if err != nil {
		return "", err
	}
	if err := resp.statusError("complaint " + complaintID); err != nil {
		return "", err
	}
	env, err := resp.envelope()
	if err != nil {
		return "", err
	}
	userID := env.str("user_vg_id")
	if ok, isBool := env["success"].(bool); (isBool && !ok) || userID == "" {
		return "", &ResponseError{
			Status: resp.status,
			Body:   truncate(string(resp.body), maxErrorBody),
			Err:    fmt.Errorf("no user_vg_id for complaint %s", complaintID),
		}
	}
	h.log.Info("reporter revealed", slog.String("complaint", complaintID))
	return userID, nil
}

// Health checks the API is reachable and reports {"status": "ok"}.
func (h *Client) Health(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, h.paths.Health, nil, nil)
	if err != nil {
		return err
	}
	if err := resp.statusError("health"); err != nil {
		return err
	}
	env, err := resp.envelope()
	if err != nil {
		return err
	}
	if status := env.str("status"); status != "ok" {
		return &ResponseError{
			Status: resp.status,
			Body:   truncate(string(resp.body), maxErrorBody),
			Err:    fmt.Errorf("health status %q", status),
		}
	}
	h.log.Debug("api healthy", slog.String("service", env.str("service")))
	return nil
}

var _ edit.Gateway = (*Client)(nil)
