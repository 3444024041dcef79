package records

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"mincadmin/internal/app/sandbox/store"
	"mincadmin/internal/domain/record"
)

type Servicer interface {
	Get(kind record.Kind, id string) (map[string]any, string, error)
	Search(kind record.Kind, q string, limit int) []map[string]any
	Update(kind record.Kind, id, etag string, patch map[string]any) (map[string]any, string, error)
	Reporter(complaintID string) (string, error)
}

type Handler struct {
	service    Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	for _, kind := range record.Kinds() {
		huma.Register(api, h.getOp(kind), h.get(kind))
		huma.Register(api, h.searchOp(kind), h.search(kind))
		if kind.ReadOnly() {
			continue
		}
		huma.Register(api, h.updateOp(kind, http.MethodPost), h.update(kind))
		huma.Register(api, h.updateOp(kind, http.MethodPatch), h.update(kind))
	}
	huma.Register(api, h.revealOp(), h.reveal)
}

func (h *Handler) get(kind record.Kind) func(context.Context, *getInput) (*output, error) {
	return func(_ context.Context, input *getInput) (*output, error) {
		id := strings.TrimSpace(input.VgID)
		if id == "" {
			return failure(http.StatusBadRequest, "Missing vg_id"), nil
		}
		doc, etag, err := h.service.Get(kind, id)
		if errors.Is(err, store.ErrNotFound) {
			return failure(http.StatusNotFound, kind.Title()+" not found"), nil
		}
		if err != nil {
			return nil, err
		}
		return &output{
			Status: http.StatusOK,
			Body:   map[string]any{"success": true, string(kind): doc, "etag": etag},
		}, nil
	}
}

func (h *Handler) search(kind record.Kind) func(context.Context, *searchInput) (*output, error) {
	return func(_ context.Context, input *searchInput) (*output, error) {
		items := h.service.Search(kind, input.Q, input.Limit)
		if items == nil {
			items = []map[string]any{}
		}
		return &output{
			Status: http.StatusOK,
			Body:   map[string]any{"success": true, "items": items},
		}, nil
	}
}

func (h *Handler) update(kind record.Kind) func(context.Context, *updateInput) (*output, error) {
	return func(_ context.Context, input *updateInput) (*output, error) {
		id := strings.TrimSpace(input.Body.VgID)
		if id == "" {
			id = strings.TrimSpace(input.Body.ID)
		}

		doc, etag, err := h.service.Update(kind, id, input.Body.ETag, input.Body.Patch)
		var conflict *store.ConflictError
		var bad *store.PatchError
		switch {
		case err == nil:
			h.log.Info("record updated", slog.String("kind", string(kind)), slog.String("id", id))
			return &output{
				Status: http.StatusOK,
				Body:   map[string]any{"success": true, string(kind): doc, "etag": etag},
			}, nil
		case errors.As(err, &conflict):
			return &output{
				Status: http.StatusConflict,
				Body: map[string]any{
					"success": false,
					"error":   "etag_mismatch",
					"message": "The record was modified by someone else. Refresh and retry.",
					"etag":    conflict.ETag,
				},
			}, nil
		case errors.Is(err, store.ErrNotFound):
			return failure(http.StatusNotFound, kind.Title()+" not found"), nil
		case errors.As(err, &bad),
			errors.Is(err, store.ErrMissingID),
			errors.Is(err, store.ErrEmptyPatch),
			errors.Is(err, store.ErrNoneAllowed):
			return failure(http.StatusBadRequest, err.Error()), nil
		default:
			h.log.Error("update failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
			return failure(http.StatusInternalServerError, "server_error"), nil
		}
	}
}

// reveal returns only the complaint to user mapping; user details are read
// through the users endpoints.
func (h *Handler) reveal(_ context.Context, input *revealInput) (*output, error) {
	id := strings.ToUpper(strings.TrimSpace(input.ComplaintVgID))
	if id == "" {
		return failure(http.StatusBadRequest, "Missing complaint_vg_id"), nil
	}
	userID, err := h.service.Reporter(id)
	if errors.Is(err, store.ErrNotFound) {
		out := failure(http.StatusNotFound, "No user mapping found for this complaint.")
		out.Body["complaint_vg_id"] = id
		return out, nil
	}
	if err != nil {
		h.log.Error("reveal failed", slog.String("complaint", id), slog.String("error", err.Error()))
		return failure(http.StatusInternalServerError, err.Error()), nil
	}
	h.log.Info("reporter revealed", slog.String("complaint", id))
	return &output{
		Status: http.StatusOK,
		Body:   map[string]any{"success": true, "complaint_vg_id": id, "user_vg_id": userID},
	}, nil
}
