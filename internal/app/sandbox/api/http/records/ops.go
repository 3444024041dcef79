package records

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"mincadmin/internal/domain/record"
)

func (h *Handler) getOp(kind record.Kind) huma.Operation {
	return huma.Operation{
		OperationID: "vegu-" + kind.Plural() + "-get",
		Method:      http.MethodGet,
		Path:        "/api/vegu-" + kind.Plural() + "/{vg_id}",
		Summary:     "Get one " + string(kind),
		Tags:        []string{kind.Plural()},
		Middlewares: h.middleware,
	}
}

func (h *Handler) searchOp(kind record.Kind) huma.Operation {
	return huma.Operation{
		OperationID: "vegu-" + kind.Plural() + "-search",
		Method:      http.MethodGet,
		Path:        "/api/vegu-" + kind.Plural() + "-search",
		Summary:     "Search " + kind.Plural(),
		Tags:        []string{kind.Plural()},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp(kind record.Kind, method string) huma.Operation {
	return huma.Operation{
		OperationID: "vegu-" + kind.Plural() + "-update-" + method,
		Method:      method,
		Path:        "/api/vegu-" + kind.Plural() + "-update",
		Summary:     "Patch one " + string(kind),
		Description: "Applies the allow-listed fields of patch, stamps updated_at and returns the new etag.",
		Tags:        []string{kind.Plural()},
		Middlewares: h.middleware,
	}
}

func (h *Handler) revealOp() huma.Operation {
	return huma.Operation{
		OperationID: "vegu-reveal-user",
		Method:      http.MethodGet,
		Path:        "/api/vegu/reveal-user/{complaint_vg_id}",
		Summary:     "Map a complaint to the user who filed it",
		Tags:        []string{"complaints"},
		Middlewares: h.middleware,
	}
}
