package auth

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) loginInitOp() huma.Operation {
	return huma.Operation{
		OperationID: "minc-login-init",
		Method:      http.MethodPost,
		Path:        "/api/minc-login-init",
		Summary:     "Check an identifier may sign in",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) loginPasswordOp() huma.Operation {
	return huma.Operation{
		OperationID: "minc-login-password",
		Method:      http.MethodPost,
		Path:        "/api/minc-login-password",
		Summary:     "Verify the admin password",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) sendOTPOp() huma.Operation {
	return huma.Operation{
		OperationID: "minc-send-email-otp",
		Method:      http.MethodPost,
		Path:        "/api/minc-send-email-otp",
		Summary:     "Email a one-time code",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) verifyOTPOp() huma.Operation {
	return huma.Operation{
		OperationID: "minc-verify-email-otp",
		Method:      http.MethodPost,
		Path:        "/api/minc-verify-email-otp",
		Summary:     "Verify a one-time code",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}
