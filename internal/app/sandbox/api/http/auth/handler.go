package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"mincadmin/internal/app/sandbox/store"
)

type Servicer interface {
	Init(identifier string) (store.Account, error)
	CheckPassword(identifier, password string) (store.Account, error)
	IssueOTP(email, otpContext string) (string, error)
	VerifyOTP(email, code, otpContext string) error
}

type Handler struct {
	service    Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.loginInitOp(), h.loginInit)
	huma.Register(api, h.loginPasswordOp(), h.loginPassword)
	huma.Register(api, h.sendOTPOp(), h.sendOTP)
	huma.Register(api, h.verifyOTPOp(), h.verifyOTP)
}

func (h *Handler) loginInit(_ context.Context, input *loginInitInput) (*output, error) {
	acct, err := h.service.Init(strings.TrimSpace(input.Body.Identifier))
	if err != nil {
		return h.failure(err, "Server error during sign-in."), nil
	}
	fails := acct.FailedLoginCount
	return &output{
		Status: http.StatusOK,
		Body: Response{
			Success:          true,
			MincID:           acct.MincID,
			Email:            acct.Email,
			FailedLoginCount: &fails,
			LockoutUntil:     iso(acct.LockoutUntil),
		},
	}, nil
}

func (h *Handler) loginPassword(_ context.Context, input *loginPasswordInput) (*output, error) {
	acct, err := h.service.CheckPassword(strings.TrimSpace(input.Body.Identifier), input.Body.Password)
	if err != nil {
		return h.failure(err, "Server error during password verification."), nil
	}
	return &output{
		Status: http.StatusOK,
		Body:   Response{Success: true, MincID: acct.MincID, Email: acct.Email},
	}, nil
}

func (h *Handler) sendOTP(_ context.Context, input *sendOTPInput) (*output, error) {
	otpContext := input.Body.Context
	if otpContext == "" {
		otpContext = "minc_login"
	}
	code, err := h.service.IssueOTP(input.Body.Email, otpContext)
	if err != nil {
		return &output{Status: http.StatusBadRequest, Body: Response{Error: err.Error()}}, nil
	}
	// No mail transport in the sandbox; the log is the delivery channel.
	h.log.Info("otp issued", slog.String("email", input.Body.Email), slog.String("otp", code))
	return &output{Status: http.StatusOK, Body: Response{Success: true}}, nil
}

func (h *Handler) verifyOTP(_ context.Context, input *verifyOTPInput) (*output, error) {
	otpContext := input.Body.Context
	if otpContext == "" {
		otpContext = "minc_login"
	}
	if err := h.service.VerifyOTP(input.Body.Email, strings.TrimSpace(input.Body.OTP), otpContext); err != nil {
		h.log.Warn("otp verify failed", slog.String("reason", err.Error()))
		return &output{Status: http.StatusBadRequest, Body: Response{Error: err.Error()}}, nil
	}
	return &output{Status: http.StatusOK, Body: Response{Success: true}}, nil
}

func (h *Handler) failure(err error, serverMsg string) *output {
	var locked *store.LockedError
	var bad *store.BadPasswordError

	switch {
	case errors.Is(err, store.ErrBadIdentifier), errors.Is(err, store.ErrPasswordMissing):
		return &output{Status: http.StatusBadRequest, Body: Response{Error: err.Error()}}
	case errors.Is(err, store.ErrAccountNotFound):
		return &output{Status: http.StatusNotFound, Body: Response{Error: err.Error()}}
	case errors.As(err, &locked):
		return &output{Status: http.StatusForbidden, Body: Response{
			Error:        "Account locked",
			LockoutUntil: iso(locked.Until),
			Reason:       "locked",
		}}
	case errors.Is(err, store.ErrNotActive):
		return &output{Status: http.StatusForbidden, Body: Response{Error: err.Error(), Reason: "not_active"}}
	case errors.As(err, &bad):
		left := bad.AttemptsLeft
		return &output{Status: http.StatusUnauthorized, Body: Response{
			Error:           bad.Error(),
			AttemptsLeft:    &left,
			AttemptsLeftAlt: &left,
		}}
	default:
		h.log.Error("sign-in failed", slog.String("error", err.Error()))
		return &output{Status: http.StatusInternalServerError, Body: Response{Error: serverMsg}}
	}
}

func iso(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
