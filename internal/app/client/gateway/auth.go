package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"mincadmin/internal/domain/login"
)

func (h *Client) authFailure(resp *response, fallback string) *login.AuthError {
	var body login.Response
	if err := resp.decode(&body); err != nil {
		body = login.Response{Error: strings.TrimSpace(truncate(string(resp.body), maxErrorBody))}
	}
	return login.FromResponse(resp.status, body, fallback, h.loc)
}

func (h *Client) account(resp *response) (login.Account, error) {
	env, err := resp.envelope()
	if err != nil {
		return login.Account{}, err
	}
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := env.str(k); v != "" {
				return v
			}
		}
		return ""
	}
	fails, _ := strconv.Atoi(pick("failedLoginCount", "failed_login_count"))
	return login.Account{
		MincID:         pick("mincId", "minc_id"),
		Email:          pick("email"),
		DisplayName:    pick("displayName", "display_name", "name"),
		FailedAttempts: fails,
		LockoutUntil:   pick("lockoutUntil", "lockout_until"),
	}, nil
}

func (h *Client) authCall(ctx context.Context, path string, body any, fallback string) (*response, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	if resp.status >= 300 {
		return nil, h.authFailure(resp, fallback)
	}
	env, err := resp.envelope()
	if err != nil {
		return nil, err
	}
	if ok, isBool := env["success"].(bool); isBool && !ok {
		return nil, &login.AuthError{Kind: login.ErrAuthFailed, Message: nonEmpty(env.message(), fallback)}
	}
	return resp, nil
}

// LoginInit checks the identifier can sign in.
func (h *Client) LoginInit(ctx context.Context, identifier string) (login.Account, error) {
	resp, err := h.authCall(ctx, h.paths.LoginInit, map[string]string{"identifier": identifier}, login.MsgInitFailed)
	if err != nil {
		return login.Account{}, err
	}
	return h.account(resp)
}

// LoginPassword verifies the password for identifier.
func (h *Client) LoginPassword(ctx context.Context, identifier, password string) (login.Account, error) {
	resp, err := h.authCall(ctx, h.paths.LoginPassword, map[string]string{
		"identifier": identifier,
		"password":   password,
	}, login.MsgPasswordStep)
	if err != nil {
		return login.Account{}, err
	}
	return h.account(resp)
}

// SendOTP asks the server to email a one-time code.
func (h *Client) SendOTP(ctx context.Context, email, otpContext string) error {
	_, err := h.authCall(ctx, h.paths.SendOTP, map[string]string{
		"email":   email,
		"context": otpContext,
	}, "Failed to send OTP.")
	return otpError(err)
}

// VerifyOTP checks a one-time code.
func (h *Client) VerifyOTP(ctx context.Context, email, otp, otpContext string) error {
	_, err := h.authCall(ctx, h.paths.VerifyOTP, map[string]string{
		"email":   email,
		"otp":     otp,
		"context": otpContext,
	}, login.MsgOTPFailed)
	return otpError(err)
}

// otpError re-kinds generic auth failures of the OTP endpoints.
func otpError(err error) error {
	ae, ok := err.(*login.AuthError)
	if ok && ae.Kind == login.ErrAuthFailed {
		ae.Kind = login.ErrOTP
	}
	return err
}

func nonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

var _ login.Authenticator = (*Client)(nil)
