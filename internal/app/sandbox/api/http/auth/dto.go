package auth

type loginInitInput struct {
	Body struct {
		Identifier string `json:"identifier,omitempty" doc:"MINC ID or email"`
	}
}

type loginPasswordInput struct {
	Body struct {
		Identifier string `json:"identifier,omitempty" doc:"MINC ID or email"`
		Password   string `json:"password,omitempty"`
	}
}

type sendOTPInput struct {
	Body struct {
		Email   string `json:"email,omitempty"`
		Context string `json:"context,omitempty" example:"minc_login"`
	}
}

type verifyOTPInput struct {
	Body struct {
		Email   string `json:"email,omitempty"`
		OTP     string `json:"otp,omitempty"`
		Context string `json:"context,omitempty" example:"minc_login"`
	}
}

type output struct {
	Status int
	Body   Response
}

// Response is shared by every sign-in endpoint; unused fields are omitted.
type Response struct {
	Success          bool   `json:"success,omitempty"`
	MincID           string `json:"mincId,omitempty"`
	Email            string `json:"email,omitempty"`
	FailedLoginCount *int   `json:"failedLoginCount,omitempty"`
	LockoutUntil     string `json:"lockoutUntil,omitempty"`
	Error            string `json:"error,omitempty"`
	Reason           string `json:"reason,omitempty"`
	AttemptsLeft     *int   `json:"attemptsLeft,omitempty"`
	AttemptsLeftAlt  *int   `json:"attempts_left,omitempty"`
}
