package authn

import (
	"net/http"

	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/jwt"
)

// Verdict is the result of verifying one token.
type Verdict int

const (
	Valid Verdict = iota
	Expired
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// Step pairs a verdict with the claims it produced. Claims are set for
// Valid and Expired.
type Step struct {
	Verdict Verdict
	Claims  *jwt.Claims
}

// State is where a request check ended.
type State string

const (
	AccessValid  State = "ACCESS_VALID"
	RefreshValid State = "REFRESH_VALID"
	// RenewedExpired means an expired refresh token still bound to a
	// session was exchanged for a new pair.
	RenewedExpired State = "REFRESH_EXPIRED_RENEWED"
	Rejected       State = "REJECTED"
)

type Reason string

const (
	ReasonAccessDenied        Reason = "ACCESS_DENIED"
	ReasonInvalidAccessToken  Reason = "INVALID_ACCESS_TOKEN"
	ReasonInvalidRefreshToken Reason = "INVALID_REFRESH_TOKEN"
	ReasonUserNotFound        Reason = "USER_NOT_FOUND"
	ReasonSessionRevoked      Reason = "SESSION_REVOKED"
)

var reasonMessages = map[Reason]string{
	ReasonAccessDenied:        "authentication required",
	ReasonInvalidAccessToken:  "access token is invalid",
	ReasonInvalidRefreshToken: "refresh token is invalid",
	ReasonUserNotFound:        "no account matches the presented token",
	ReasonSessionRevoked:      "session has been revoked",
}

func (r Reason) Message() string {
	return reasonMessages[r]
}

// Outcome is the terminal result of Check. AccessToken and RefreshToken are
// only set when new tokens were issued and must be sent back as cookies.
type Outcome struct {
	State        State
	Reason       Reason
	User         *account.User
	AccessToken  string
	RefreshToken string
	ClearCookies bool
}

func (o Outcome) Authenticated() bool {
	return o.State != Rejected
}

func (o Outcome) StatusCode() int {
	switch {
	case o.Authenticated():
		return http.StatusOK
	case o.Reason == ReasonInvalidAccessToken:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

func reject(reason Reason, clear bool) Outcome {
	return Outcome{State: Rejected, Reason: reason, ClearCookies: clear}
}
