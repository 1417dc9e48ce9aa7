package authn

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/jwt"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"github.com/tech-arch1tect/backoffice/services/sessions"
	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("no identity resolved")

// Protocol validates the access/refresh cookie pair of a request and renews
// it silently when the access token has expired.
type Protocol struct {
	tokens   *jwt.Service
	store    account.Store
	sessions *sessions.Service
	logger   *logging.Service
}

func NewProtocol(tokens *jwt.Service, store account.Store, registry *sessions.Service, logger *logging.Service) *Protocol {
	return &Protocol{
		tokens:   tokens,
		store:    store,
		sessions: registry,
		logger:   logger,
	}
}

func (p *Protocol) verify(token string, kind jwt.Kind) Step {
	claims, err := p.tokens.Verify(token, kind)
	switch {
	case err == nil:
		return Step{Verdict: Valid, Claims: claims}
	case errors.Is(err, jwt.ErrExpiredToken):
		return Step{Verdict: Expired, Claims: claims}
	default:
		return Step{Verdict: Invalid}
	}
}

// access verifies the access token and loads the account it names. The
// user is nil when the verdict is not Valid or the account is gone.
func (p *Protocol) access(ctx context.Context, token string) (Step, *account.User, error) {
	step := p.verify(token, jwt.Access)
	if step.Verdict != Valid {
		return step, nil, nil
	}

	user, err := p.lookupUser(ctx, step.Claims.UserID)
	return step, user, err
}

func (p *Protocol) lookupUser(ctx context.Context, userID string) (*account.User, error) {
	user, err := p.store.GetByID(ctx, userID)
	if errors.Is(err, account.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return user, nil
}

// Resolve identifies the caller from the access token alone. It never
// touches the session registry or issues tokens.
func (p *Protocol) Resolve(ctx context.Context, accessToken string) (*account.User, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	_, user, err := p.access(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// Check runs the full request check. A non-nil error is a store failure;
// every authentication failure is reported as a Rejected outcome.
func (p *Protocol) Check(ctx context.Context, accessToken, refreshToken string) (Outcome, error) {
	if accessToken == "" && refreshToken == "" {
		return p.rejected(reject(ReasonAccessDenied, false)), nil
	}

	if accessToken != "" {
		step, user, err := p.access(ctx, accessToken)
		if err != nil {
			return Outcome{}, err
		}

		switch {
		case user != nil:
			return Outcome{State: AccessValid, User: user}, nil
		case step.Verdict == Invalid:
			return p.rejected(reject(ReasonInvalidAccessToken, false)), nil
		case step.Verdict == Valid:
			p.logger.Warn("access token names a missing account", zap.String("user_id", step.Claims.UserID))
		}
	}

	if refreshToken == "" {
		return p.rejected(reject(ReasonAccessDenied, true)), nil
	}

	step := p.verify(refreshToken, jwt.Refresh)
	switch step.Verdict {
	case Expired:
		return p.renewByLookup(ctx, refreshToken)
	case Valid:
		return p.refreshAccess(ctx, step.Claims, refreshToken)
	default:
		return p.rejected(reject(ReasonInvalidRefreshToken, true)), nil
	}
}

// renewByLookup exchanges an expired refresh token for a new pair when a
// session still holds it. The session write happens before the new pair is
// reported, so a lost rotation race is a rejection rather than a success.
func (p *Protocol) renewByLookup(ctx context.Context, refreshToken string) (Outcome, error) {
	user, session, err := p.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return Outcome{}, err
	}
	if user == nil {
		return p.rejected(reject(ReasonUserNotFound, true)), nil
	}

	pair, err := p.tokens.Issue(jwt.Subject{UserID: user.UserID, Username: user.Username})
	if err != nil {
		return Outcome{}, err
	}

	rotated, err := p.sessions.Rotate(ctx, user.UserID, refreshToken, pair.RefreshToken)
	if err != nil {
		return Outcome{}, err
	}
	if !rotated {
		return p.rejected(reject(ReasonSessionRevoked, true)), nil
	}

	p.logger.Info("session renewed with rotated refresh token",
		zap.String("user_id", user.UserID),
		zap.String("session_id", session.PublicID))

	return Outcome{
		State:        RenewedExpired,
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// refreshAccess issues a new access token for a valid refresh token that is
// still bound to one of the user's sessions. The refresh token is kept.
func (p *Protocol) refreshAccess(ctx context.Context, claims *jwt.Claims, refreshToken string) (Outcome, error) {
	user, err := p.lookupUser(ctx, claims.UserID)
	if err != nil {
		return Outcome{}, err
	}
	if user == nil {
		return p.rejected(reject(ReasonUserNotFound, true)), nil
	}

	held, err := p.sessions.Holds(ctx, user.UserID, refreshToken)
	if err != nil {
		return Outcome{}, err
	}
	if !held {
		return p.rejected(reject(ReasonSessionRevoked, true)), nil
	}

	accessToken, err := p.tokens.IssueAccess(jwt.Subject{UserID: user.UserID, Username: user.Username})
	if err != nil {
		return Outcome{}, err
	}

	p.logger.Debug("access token refreshed", zap.String("user_id", user.UserID))

	return Outcome{State: RefreshValid, User: user, AccessToken: accessToken}, nil
}

func (p *Protocol) rejected(outcome Outcome) Outcome {
	p.logger.Info("authentication rejected", zap.String("reason", string(outcome.Reason)))
	return outcome
}

// Logout removes the session bound to refreshToken. It is best-effort: a
// missing, unverifiable or already revoked token, and store failures, are
// logged and otherwise ignored, so the caller can always clear cookies and
// report success.
func (p *Protocol) Logout(ctx context.Context, refreshToken string) bool {
	if refreshToken == "" {
		return false
	}

	step := p.verify(refreshToken, jwt.Refresh)
	if step.Verdict == Invalid {
		p.logger.Warn("logout with unverifiable refresh token", logging.TokenField("token", refreshToken))
		return false
	}

	removed, err := p.sessions.Revoke(ctx, "", refreshToken)
	if err != nil {
		p.logger.Error("logout could not revoke session", zap.String("user_id", step.Claims.UserID), zap.Error(err))
		return false
	}
	return removed
}

// WhoAmI reports the caller without renewing anything. It tries the access
// token, then the refresh token while a session still holds it, and returns
// a nil user when neither resolves.
func (p *Protocol) WhoAmI(ctx context.Context, accessToken, refreshToken string) (*account.User, error) {
	if accessToken != "" {
		_, user, err := p.access(ctx, accessToken)
		if err != nil || user != nil {
			return user, err
		}
	}

	if refreshToken == "" {
		return nil, nil
	}

	step := p.verify(refreshToken, jwt.Refresh)
	if step.Verdict == Invalid {
		return nil, nil
	}

	held, err := p.sessions.Holds(ctx, step.Claims.UserID, refreshToken)
	if err != nil || !held {
		return nil, err
	}
	return p.lookupUser(ctx, step.Claims.UserID)
}
