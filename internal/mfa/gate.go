package mfa

import (
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/ze-tech/passbold/internal/types"
)

// VerificationCookieName is the cookie carrying the session's MFA
// verification token.
const VerificationCookieName = "passbold_mfa"

const (
	claimSessionID = "sid"
	claimProvider  = "provider"
)

type GateState int

const (
	GateStateNotRequired GateState = iota
	GateStateRequiredUnverified
	GateStateVerified
)

func (s GateState) String() string {
	switch s {
	case GateStateNotRequired:
		return "not-required"
	case GateStateRequiredUnverified:
		return "required-unverified"
	case GateStateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Gate decides whether a session must complete a second factor and owns the
// verification cookie. No other component reads or writes the cookie.
type Gate struct {
	secret        []byte
	validDuration time.Duration
	// exempt reports whether the account type skips MFA entirely, e.g.
	// non-interactive service accounts. The policy itself is external.
	exempt func(user *types.UserAccount) bool
	now    func() time.Time
}

func NewGate(secret []byte, validDuration time.Duration, exempt func(*types.UserAccount) bool) *Gate {
	if exempt == nil {
		exempt = func(*types.UserAccount) bool { return false }
	}
	return &Gate{
		secret:        secret,
		validDuration: validDuration,
		exempt:        exempt,
		now:           time.Now,
	}
}

// WithClock overrides the gate's time source. Used by tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Evaluate computes the gate state for the session. An expired, tampered,
// session-mismatched or provider-mismatched cookie is treated exactly like an
// absent one: the gate fails closed into RequiredUnverified, never into
// Verified.
func (g *Gate) Evaluate(
	settings *OrgSettings,
	user *types.UserAccount,
	sessionID string,
	rawCookie string,
) GateState {
	if g.exempt(user) {
		return GateStateNotRequired
	}
	if !settings.IsEnabled() {
		return GateStateNotRequired
	}
	if _, ok := g.CheckCookie(rawCookie, sessionID, settings); ok {
		return GateStateVerified
	}
	return GateStateRequiredUnverified
}

// IssueCookie creates the verification cookie after a successful flow
// completion, scoped to the completing provider and the current session.
func (g *Gate) IssueCookie(sessionID string, provider types.MfaProvider) (*http.Cookie, error) {
	now := g.now()
	token, err := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(g.validDuration)).
		Claim(claimSessionID, sessionID).
		Claim(claimProvider, string(provider)).
		Build()
	if err != nil {
		return nil, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, g.secret))
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     VerificationCookieName,
		Value:    string(signed),
		Path:     "/",
		Expires:  now.Add(g.validDuration),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// CheckCookie reports whether the raw cookie value is a valid verification
// token for the session: correctly signed, not expired, scoped to the given
// session, and naming a provider that is currently enabled. Any failure
// yields false.
func (g *Gate) CheckCookie(raw, sessionID string, settings *OrgSettings) (types.MfaProvider, bool) {
	if raw == "" {
		return "", false
	}
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, g.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(g.now)),
	)
	if err != nil {
		return "", false
	}
	sid, ok := token.Get(claimSessionID)
	if !ok || sid != sessionID {
		return "", false
	}
	name, ok := token.Get(claimProvider)
	if !ok {
		return "", false
	}
	nameStr, ok := name.(string)
	if !ok {
		return "", false
	}
	provider, err := types.ParseMfaProvider(nameStr)
	if err != nil {
		return "", false
	}
	if !settings.IsProviderEnabled(provider) {
		return "", false
	}
	return provider, true
}

// ClearCookie returns an immediately expired replacement cookie. Recovery and
// credential re-setup endpoints clear the cookie even when they succeed, so a
// stale verification never survives a credential change.
func (g *Gate) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     VerificationCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
