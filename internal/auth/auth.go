package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/ze-tech/passbold/internal/types"
)

type ctxKey int

const ctxKeyAuthInfo ctxKey = 0

// AuthInfo is the authenticated session identity extracted from the first
// factor session token. The MFA core treats the first factor as an external
// collaborator and only consumes these claims.
type AuthInfo struct {
	userID    uuid.UUID
	orgID     uuid.UUID
	sessionID string
	role      types.UserRole
}

func (a AuthInfo) CurrentUserID() uuid.UUID        { return a.userID }
func (a AuthInfo) CurrentOrgID() uuid.UUID         { return a.orgID }
func (a AuthInfo) CurrentSessionID() string        { return a.sessionID }
func (a AuthInfo) CurrentUserRole() types.UserRole { return a.role }

type authentication struct{}

var Authentication = authentication{}

func (authentication) Require(ctx context.Context) AuthInfo {
	if info, ok := ctx.Value(ctxKeyAuthInfo).(AuthInfo); ok {
		return info
	}
	panic("no authentication in context")
}

func (authentication) Get(ctx context.Context) (AuthInfo, bool) {
	info, ok := ctx.Value(ctxKeyAuthInfo).(AuthInfo)
	return info, ok
}

func WithAuthInfo(ctx context.Context, info AuthInfo) context.Context {
	return context.WithValue(ctx, ctxKeyAuthInfo, info)
}

func NewJWTAuth(secret []byte) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", secret, nil)
}

// ClaimsMiddleware turns verified session token claims into an AuthInfo. It
// must run after jwtauth.Verifier.
func ClaimsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token, claims, err := jwtauth.FromContext(ctx)
		if err != nil || token == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		info, err := authInfoFromClaims(claims)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthInfo(ctx, info)))
	})
}

func authInfoFromClaims(claims map[string]any) (AuthInfo, error) {
	userID, err := uuidClaim(claims, "sub")
	if err != nil {
		return AuthInfo{}, err
	}
	orgID, err := uuidClaim(claims, "org")
	if err != nil {
		return AuthInfo{}, err
	}
	sessionID, ok := claims["sid"].(string)
	if !ok || sessionID == "" {
		return AuthInfo{}, fmt.Errorf("missing sid claim")
	}
	role := types.UserRoleUser
	if value, ok := claims["role"].(string); ok && value == string(types.UserRoleAdmin) {
		role = types.UserRoleAdmin
	}
	return AuthInfo{userID: userID, orgID: orgID, sessionID: sessionID, role: role}, nil
}

func uuidClaim(claims map[string]any, name string) (uuid.UUID, error) {
	value, ok := claims[name].(string)
	if !ok {
		return uuid.UUID{}, fmt.Errorf("missing %v claim", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid %v claim: %w", name, err)
	}
	return id, nil
}
