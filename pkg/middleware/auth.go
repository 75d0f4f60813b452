package middleware

import (
	"net/http"
	"strings"

	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/response"
	"github.com/farmchain/farmchain/pkg/session"
)

// Session keys written at login and read by Authenticate.
const (
	SessionUserID = "user_id"
	SessionRole   = "role"
)

// Authenticate resolves the caller from the session cookie, falling back to
// an "Authorization: Bearer <jwt>" header, and rejects the request with 401
// when neither is present and valid.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFromSession(r)
		if !ok {
			id, ok = identityFromBearer(r)
		}
		if !ok {
			response.Unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func identityFromSession(r *http.Request) (auth.Identity, bool) {
	sess := session.FromCtx(r)
	if sess == nil || !sess.Exists() {
		return auth.Identity{}, false
	}

	userID, ok := sess.GetUint(SessionUserID)
	if !ok || userID == 0 {
		return auth.Identity{}, false
	}
	raw, _ := sess.GetString(SessionRole)
	role, err := auth.ParseRole(raw)
	if err != nil {
		return auth.Identity{}, false
	}
	return auth.Identity{UserID: userID, Role: role}, true
}

func identityFromBearer(r *http.Request) (auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return auth.Identity{}, false
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		return auth.Identity{}, false
	}
	return claims.Identity(), true
}

// UserIDFromCtx returns the authenticated user id.
func UserIDFromCtx(r *http.Request) (uint, bool) {
	id, ok := auth.FromContext(r.Context())
	return id.UserID, ok
}

// RoleFromCtx returns the authenticated user's role.
func RoleFromCtx(r *http.Request) (auth.Role, bool) {
	id, ok := auth.FromContext(r.Context())
	return id.Role, ok
}
