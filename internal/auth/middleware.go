package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sakif/blogfeed/internal/model"
)

// SessionCookie is the name of the HttpOnly cookie holding the JWT.
const SessionCookie = "session"

// contextKey is package-private so no other package can read or shadow the
// user stored in the context.
type contextKey string

const userKey contextKey = "user"

// UserFinder loads the user a session token refers to.
// *sqlite.DB satisfies it.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Identify resolves the session cookie into a *model.User and stores it in
// the request context. It never blocks a request: a missing, invalid or
// expired cookie, or a user that no longer exists, leaves the request
// anonymous. A nil TokenService (auth disabled) makes every request
// anonymous.
func Identify(tokens *TokenService, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				next.ServeHTTP(w, r)
				return
			}
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := tokens.Validate(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser sends anonymous requests to loginPath with the original
// request URI in the "next" query parameter:
//
//	GET /create/  →  302 /auth/login/?next=%2Fcreate%2F
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r.Context()) == nil {
				http.Redirect(w, r, LoginURL(loginPath, r.URL.RequestURI()), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL builds the login redirect for a request to target.
func LoginURL(loginPath, target string) string {
	return loginPath + "?next=" + url.QueryEscape(target)
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// SetSession stores token in the session cookie.
//
// SameSite=Lax keeps the cookie on top-level navigation (following a link
// into the site) but off cross-site POSTs.
func SetSession(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
