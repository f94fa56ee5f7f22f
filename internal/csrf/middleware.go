package csrf

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/sakif/tasklist/internal/apperror"
)

const (
	// CookieName holds the token on the browser side.
	CookieName = "csrf_token"
	// FieldName is the hidden form input every template form must carry.
	FieldName = "csrf_token"
	// HeaderName is accepted in place of the form field for scripted clients.
	HeaderName = "X-CSRF-Token"
)

// contextKey is unexported so no other package can read or shadow the token.
type contextKey string

const tokenKey contextKey = "csrfToken"

// Protect returns middleware enforcing the double-submit check.
//
// Safe methods (GET, HEAD, OPTIONS, TRACE) pass through; if the request has
// no valid cookie a new token is issued. Either way the token is stored in
// the request context for templates (see TokenFromContext).
//
// Other methods must present a valid cookie and an identical token in the
// form field or header, otherwise reject is called with an apperror.Forbidden
// and the handler never runs. A nil reject writes a plain-text 403.
func Protect(tokens *TokenService, logger *slog.Logger, reject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieToken := ""
			if c, err := r.Cookie(CookieName); err == nil && tokens.Validate(c.Value) == nil {
				cookieToken = c.Value
			}

			if isSafe(r.Method) {
				if cookieToken == "" {
					fresh, err := tokens.Generate()
					if err != nil {
						logger.Error("csrf: issuing token failed", slog.String("error", err.Error()))
						http.Error(w, "Internal Server Error", http.StatusInternalServerError)
						return
					}
					http.SetCookie(w, &http.Cookie{
						Name:     CookieName,
						Value:    fresh,
						Path:     "/",
						MaxAge:   int(tokens.TTL().Seconds()),
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
					})
					cookieToken = fresh
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey, cookieToken)))
				return
			}

			submitted := r.Header.Get(HeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(FieldName)
			}

			if cookieToken == "" || submitted == "" ||
				subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) != 1 {
				logger.Warn("csrf check failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("cookie", cookieToken != ""),
					slog.Bool("submitted", submitted != ""),
				)
				err := apperror.Forbidden("invalid or missing CSRF token")
				if reject != nil {
					reject(w, r, err)
				} else {
					http.Error(w, "Forbidden: "+err.Message, http.StatusForbidden)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey, cookieToken)))
		})
	}
}

// TokenFromContext returns the token Protect attached to the request, or ""
// when protection is disabled.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

func isSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
