package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const CookieName = "sid"

type ctxKey string

const sessionIDKey ctxKey = "session_id"

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func IDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok && v != ""
}

// Middleware attaches a session id to every request. A missing or tampered
// cookie gets a fresh id and a new cookie.
func Middleware(signer *Signer, secure bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(CookieName); err == nil {
				if id, err := signer.Parse(c.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
					return
				}
			}

			id := uuid.NewString()
			tok, err := signer.Sign(id)
			if err != nil {
				if log != nil {
					log.Error("sign session failed", zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusInternalServerError, "session error", nil)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    tok,
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}
