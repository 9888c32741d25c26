// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type ctxKey string

const (
	ctxKeyUID ctxKey = "uid"
)

// OptionalAuth verifies a Firebase ID token when one is presented and stores
// the uid in the request context. Requests without a token (or with an
// invalid one) proceed as Guest: identity presence is the sole
// Guest/Authenticated discriminator, and the storefront must keep working
// for anonymous visitors.
type OptionalAuth struct {
	FirebaseAuth *firebaseauth.Client
}

func (m *OptionalAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.FirebaseAuth == nil {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.Printf("[auth] invalid id token, continuing as guest err=%v", err)
			next.ServeHTTP(w, r)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UIDFromContext returns the verified uid, or "" for a guest.
func UIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUID).(string); ok {
		return v
	}
	return ""
}

// ContextWithUID is used by handler tests to simulate an authenticated
// request without a real token.
func ContextWithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUID, uid)
}
