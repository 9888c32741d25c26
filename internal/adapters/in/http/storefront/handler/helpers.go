// internal/adapters/in/http/storefront/handler/helpers.go
package storefrontHandler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"heartwood/internal/adapters/in/http/middleware"
	usecase "heartwood/internal/application/usecase"
)

const sessionHeader = "X-Session-Id"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[storefront_handler] WARN: response encode failed err=%v", err)
	}
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveSession returns the cart session for the request, issuing a fresh
// session id for first-time visitors. The (possibly new) id is always echoed
// in the response header, and the per-request identity is fed to the engine
// here; this call acts as the engine's authentication observer.
func resolveSession(w http.ResponseWriter, r *http.Request, sessions *usecase.SessionManager) (*usecase.CartSession, bool) {
	sid := strings.TrimSpace(r.Header.Get(sessionHeader))
	if sid == "" {
		sid = sessions.NewID()
	}
	w.Header().Set(sessionHeader, sid)

	sess, err := sessions.Session(sid)
	if err != nil {
		log.Printf("[storefront_handler] session resolve failed sid=%s err=%v", sid, err)
		writeErr(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}

	sess.ObserveIdentity(middleware.UIDFromContext(r.Context()))
	return sess, true
}
