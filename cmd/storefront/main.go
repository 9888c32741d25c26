// cmd/storefront/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"heartwood/internal/platform/di"
)

// atomicHandler allows swapping the underlying handler at runtime safely:
// the server starts listening with a healthz-only mux and switches to the
// full router once infra is up.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur := h.v.Load()
	if cur == nil {
		http.NotFound(w, r)
		return
	}
	cur.(http.Handler).ServeHTTP(w, r)
}

func main() {
	ctx := context.Background()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	switcher := newAtomicHandler(healthMux)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var infraHolder atomic.Value // stores *di.Infra (or nil)
	infraHolder.Store((*di.Infra)(nil))
	var containerHolder atomic.Value // stores *di.Container (or nil)
	containerHolder.Store((*di.Container)(nil))

	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Printf("[boot] received signal: %v; shutting down...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[boot] server shutdown error: %v", err)
		}

		if v := containerHolder.Load(); v != nil {
			if c, ok := v.(*di.Container); ok && c != nil {
				if err := c.Close(); err != nil {
					log.Printf("[boot] container close error: %v", err)
				}
			}
		}
		if v := infraHolder.Load(); v != nil {
			if inf, ok := v.(*di.Infra); ok && inf != nil {
				if err := inf.Close(); err != nil {
					log.Printf("[boot] infra close error: %v", err)
				}
			}
		}

		close(idleConnsClosed)
	}()

	// Build infra + container in the background so the listener is up for
	// health checks immediately.
	go func() {
		infra, err := di.NewInfra(ctx)
		if err != nil {
			log.Printf("[boot] FATAL: infra init failed: %v", err)
			return
		}
		infraHolder.Store(infra)

		container, err := di.NewContainer(ctx, infra)
		if err != nil {
			log.Printf("[boot] FATAL: container init failed: %v", err)
			return
		}
		containerHolder.Store(container)

		switcher.Store(container.Handler())
		log.Printf("[boot] storefront router active")
	}()

	log.Printf("[boot] listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[boot] server error: %v", err)
	}

	<-idleConnsClosed
	log.Printf("[boot] bye")
}
