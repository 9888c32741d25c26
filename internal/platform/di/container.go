// internal/platform/di/container.go
package di

import (
	"context"
	"log"
	"net/http"

	"heartwood/internal/adapters/in/http/middleware"
	storefrontHandler "heartwood/internal/adapters/in/http/storefront/handler"
	fsadapter "heartwood/internal/adapters/out/firestore"
	"heartwood/internal/adapters/out/localstore"
	query "heartwood/internal/application/query/storefront"
	usecase "heartwood/internal/application/usecase"
	"heartwood/internal/infra/stripe"
)

// Container wires the storefront: repositories -> usecases -> handlers.
// Lifecycle is explicit: build on startup, Close on shutdown (which also
// tears down every live cart session).
type Container struct {
	infra    *Infra
	sessions *usecase.SessionManager
	router   http.Handler
}

func NewContainer(ctx context.Context, infra *Infra) (*Container, error) {
	cfg := infra.Config

	// out adapters
	mirror := fsadapter.NewCartMirrorFS(infra.Firestore)
	mirror.UsersCol = cfg.UsersCollection
	mirror.CartsCol = cfg.CartsCollection

	catalog := fsadapter.NewCatalogReaderFS(infra.Firestore)
	catalog.ProductsCol = cfg.ProductsCollection

	snapshots, err := localstore.NewFileStore(cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}

	// application
	sessions, err := usecase.NewSessionManager(snapshots, mirror)
	if err != nil {
		return nil, err
	}
	cartQuery := query.NewCartQuery(catalog)

	var gateway usecase.PaymentGateway
	secretKey, err := resolveStripeSecretKey(ctx, infra.SecretManager, infra.ProjectID, cfg.StripeSecretKey, cfg.StripeSecretName)
	if err != nil {
		// checkout degrades to "payment gateway is not configured";
		// cart browsing and reconciliation keep working
		log.Printf("[di] WARN: %v (checkout disabled)", err)
	} else {
		gateway = stripe.NewClient(secretKey, cfg.SuccessURL, cfg.CancelURL)
	}
	checkout := usecase.NewCheckoutUsecase(gateway, cfg.Currency)

	// in adapters
	mux := http.NewServeMux()
	mux.Handle("/storefront/cart", storefrontHandler.NewCartHandler(sessions, cartQuery))
	mux.Handle("/storefront/cart/items", storefrontHandler.NewCartHandler(sessions, cartQuery))
	mux.Handle("/storefront/checkout", storefrontHandler.NewCheckoutHandler(sessions, cartQuery, checkout))
	mux.Handle("/storefront/products", storefrontHandler.NewProductHandler(catalog))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	auth := &middleware.OptionalAuth{FirebaseAuth: infra.FirebaseAuth}
	handler := middleware.CORS(cfg.AllowedOrigin, middleware.Recover(auth.Handler(mux)))

	return &Container{
		infra:    infra,
		sessions: sessions,
		router:   handler,
	}, nil
}

func (c *Container) Handler() http.Handler {
	return c.router
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.sessions != nil {
		if err := c.sessions.Close(); err != nil {
			log.Printf("[di] WARN: session manager close err=%v", err)
		}
	}
	return nil
}
