// internal/infra/config/config.go
package config

import "os"

// Config holds the environment-driven settings for the storefront service.
type Config struct {
	Port string

	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	// Collection names (overridable for staging datasets).
	ProductsCollection string
	UsersCollection    string
	CartsCollection    string

	// Local guest-cart snapshot directory.
	SnapshotDir string

	// Checkout / payment gateway.
	Currency         string
	StripeSecretKey  string // direct key, local dev
	StripeSecretName string // Secret Manager secret id, production
	SuccessURL       string
	CancelURL        string

	// CORS origin of the storefront frontend.
	AllowedOrigin string
}

// Load reads the environment and returns the config.
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "")

	return &Config{
		Port: getenvDefault("PORT", "8080"),

		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		ProductsCollection: getenvDefault("PRODUCTS_COLLECTION", "products"),
		UsersCollection:    getenvDefault("USERS_COLLECTION", "users"),
		CartsCollection:    getenvDefault("CARTS_COLLECTION", "carts"),

		SnapshotDir: getenvDefault("CART_SNAPSHOT_DIR", "./data/carts"),

		Currency:         getenvDefault("CHECKOUT_CURRENCY", "usd"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		StripeSecretName: getenvDefault("STRIPE_SECRET_NAME", "stripe-secret-key"),
		SuccessURL:       getenvDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/orders?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:        getenvDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/cart"),

		AllowedOrigin: getenvDefault("ALLOWED_ORIGIN", "http://localhost:3000"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
