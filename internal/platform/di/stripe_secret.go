// internal/platform/di/stripe_secret.go
package di

import (
	"context"
	"errors"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var errStripeSecretUnavailable = errors.New("di: stripe secret key unavailable")

// resolveStripeSecretKey returns the Stripe secret key, preferring the env
// value (local dev) and falling back to Secret Manager
// (projects/<project>/secrets/<name>/versions/latest) in production.
func resolveStripeSecretKey(ctx context.Context, sm *secretmanager.Client, projectID, envKey, secretName string) (string, error) {
	if k := strings.TrimSpace(envKey); k != "" {
		log.Printf("[di] stripe secret key from env")
		return k, nil
	}

	name := strings.TrimSpace(secretName)
	prj := strings.TrimSpace(projectID)
	if sm == nil || name == "" || prj == "" {
		return "", errStripeSecretUnavailable
	}

	fullName := "projects/" + prj + "/secrets/" + name + "/versions/latest"
	resp, err := sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: fullName})
	if err != nil {
		return "", errors.New("di: AccessSecretVersion failed (" + fullName + "): " + err.Error())
	}
	if resp == nil || resp.Payload == nil {
		return "", errors.New("di: empty secret payload (" + fullName + ")")
	}

	log.Printf("[di] stripe secret key from secret manager secret=%s", name)
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}
