// internal/platform/di/infra.go
package di

import (
	"context"
	"errors"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	appcfg "heartwood/internal/infra/config"
)

// Infra is the shared runtime infrastructure:
// - owns external clients (Firestore / Firebase Auth / Secret Manager)
// - owns env-resolved settings
//
// Firestore is strict (startup error); Firebase Auth and Secret Manager are
// best-effort (warn + continue): without Firebase Auth every visitor is a
// guest, without Secret Manager the Stripe key must come from env.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	Firestore     *firestore.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
}

func NewInfra(ctx context.Context) (*Infra, error) {
	cfg := appcfg.Load()

	projectID := strings.TrimSpace(cfg.FirestoreProjectID)
	if projectID == "" {
		return nil, errors.New("di.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: projectID,
	}

	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[di.infra] using credentials file for GCP clients")
	} else {
		log.Printf("[di.infra] using Application Default Credentials")
	}

	// 1) Firestore (required: cart mirror + catalog live here)
	fs, err := firestore.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, errors.New("di.infra: firestore init failed: " + err.Error())
	}
	inf.Firestore = fs
	log.Printf("[di.infra] firestore client ready project=%s", projectID)

	// 2) Firebase Auth (best-effort)
	{
		fbProject := strings.TrimSpace(cfg.FirebaseProjectID)
		if fbProject == "" {
			fbProject = projectID
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: fbProject}, clientOpts...)
		if err != nil {
			log.Printf("[di.infra] WARN: firebase app init failed err=%v (all visitors treated as guests)", err)
		} else {
			inf.FirebaseApp = app
			authClient, err := app.Auth(ctx)
			if err != nil {
				log.Printf("[di.infra] WARN: firebase auth init failed err=%v (all visitors treated as guests)", err)
			} else {
				inf.FirebaseAuth = authClient
				log.Printf("[di.infra] firebase auth ready project=%s", fbProject)
			}
		}
	}

	// 3) Secret Manager (best-effort; Stripe key fallback comes from env)
	{
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[di.infra] WARN: secret manager init failed err=%v", err)
		} else {
			inf.SecretManager = sm
		}
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var first error
	if i.SecretManager != nil {
		if err := i.SecretManager.Close(); err != nil && first == nil {
			first = err
		}
	}
	if i.Firestore != nil {
		if err := i.Firestore.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
