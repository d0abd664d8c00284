package database

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/config"
	"google.golang.org/api/option"
)

// NewFirebaseApp initializes the Firebase admin SDK. Credentials come from a
// service-account file, an inline JSON blob, or the ambient default, in that order.
func NewFirebaseApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case cfg.FirebaseCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	case cfg.FirebaseCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	default:
		log.Warn().Msg("No explicit Firebase credentials, using application default")
	}

	var fbCfg *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	log.Info().
		Str("project_id", cfg.FirebaseProjectID).
		Msg("Firebase initialized")

	return app, nil
}
