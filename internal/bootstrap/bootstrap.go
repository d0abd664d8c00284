// Package bootstrap opens the configured persistence and identity backends.
// It is shared by the server and the operator commands.
package bootstrap

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/database"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/repository"
	"github.com/stemsi/examportal-backend/internal/store"
	fsstore "github.com/stemsi/examportal-backend/internal/store/firestore"
	"github.com/stemsi/examportal-backend/internal/store/memory"
)

// Backends holds the opened gateways and the clients behind them.
type Backends struct {
	Store    *store.Store
	Identity identity.Gateway

	pool     *pgxpool.Pool
	firebase *firebase.App
	accounts identity.AccountStore
}

// Open connects the persistence backend named by cfg.PersistenceBackend and
// the identity backend named by cfg.IdentityBackend. rdb may be nil, in which
// case local sessions are tracked in process.
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (*Backends, error) {
	b := &Backends{accounts: identity.NewMemoryAccounts()}
	if err := b.openStore(ctx, cfg, log); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.openIdentity(ctx, cfg, rdb, log); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backends) openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.PersistenceBackend {
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return err
		}
		b.pool = pool
		b.Store = repository.NewStore(pool)
		b.accounts = repository.NewAccountRepository(pool)
	case config.BackendFirestore:
		app, err := b.firebaseApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("open firestore: %w", err)
		}
		b.Store = fsstore.New(client)
	case config.BackendMemory:
		log.Warn().Msg("Using in-memory persistence; data is lost on restart")
		b.Store = memory.New().Store()
	default:
		return fmt.Errorf("unknown persistence backend %q", cfg.PersistenceBackend)
	}
	return nil
}

func (b *Backends) openIdentity(ctx context.Context, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) error {
	switch cfg.IdentityBackend {
	case config.IdentityLocal:
		if b.pool == nil {
			log.Warn().Msg("Local accounts are kept in memory without the postgres backend")
		}
		var sessions identity.SessionRegistry = identity.NewMemorySessions()
		if rdb != nil {
			sessions = identity.NewRedisSessions(rdb)
		}
		tokens := identity.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
		b.Identity = identity.NewLocal(b.accounts, tokens, sessions, cfg.BcryptCost, log)
	case config.IdentityFirebase:
		if cfg.FirebaseWebAPIKey == "" {
			return fmt.Errorf("FIREBASE_WEB_API_KEY is required for firebase identity")
		}
		app, err := b.firebaseApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return fmt.Errorf("open firebase auth: %w", err)
		}
		b.Identity = identity.NewFirebase(client, cfg.FirebaseWebAPIKey, log)
	default:
		return fmt.Errorf("unknown identity backend %q", cfg.IdentityBackend)
	}
	return nil
}

// firebaseApp initializes the admin SDK once for both gateways.
func (b *Backends) firebaseApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*firebase.App, error) {
	if b.firebase != nil {
		return b.firebase, nil
	}
	app, err := database.NewFirebaseApp(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	b.firebase = app
	return app, nil
}

// Close releases the store and the PostgreSQL pool.
func (b *Backends) Close() {
	if b.Store != nil && b.Store.Close != nil {
		_ = b.Store.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}
