// Package app wires configuration into a ready set of services. The HTTP
// server and billingctl both start from Bootstrap.
package app

import (
	"context"
	"fmt"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/models"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config   config.Config
	Logger   *logrus.Logger
	Services *models.Services
	Redis    *config.Redis
	Tokens   *utils.TokenIssuer

	closers []func() error
}

// Bootstrap connects the store and every optional integration that cfg
// enables. Optional integrations that fail to start are logged and skipped;
// a store that cannot be reached is fatal.
func Bootstrap(ctx context.Context, cfg config.Config) (*App, error) {
	logger := config.NewLogger(cfg.LogLevel)
	a := &App{Config: cfg, Logger: logger}

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := config.LoadCompanyProfile(cfg.CompanyProfileFile)
	if err != nil {
		return nil, fmt.Errorf("company profile: %w", err)
	}

	deps := models.Deps{
		Store:                st,
		Logger:               logger,
		CacheLifespan:        cfg.CacheLifespan,
		CompanyProfile:       profile,
		StrictInvoiceNumbers: config.StrictInvoiceNumbers(),
	}

	if cfg.RedisAddress != "" {
		r, err := config.ConnectRedisWithRetry(ctx, cfg.RedisAddress)
		if err != nil {
			config.LogWarn(logger, "app", "Bootstrap", "redis unavailable; running without cache and locks", cfg.RedisAddress, err)
		} else {
			a.Redis = r
			deps.Cache = r
			deps.Locker = r
			a.closers = append(a.closers, r.Close)
		}
	}

	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		pub, err := config.NewPubSubPublisher(cfg.PubSubProjectID, cfg.PubSubTopic, cfg.PubSubCredentialsJSON)
		if err != nil {
			config.LogWarn(logger, "app", "Bootstrap", "pubsub disabled", cfg.PubSubTopic, err)
		} else {
			deps.Events = pub
			a.closers = append(a.closers, pub.Close)
		}
	}

	if cfg.GCSBucket != "" {
		up, err := utils.NewGCSUploader(cfg.GCSBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			config.LogWarn(logger, "app", "Bootstrap", "backup upload disabled", cfg.GCSBucket, err)
		} else {
			deps.Uploader = up
		}
	}

	if cfg.APISecret != "" {
		issuer, err := utils.NewTokenIssuer(cfg.APISecret, cfg.TokenHourLifespan)
		if err != nil {
			return nil, err
		}
		a.Tokens = issuer
	} else if cfg.IsProduction() {
		logger.Warn("API_SECRET is not set; the API is open")
	}

	a.Services = models.NewServices(deps)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	switch a.Config.StoreDriver {
	case config.StoreDriverMemory:
		if a.Config.IsProduction() {
			a.Logger.Warn("memory store in production; data is lost on restart")
		}
		return store.NewMemoryStore(), nil
	case config.StoreDriverMySQL:
		db, err := config.ConnectDatabaseWithRetry(ctx, a.Config.DB)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlDB.Close)

		gs := store.NewGormStore(db)
		if err := gs.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate documents: %w", err)
		}
		return gs, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", a.Config.StoreDriver)
	}
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.WithError(err).Warn("close failed")
		}
	}
}
