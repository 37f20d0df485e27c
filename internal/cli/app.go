package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/pdfstore/internal/config"
	"github.com/gogotex/pdfstore/internal/database"
	"github.com/gogotex/pdfstore/internal/document/handler"
	"github.com/gogotex/pdfstore/internal/document/repository"
	"github.com/gogotex/pdfstore/internal/document/service"
	"github.com/gogotex/pdfstore/internal/ingest"
	"github.com/gogotex/pdfstore/internal/oidc"
	"github.com/gogotex/pdfstore/internal/pdf"
	"github.com/gogotex/pdfstore/internal/server"
	"github.com/gogotex/pdfstore/internal/storage"
	"github.com/gogotex/pdfstore/internal/tokens"
	"github.com/gogotex/pdfstore/pkg/logger"
	"github.com/gogotex/pdfstore/pkg/metrics"
	"github.com/gogotex/pdfstore/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const mongoConnectAttempts = 5

var registerMetrics sync.Once

// app is the wired service. Close releases every client it opened.
type app struct {
	router  *gin.Engine
	closers []func(ctx context.Context) error
}

func (a *app) onClose(f func(ctx context.Context) error) {
	a.closers = append(a.closers, f)
}

func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warnf("close: %v", err)
		}
	}
	a.closers = nil
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()
	checks := map[string]server.Check{}

	// Redis is optional; the service runs without it
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if perr := rdb.Ping(ctx).Err(); perr != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, perr)
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
		client := rdb
		a.onClose(func(context.Context) error { return client.Close() })
		if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis {
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	verifier := selectVerifier(ctx, cfg)
	if cfg.Keycloak.URL != "" && verifier == nil {
		checks["oidc"] = func(context.Context) error { return errors.New("OIDC verifier unavailable") }
	}

	repo, err := openRegistry(ctx, cfg, a, checks)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	a.onClose(func(context.Context) error { return store.Close() })
	logger.Infof("object store: %s bucket=%s", cfg.Storage.Backend, cfg.Storage.Bucket)

	svc := service.New(repo, store, service.Options{DeleteTimeout: cfg.Registry.DeleteTimeout})
	uploader := ingest.NewUploader(store, ingest.RetryPolicy{
		Attempts: cfg.Ingest.UploadAttempts,
		Delay:    cfg.Ingest.RetryDelay,
		Timeout:  cfg.Ingest.UploadTimeout,
	})
	pipeline := ingest.NewPipeline(ingest.Config{
		Budget:      pdf.Budget{Bytes: cfg.Ingest.SegmentBudgetBytes, Margin: cfg.Ingest.SafetyMargin},
		Adaptive:    cfg.Ingest.AdaptiveShrink,
		Concurrency: cfg.Ingest.UploadConcurrency,
		Folder:      cfg.Ingest.Folder,
		TempDir:     cfg.Ingest.TempDir,
	}, uploader, svc)

	registerMetrics.Do(func() { metrics.RegisterCollectors(prometheus.DefaultRegisterer) })

	a.router = server.NewRouter(server.Options{
		Documents: handler.New(svc, pipeline, cfg.Ingest.MaxUploadBytes),
		Verifier:  verifier,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
		Checks:    checks,
	})
	ok = true
	return a, nil
}

// openRegistry connects the configured metadata store and registers its
// readiness check and cleanup on a.
func openRegistry(ctx context.Context, cfg *config.Config, a *app, checks map[string]server.Check) (repository.Repository, error) {
	switch cfg.Registry.Backend {
	case "mongo":
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			return nil, err
		}
		a.onClose(client.Disconnect)
		checks["registry"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		repo, err := repository.NewMongoRepo(ctx, col)
		if err != nil {
			return nil, err
		}
		logger.Infof("registry: mongo %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
		return repo, nil
	case "firestore":
		client, err := database.NewFirestoreClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return client.Close() })
		logger.Infof("registry: firestore %s/%s", cfg.Firestore.ProjectID, cfg.Firestore.Collection)
		return repository.NewFirestoreRepo(client, cfg.Firestore.Collection), nil
	case "memory":
		logger.Warnf("registry: in-memory; records are lost on restart")
		return repository.NewMemoryRepo(), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}
}

// selectVerifier prefers Keycloak OIDC, then the shared HS256 secret, then the
// insecure claims parser when ALLOW_INSECURE_TOKEN=true. It returns nil when
// none is available.
func selectVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		issuer := oidc.KeycloakIssuer(cfg.Keycloak.URL, cfg.Keycloak.Realm)
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			logger.Infof("auth: OIDC issuer %s", ver.Issuer())
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		logger.Infof("auth: HS256 shared secret")
		return tokens.NewHS256Verifier(cfg.JWT.Secret)
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	logger.Warn("no token verifier configured; mutating routes will answer 503")
	return nil
}
