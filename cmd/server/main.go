package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"studioaljo/internal/auth"
	"studioaljo/internal/cache"
	"studioaljo/internal/config"
	"studioaljo/internal/generator"
	apphttp "studioaljo/internal/http"
	"studioaljo/internal/repository/sqlite"
	"studioaljo/internal/service"
	"studioaljo/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if cfg.Auth.Secret == "dev-secret" {
		logger.Warn("using the development token secret; set STUDIO_AUTH_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := cfg.DatabasePath()
	db, err := sqlite.Open(dbPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(ctx, db, logger); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}
	logger.Infof("using document store %s", dbPath)

	store := sqlite.NewDocumentStore(db, cfg.Database.Timeout)
	userRepo := sqlite.NewUserRepository(store)
	galleryRepo := sqlite.NewGalleryRepository(store)

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	galleryCache, closeCache := buildCache(ctx, cfg, logger)
	defer closeCache()

	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	quotaService := service.NewQuotaService(userRepo)
	userService := service.NewUserService(userRepo, issuer, cfg.Quota.Initial, cfg.Auth.BcryptCost)
	generationService := service.NewGenerationService(
		quotaService,
		generator.NewPlaceholder(cfg.Generation.PlaceholderURL),
		storageSvc,
		cfg.Storage.KeyPrefix,
		logger,
	)
	galleryService := service.NewGalleryService(galleryRepo, galleryCache, logger)

	if !cfg.Auth.Enforce {
		logger.Warn("bearer token verification is disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		Users:       userService,
		Generation:  generationService,
		Gallery:     galleryService,
		Health:      store,
		Tokens:      issuer,
		EnforceAuth: cfg.Auth.Enforce,
		Origins:     cfg.CORS.Origins,
		Logger:      logger,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStorage returns nil when no bucket is configured; uploads are then not archived.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set, uploaded files will not be archived")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	svc, err := storage.NewS3Service(client, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return svc, nil
}

// buildCache falls back to a no-op cache when redis is not configured or unreachable.
func buildCache(ctx context.Context, cfg config.Config, logger *logrus.Logger) (cache.GalleryCache, func()) {
	if cfg.Redis.Addr == "" {
		return cache.Noop{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis %s unreachable, gallery cache disabled: %v", cfg.Redis.Addr, err)
		_ = rdb.Close()
		return cache.Noop{}, func() {}
	}

	logger.Infof("using redis gallery cache at %s (ttl %s)", cfg.Redis.Addr, cfg.Redis.TTL)
	return cache.NewRedisGalleryCache(rdb, cfg.Redis.TTL), func() {
		if err := rdb.Close(); err != nil {
			logger.Warnf("close redis: %v", err)
		}
	}
}
