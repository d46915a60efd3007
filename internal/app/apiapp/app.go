package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackura/cybershelf/internal/config"
	"github.com/hackura/cybershelf/internal/infra/mailer"
	s3infra "github.com/hackura/cybershelf/internal/infra/s3"
	"github.com/hackura/cybershelf/internal/jobs/cleanup"
	pgrepo "github.com/hackura/cybershelf/internal/repo/postgres"
	redrepo "github.com/hackura/cybershelf/internal/repo/redis"
	authsvc "github.com/hackura/cybershelf/internal/services/auth"
	downloadsvc "github.com/hackura/cybershelf/internal/services/downloads"
	paymentsvc "github.com/hackura/cybershelf/internal/services/payments"
	purchasesvc "github.com/hackura/cybershelf/internal/services/purchases"
	ratesvc "github.com/hackura/cybershelf/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if err := pgrepo.RunMigrations(ctx, pool); err != nil {
			log.Warn("migrations failed, continuing in degraded mode", zap.Error(err))
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	bookRepo := pgrepo.NewBookRepo(pool)
	discountRepo := pgrepo.NewDiscountRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)

	assertionVerifier, err := authsvc.NewAssertionVerifier(cfg.Auth.AssertionSecret)
	if err != nil {
		return nil, fmt.Errorf("init assertion verifier: %w", err)
	}
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, assertionVerifier, sessionRepo, cfg.Auth.RefreshTTL)

	paystackAdapter, err := paymentsvc.NewPaystackAdapter(cfg.Paystack.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("init paystack adapter: %w", err)
	}
	paypalAdapter := paymentsvc.NewPayPalAdapter(bookRepo, discountRepo)

	var receiptMailer purchasesvc.ReceiptMailer
	if cfg.Mail.Enabled {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
			Addr:     cfg.Mail.SMTPAddr,
			From:     cfg.Mail.From,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("init smtp mailer: %w", err)
		}
		receiptMailer = purchasesvc.NewMailReceipts(smtpMailer)
	}

	purchaseService := purchasesvc.NewService(purchasesvc.Dependencies{
		Purchases: purchaseRepo,
		Books:     bookRepo,
		Discounts: discountRepo,
		Mailer:    receiptMailer,
		Logger:    log,
	})

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}
	storage := downloadsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	if s3Client != nil {
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed, continuing in degraded mode", zap.Error(err))
		}
	}

	tokenIssuer, err := downloadsvc.NewTokenIssuer(cfg.Downloads.TokenSecret, cfg.Downloads.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init download token issuer: %w", err)
	}
	downloadService := downloadsvc.NewService(downloadsvc.Dependencies{
		Purchases: purchaseRepo,
		Books:     bookRepo,
		Storage:   storage,
		Tokens:    tokenIssuer,
	}, cfg.Downloads.URLTTL)

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.RateLimit.DownloadsPerMinute,
		cfg.RateLimit.DownloadsPer10Sec,
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	if pool != nil {
		cleanup.New(discountRepo, time.Hour, log).Start(ctx)
	}

	RegisterRoutes(r, Dependencies{
		AuthService:     authService,
		Paystack:        paystackAdapter,
		PayPal:          paypalAdapter,
		PurchaseService: purchaseService,
		DownloadService: downloadService,
		RateLimiter:     rateLimiter,
		Logger:          log,
		Config:          cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
