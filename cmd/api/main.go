package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/db"
	"fintrack/internal/email"
	apihttp "fintrack/internal/http"
	"fintrack/internal/repository"
	"fintrack/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	accountRepo := repository.NewPgAccountRepository(pool)
	transactionRepo := repository.NewPgTransactionRepository(pool)
	categoryRepo := repository.NewPgCategoryRepository(pool)
	budgetRepo := repository.NewPgBudgetRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var mailLimiter service.MailRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			mailLimiter = service.NewRedisMailRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	tokenServ := service.NewTokenService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLHours)*time.Hour,
	)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	authServ := service.NewAuthService(logger, accountRepo, hasher, tokenServ, emailSender, mailLimiter)
	reportServ := service.NewReportService(transactionRepo, budgetRepo)

	authHandler := apihttp.NewAuthHandler(logger, authServ, tokenServ)
	txHandler := apihttp.NewTransactionHandler(logger, transactionRepo)
	catHandler := apihttp.NewCategoryHandler(logger, categoryRepo)
	budHandler := apihttp.NewBudgetHandler(logger, budgetRepo)
	repHandler := apihttp.NewReportHandler(logger, reportServ)

	router := apihttp.NewRouter(logger, tokenServ, authHandler, txHandler, catHandler, budHandler, repHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
