package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/internal/cache"
	"github.com/debarkamondal/dezmerce-backend/internal/gateway"
	h "github.com/debarkamondal/dezmerce-backend/internal/http"
	"github.com/debarkamondal/dezmerce-backend/internal/publisher"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
	"github.com/debarkamondal/dezmerce-backend/internal/service"
	"github.com/debarkamondal/dezmerce-backend/internal/token"
)

type Config struct {
	HTTPPort         string
	MongoURI         string
	MongoDBName      string
	RedisAddr        string
	RedisPassword    string
	KafkaBrokers     []string
	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	JWTSecret        string
	Currency         string
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
}

func loadConfig() *Config {
	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:      getEnv("MONGO_DB_NAME", "dezmerce"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		GatewayBaseURL:   getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
		GatewayKeyID:     getEnv("GATEWAY_KEY_ID", ""),
		GatewayKeySecret: getEnv("GATEWAY_KEY_SECRET", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		Currency:         getEnv("CURRENCY", "INR"),
		RequestTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.GatewayKeyID == "" || cfg.GatewayKeySecret == "" {
		log.Fatal("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required")
	}

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("uri", cfg.MongoURI))

	repo := repository.NewRecordRepository(mongoDB)
	if err := repo.CreateIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	var audit service.AuditPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := publisher.NewKafkaAuditPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		audit = kafkaPublisher
		log.Info("audit events go to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		audit = publisher.NopAuditPublisher{}
		log.Warn("KAFKA_BROKERS not set, audit events are dropped")
	}

	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)
	tokens := token.NewManager(cfg.JWTSecret)

	oracle := service.NewPriceOracle(repo, cache.NewRedisCache(redisClient), log)
	resolver := service.NewSnapshotResolver(repo, oracle)
	ledger := service.NewOrderLedger(repo, log)
	sessions := service.NewPaymentSession(repo, gw, cfg.Currency, log)
	settlement := service.NewSettlement(repo, gw, audit, log)
	reconciler := service.NewReconciler(repo, log)

	router := h.NewRouter(
		h.NewCartHandler(repo, oracle),
		h.NewOrdersHandler(resolver, ledger, sessions, settlement, tokens),
		h.NewPaymentsHandler(sessions, settlement, tokens),
		h.NewAdminHandler(ledger, settlement),
		tokens,
		cfg.RequestTimeout,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	reconCtx, stopReconciler := context.WithCancel(ctx)
	go reconciler.Run(reconCtx)

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopReconciler()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
