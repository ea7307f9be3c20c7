package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rentease/pkg/client"
	"rentease/pkg/logger"
)

type Config struct {
	ServiceName string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	TokenKey       []byte
	TokenTTL       time.Duration
	VerifyTokenTTL time.Duration
	BcryptCost     int

	UploadDir   string
	PublicURL   string
	FrontendURL string

	KafkaBrokers []string
	MailTopic    string
	MailGroupID  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFromAddr string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// Missing .env is fine in production; env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:       serviceName,
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		TokenTTL:       getEnvDuration(EnvTokenTTL, DefaultTokenTTL),
		VerifyTokenTTL: getEnvDuration(EnvVerifyTokenTTL, DefaultVerifyTokenTTL),
		BcryptCost:     getEnvNum(EnvBcryptCost, DefaultBcryptCost),

		UploadDir:   getEnvStr(EnvUploadDir, DefaultUploadDir),
		PublicURL:   getEnvStr(EnvPublicURL, DefaultPublicURL),
		FrontendURL: getEnvStr(EnvFrontendURL, DefaultFrontendURL),

		KafkaBrokers: splitAndTrim(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		MailTopic:    getEnvStr(EnvMailTopic, DefaultMailTopic),
		MailGroupID:  getEnvStr(EnvMailGroupID, DefaultMailGroupID),
		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername: getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		MailFromAddr: getEnvStr(EnvMailFromAddr, DefaultMailFromAddr),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	key, err := base64.StdEncoding.DecodeString(getEnvStr(EnvTokenKey, DefaultTokenKey))
	if err != nil {
		cfg.Log.Fatal("TOKEN_KEY must be base64-encoded", "error", err)
	}
	cfg.TokenKey = key

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if len(cfg.TokenKey) != 32 {
		errs = append(errs, fmt.Sprintf("TokenKey must decode to 32 bytes (AES-256), got: %d", len(cfg.TokenKey)))
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("TokenTTL must be positive, got: %s", cfg.TokenTTL))
	}
	if cfg.VerifyTokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("VerifyTokenTTL must be positive, got: %s", cfg.VerifyTokenTTL))
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		errs = append(errs, fmt.Sprintf("BcryptCost must be between 4 and 31, got: %d", cfg.BcryptCost))
	}

	if cfg.UploadDir == "" {
		errs = append(errs, "UploadDir cannot be empty")
	}
	if len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, "at least one Kafka broker is required")
	}
	if cfg.MailTopic == "" {
		errs = append(errs, "MailTopic cannot be empty")
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"token_ttl", cfg.TokenTTL,
		"verify_token_ttl", cfg.VerifyTokenTTL,
		"bcrypt_cost", cfg.BcryptCost,
		"upload_dir", cfg.UploadDir,
		"public_url", cfg.PublicURL,
		"frontend_url", cfg.FrontendURL,
		"kafka_brokers", strings.Join(cfg.KafkaBrokers, ","),
		"mail_topic", cfg.MailTopic,
		"smtp_configured", cfg.SMTPHost != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePage(page int) int {
	return max(1, page)
}

func NormalizePageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
