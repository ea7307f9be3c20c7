package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "rentease"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// Dev-only AES-256 key (base64). Production must set TOKEN_KEY.
	DefaultTokenKey       = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="
	DefaultTokenTTL       = 7 * 24 * time.Hour
	DefaultVerifyTokenTTL = 24 * time.Hour
	DefaultBcryptCost     = 12

	DefaultUploadDir   = "uploads"
	DefaultPublicURL   = "http://localhost:8080"
	DefaultFrontendURL = "http://localhost:3000"

	DefaultKafkaBrokers = "localhost:9092"
	DefaultMailTopic    = "rentease.mail"
	DefaultMailGroupID  = "rentease-mail-worker"
	DefaultSMTPPort     = 587
	DefaultMailFromAddr = "support@rentease.local"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 10 * 1024 * 1024 // images travel base64-encoded in JSON

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPageSize = 10
	MaxPageSize     = 100
)
