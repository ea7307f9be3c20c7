package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvTokenKey       = "TOKEN_KEY"
	EnvTokenTTL       = "TOKEN_TTL"
	EnvVerifyTokenTTL = "VERIFY_TOKEN_TTL"
	EnvBcryptCost     = "BCRYPT_COST"

	EnvUploadDir   = "UPLOAD_DIR"
	EnvPublicURL   = "PUBLIC_URL"
	EnvFrontendURL = "FRONTEND_URL"

	EnvKafkaBrokers  = "KAFKA_BROKERS"
	EnvMailTopic     = "MAIL_TOPIC"
	EnvMailGroupID   = "MAIL_GROUP_ID"
	EnvSMTPHost      = "SMTP_HOST"
	EnvSMTPPort      = "SMTP_PORT"
	EnvSMTPUsername  = "SMTP_USERNAME"
	EnvSMTPPassword  = "SMTP_PASSWORD"
	EnvMailFromAddr  = "MAIL_FROM_ADDRESS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
