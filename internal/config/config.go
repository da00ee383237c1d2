package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP_ADDR string

	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	// Access tokens
	JWT_SECRET   string
	JWT_ISSUER   string
	JWT_AUDIENCE string
	TOKEN_TTL    time.Duration
	STATE_SECRET string

	// Auth0 single sign-on, disabled when AUTH0_DOMAIN is empty
	AUTH0_DOMAIN        string
	AUTH0_CLIENT_ID     string
	AUTH0_CLIENT_SECRET string
	AUTH0_CALLBACK_URL  string
	SSO_REDIRECT_URL    string

	// Redis backs invitation tokens
	REDIS_ADDR     string
	REDIS_PASSWORD string
	REDIS_DB       int
	INVITATION_TTL time.Duration

	// Return 404 instead of 403 when a non-member probes a private project
	CONCEAL_PRIVATE_PROJECTS bool

	// ClickHouse configuration for the activity log
	CLICKHOUSE_HOST     string
	CLICKHOUSE_PORT     int
	CLICKHOUSE_DATABASE string
	CLICKHOUSE_USERNAME string
	CLICKHOUSE_PASSWORD string
	CLICKHOUSE_USE_TLS  bool

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
}

func ReadConfig() *Config {
	// Default to HTTP port 8123 (more compatible than native port 9000)
	clickhousePort := 8123
	if portStr := os.Getenv("CLICKHOUSE_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			clickhousePort = port
		}
	}

	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			redisDB = n
		}
	}

	return &Config{
		HTTP_ADDR: GetEnvOrDefault("HTTP_ADDR", "0.0.0.0:6060"),

		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		JWT_SECRET:   os.Getenv("JWT_SECRET"),
		JWT_ISSUER:   GetEnvOrDefault("JWT_ISSUER", "taskboard"),
		JWT_AUDIENCE: GetEnvOrDefault("JWT_AUDIENCE", "taskboard-api"),
		TOKEN_TTL:    getDurationOrDefault("TOKEN_TTL", 24*time.Hour),
		STATE_SECRET: os.Getenv("STATE_SECRET"),

		AUTH0_DOMAIN:        os.Getenv("AUTH0_DOMAIN"),
		AUTH0_CLIENT_ID:     os.Getenv("AUTH0_CLIENT_ID"),
		AUTH0_CLIENT_SECRET: os.Getenv("AUTH0_CLIENT_SECRET"),
		AUTH0_CALLBACK_URL:  os.Getenv("AUTH0_CALLBACK_URL"),
		SSO_REDIRECT_URL:    GetEnvOrDefault("SSO_REDIRECT_URL", "http://localhost:3000"),

		REDIS_ADDR:     GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       redisDB,
		INVITATION_TTL: getDurationOrDefault("INVITATION_TTL", 72*time.Hour),

		CONCEAL_PRIVATE_PROJECTS: os.Getenv("CONCEAL_PRIVATE_PROJECTS") == "true",

		CLICKHOUSE_HOST:     os.Getenv("CLICKHOUSE_HOST"),
		CLICKHOUSE_PORT:     clickhousePort,
		CLICKHOUSE_DATABASE: GetEnvOrDefault("CLICKHOUSE_DATABASE", "taskboard"),
		CLICKHOUSE_USERNAME: GetEnvOrDefault("CLICKHOUSE_USERNAME", "default"),
		CLICKHOUSE_PASSWORD: os.Getenv("CLICKHOUSE_PASSWORD"),
		CLICKHOUSE_USE_TLS:  os.Getenv("CLICKHOUSE_USE_TLS") == "true",

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// ConnString builds the postgres DSN shared by the pool and the LISTEN connection.
func (c *Config) ConnString() string {
	str := "postgresql://" + c.DB_USERNAME + ":" + c.DB_PASSWORD + "@" + c.DB_HOST + ":" + c.DB_PORT + "/" + c.DB_NAME
	if c.DISABLE_TLS == "true" {
		str = str + "?sslmode=disable"
	}
	return str
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}
