// Package config loads process settings from an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type MySQL struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
}

type Config struct {
	Env string `yaml:"env"`

	Port           string        `yaml:"port"`
	GatewayPort    string        `yaml:"gatewayPort"`
	GatewayBaseURL string        `yaml:"gatewayBaseUrl"`
	GatewayTimeout time.Duration `yaml:"gatewayTimeout"`
	FallbackMode   string        `yaml:"fallbackMode"`

	StoreBackend   string `yaml:"storeBackend"`
	DataDir        string `yaml:"dataDir"`
	DatabaseURL    string `yaml:"databaseUrl"`
	MySQL          MySQL  `yaml:"mysql"`
	MongoURI       string `yaml:"mongoUri"`
	MongoDatabase  string `yaml:"mongoDatabase"`
	AWSRegion      string `yaml:"awsRegion"`
	DynamoEndpoint string `yaml:"dynamoEndpoint"`

	BlobBackend string `yaml:"blobBackend"`
	S3Bucket    string `yaml:"s3Bucket"`
	S3Endpoint  string `yaml:"s3Endpoint"`
	BlobDir     string `yaml:"blobDir"`
	BlobBaseURL string `yaml:"blobBaseUrl"`

	RedisHost   string `yaml:"redisHost"`
	RabbitMQURL string `yaml:"rabbitmqUrl"`

	JWTSecret               string        `yaml:"jwtSecret"`
	SessionTTL              time.Duration `yaml:"sessionTtl"`
	TokenTTL                time.Duration `yaml:"tokenTtl"`
	LegacyPasswordMigration bool          `yaml:"legacyPasswordMigration"`
}

func Defaults() Config {
	return Config{
		Env:            "development",
		Port:           "8080",
		GatewayPort:    "7071",
		GatewayBaseURL: "http://localhost:7071/api",
		GatewayTimeout: 5 * time.Second,
		FallbackMode:   "auto",
		StoreBackend:   "file",
		DataDir:        "AppData",
		MongoDatabase:  "storefront",
		AWSRegion:      "us-east-1",
		BlobBackend:    "local",
		BlobDir:        "uploads",
		BlobBaseURL:    "http://localhost:7071/blobs",
		SessionTTL:     30 * time.Minute,
		TokenTTL:       60 * time.Minute,
		MySQL: MySQL{
			Host: "localhost",
			Port: "3306",
		},
		LegacyPasswordMigration: true,
	}
}

// Load builds the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = GetEnvOrDefault("ENV", cfg.Env)
	cfg.Port = GetEnvOrDefault("PORT", cfg.Port)
	cfg.GatewayPort = GetEnvOrDefault("GATEWAY_PORT", cfg.GatewayPort)
	cfg.GatewayBaseURL = GetEnvOrDefault("GATEWAY_BASE_URL", cfg.GatewayBaseURL)
	cfg.GatewayTimeout = durationEnv("GATEWAY_TIMEOUT", cfg.GatewayTimeout)
	cfg.FallbackMode = GetEnvOrDefault("FALLBACK_MODE", cfg.FallbackMode)

	cfg.StoreBackend = GetEnvOrDefault("STORE_BACKEND", cfg.StoreBackend)
	cfg.DataDir = GetEnvOrDefault("DATA_DIR", cfg.DataDir)
	cfg.DatabaseURL = GetEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.MySQL.User = GetEnvOrDefault("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = GetEnvOrDefault("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.Host = GetEnvOrDefault("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = GetEnvOrDefault("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.Database = GetEnvOrDefault("MYSQL_DATABASE", cfg.MySQL.Database)
	cfg.MongoURI = GetEnvOrDefault("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDatabase = GetEnvOrDefault("MONGODB_DATABASE", cfg.MongoDatabase)
	cfg.AWSRegion = GetEnvOrDefault("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoEndpoint = GetEnvOrDefault("DYNAMO_ENDPOINT", cfg.DynamoEndpoint)

	cfg.BlobBackend = GetEnvOrDefault("BLOB_BACKEND", cfg.BlobBackend)
	cfg.S3Bucket = GetEnvOrDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Endpoint = GetEnvOrDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.BlobDir = GetEnvOrDefault("BLOB_DIR", cfg.BlobDir)
	cfg.BlobBaseURL = GetEnvOrDefault("BLOB_BASE_URL", cfg.BlobBaseURL)

	cfg.RedisHost = GetEnvOrDefault("REDIS_HOST", cfg.RedisHost)
	cfg.RabbitMQURL = GetEnvOrDefault("RABBITMQ_URL", cfg.RabbitMQURL)

	cfg.JWTSecret = GetEnvOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.SessionTTL = durationEnv("SESSION_TTL", cfg.SessionTTL)
	cfg.TokenTTL = durationEnv("TOKEN_TTL", cfg.TokenTTL)
	cfg.LegacyPasswordMigration = boolEnv("LEGACY_PASSWORD_MIGRATION", cfg.LegacyPasswordMigration)
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration for %s: %q", key, v)
		return def
	}
	return d
}

func boolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid bool for %s: %q", key, v)
		return def
	}
	return b
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
