package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gogotex/pdfstore/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   storage.Config
	Registry  RegistryConfig
	Ingest    IngestConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type FirestoreConfig struct {
	ProjectID  string
	Collection string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// RegistryConfig selects where document records live: mongo, firestore or memory.
type RegistryConfig struct {
	Backend       string
	DeleteTimeout time.Duration
}

// IngestConfig sizes segments and bounds uploads.
type IngestConfig struct {
	SegmentBudgetBytes int64
	SafetyMargin       float64
	AdaptiveShrink     bool
	UploadAttempts     int
	RetryDelay         time.Duration
	UploadTimeout      time.Duration
	UploadConcurrency  int
	MaxUploadBytes     int64
	Folder             string
	TempDir            string
}

// writeMargin is left on top of the upload budget for spooling, planning and persisting.
const writeMargin = time.Minute

// UploadBudget is the longest one segment upload may take: every attempt
// running to its timeout plus the waits in between.
func (in IngestConfig) UploadBudget() time.Duration {
	if in.UploadAttempts < 1 {
		return 0
	}
	n := time.Duration(in.UploadAttempts)
	return n*in.UploadTimeout + (n-1)*in.RetryDelay
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "5m")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "6m")
	viper.SetDefault("MONGODB_DATABASE", "pdfstore")
	viper.SetDefault("MONGODB_COLLECTION", "documents")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("FIRESTORE_COLLECTION", "documents")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("STORAGE_BACKEND", storage.BackendMinIO)
	viper.SetDefault("STORAGE_BUCKET", "pdfstore")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("REGISTRY_BACKEND", "mongo")
	viper.SetDefault("REGISTRY_DELETE_TIMEOUT", "1m")
	viper.SetDefault("INGEST_SEGMENT_BUDGET_BYTES", int64(9.5*1024*1024))
	viper.SetDefault("INGEST_SAFETY_MARGIN", 0.9)
	viper.SetDefault("INGEST_ADAPTIVE_SHRINK", true)
	viper.SetDefault("INGEST_UPLOAD_ATTEMPTS", 3)
	viper.SetDefault("INGEST_RETRY_DELAY", "1s")
	viper.SetDefault("INGEST_UPLOAD_TIMEOUT", "90s")
	viper.SetDefault("INGEST_UPLOAD_CONCURRENCY", 4)
	viper.SetDefault("INGEST_MAX_UPLOAD_BYTES", int64(100*1024*1024))
	viper.SetDefault("INGEST_FOLDER", "documents")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		MongoDB: MongoDBConfig{
			URI:        viper.GetString("MONGODB_URI"),
			Database:   viper.GetString("MONGODB_DATABASE"),
			Collection: viper.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Firestore: FirestoreConfig{
			ProjectID:  viper.GetString("FIRESTORE_PROJECT_ID"),
			Collection: viper.GetString("FIRESTORE_COLLECTION"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Storage: storage.Config{
			Backend: strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			Bucket:  viper.GetString("STORAGE_BUCKET"),
			MinIO: storage.MinIOConfig{
				Endpoint:  viper.GetString("MINIO_ENDPOINT"),
				AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				UseSSL:    viper.GetBool("MINIO_USE_SSL"),
				PublicURL: viper.GetString("MINIO_PUBLIC_URL"),
			},
			S3: storage.S3Config{
				Region:    viper.GetString("AWS_REGION"),
				AccessKey: viper.GetString("AWS_ACCESS_KEY_ID"),
				SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				Endpoint:  viper.GetString("S3_ENDPOINT"),
			},
			GCS: storage.GCSConfig{
				PublicURL: viper.GetString("GCS_PUBLIC_URL"),
			},
		},
		Registry: RegistryConfig{
			Backend:       strings.ToLower(viper.GetString("REGISTRY_BACKEND")),
			DeleteTimeout: viper.GetDuration("REGISTRY_DELETE_TIMEOUT"),
		},
		Ingest: IngestConfig{
			SegmentBudgetBytes: viper.GetInt64("INGEST_SEGMENT_BUDGET_BYTES"),
			SafetyMargin:       viper.GetFloat64("INGEST_SAFETY_MARGIN"),
			AdaptiveShrink:     viper.GetBool("INGEST_ADAPTIVE_SHRINK"),
			UploadAttempts:     viper.GetInt("INGEST_UPLOAD_ATTEMPTS"),
			RetryDelay:         viper.GetDuration("INGEST_RETRY_DELAY"),
			UploadTimeout:      viper.GetDuration("INGEST_UPLOAD_TIMEOUT"),
			UploadConcurrency:  viper.GetInt("INGEST_UPLOAD_CONCURRENCY"),
			MaxUploadBytes:     viper.GetInt64("INGEST_MAX_UPLOAD_BYTES"),
			Folder:             viper.GetString("INGEST_FOLDER"),
			TempDir:            viper.GetString("INGEST_TEMP_DIR"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if floor := cfg.Ingest.UploadBudget() + writeMargin; cfg.Server.WriteTimeout < floor {
		log.Printf("WARNING: SERVER_WRITE_TIMEOUT %s is shorter than the upload retry budget; raising it to %s", cfg.Server.WriteTimeout, floor)
		cfg.Server.WriteTimeout = floor
	}

	// Basic validation
	if cfg.JWT.Secret == "" && cfg.Keycloak.URL == "" {
		log.Println("WARNING: neither JWT_SECRET nor KEYCLOAK_URL is set; upload, update and delete will answer 503")
	}

	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	in := c.Ingest
	if in.SegmentBudgetBytes <= 0 {
		return fmt.Errorf("INGEST_SEGMENT_BUDGET_BYTES must be positive, got %d", in.SegmentBudgetBytes)
	}
	if !(in.SafetyMargin > 0 && in.SafetyMargin <= 1) {
		return fmt.Errorf("INGEST_SAFETY_MARGIN must be in (0,1], got %v", in.SafetyMargin)
	}
	if in.UploadAttempts < 1 {
		return fmt.Errorf("INGEST_UPLOAD_ATTEMPTS must be at least 1, got %d", in.UploadAttempts)
	}
	if in.RetryDelay < 0 || in.UploadTimeout < 0 {
		return fmt.Errorf("INGEST_RETRY_DELAY and INGEST_UPLOAD_TIMEOUT must not be negative")
	}
	if in.UploadConcurrency < 1 {
		return fmt.Errorf("INGEST_UPLOAD_CONCURRENCY must be at least 1, got %d", in.UploadConcurrency)
	}
	switch c.Registry.Backend {
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when REGISTRY_BACKEND=mongo")
		}
	case "firestore":
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required when REGISTRY_BACKEND=firestore")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", c.Registry.Backend)
	}
	switch c.Storage.Backend {
	case storage.BackendMinIO, storage.BackendS3, storage.BackendGCS, storage.BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}
