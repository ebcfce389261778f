package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	S3     S3Config
	JWT    JWTConfig
	Chat   ChatConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
}

type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// ChatConfig carries the business-rule knobs for the chat subsystem.
type ChatConfig struct {
	EditWindow       time.Duration // sender may edit a message this long after creation
	TypingTTL        time.Duration // typing records expire server-side after this
	ConversationCap  int           // max conversations returned per user
	MessageWindow    int           // default live message window size
	MaxImageBytes    int64
	MaxDocumentBytes int64
	OfflineSyncEvery time.Duration // background offline-queue drain interval
	CacheTTL         time.Duration // read-through cache entry lifetime
}

// LoadConfig loads configuration from environment variables.
// A local .env file is honored when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "flexchat"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Region:     getEnv("S3_REGION", "eu-west-1"),
			Bucket:     getEnv("S3_BUCKET", "flexchat-attachments"),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			PublicBase: getEnv("S3_PUBLIC_BASE", ""),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "dev-secret"),
			AccessTTL: getEnvAsDuration("JWT_ACCESS_TTL", 15*time.Minute),
		},
		Chat: ChatConfig{
			EditWindow:       getEnvAsDuration("CHAT_EDIT_WINDOW", 15*time.Minute),
			TypingTTL:        getEnvAsDuration("CHAT_TYPING_TTL", 10*time.Second),
			ConversationCap:  getEnvAsInt("CHAT_CONVERSATION_CAP", 50),
			MessageWindow:    getEnvAsInt("CHAT_MESSAGE_WINDOW", 50),
			MaxImageBytes:    getEnvAsInt64("CHAT_MAX_IMAGE_BYTES", 10<<20),
			MaxDocumentBytes: getEnvAsInt64("CHAT_MAX_DOCUMENT_BYTES", 100<<20),
			OfflineSyncEvery: getEnvAsDuration("CHAT_OFFLINE_SYNC_EVERY", 30*time.Second),
			CacheTTL:         getEnvAsDuration("CHAT_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
