package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
)

type Config struct {
	AppEnv          string
	Port            string
	MongoURI        string
	DBName          string
	JWTSecret       string
	JWTExpiry       time.Duration
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Cloudinary CloudinaryConfig
	Mail       MailConfig
	Hotels     HotelsConfig
	AI         AIConfig

	MongoClient *mongo.Client
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// MailConfig points at the ZeptoMail HTTP API used for booking notices.
type MailConfig struct {
	APIURL string
	APIKey string
	From   string
}

func (c MailConfig) Enabled() bool {
	return c.APIURL != "" && c.APIKey != "" && c.From != ""
}

type HotelsConfig struct {
	BaseURL string
	APIKey  string
	Host    string
	Timeout time.Duration
}

type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

const (
	defaultPort            = "5000"
	defaultDBName          = "travel_planner"
	defaultJWTExpiry       = 7 * 24 * time.Hour
	defaultRequestTimeout  = 5 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultHotelsBaseURL   = "https://booking-com.p.rapidapi.com"
	defaultHotelsHost      = "booking-com.p.rapidapi.com"
	defaultAIBaseURL       = "https://api.openai.com/v1"
	defaultAIModel         = "gpt-3.5-turbo"
)

// Load reads .env when present, then the environment. MONGO_URI and
// JWT_SECRET are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      valueOrDefault("APP_ENV", "development"),
		Port:        valueOrDefault("PORT", defaultPort),
		MongoURI:    os.Getenv("MONGO_URI"),
		DBName:      valueOrDefault("DB_NAME", defaultDBName),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: parseCSV(os.Getenv("CORS_ORIGINS")),
		LogLevel:    valueOrDefault("LOG_LEVEL", "info"),
		LogFormat:   valueOrDefault("LOG_FORMAT", "text"),
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    valueOrDefault("CLOUDINARY_FOLDER", "travel-planner"),
		},
		Mail: MailConfig{
			APIURL: os.Getenv("ZEPTO_API_URL"),
			APIKey: os.Getenv("ZEPTO_API_KEY"),
			From:   os.Getenv("EMAIL_FROM"),
		},
		Hotels: HotelsConfig{
			BaseURL: valueOrDefault("HOTELS_API_URL", defaultHotelsBaseURL),
			APIKey:  os.Getenv("RAPIDAPI_KEY"),
			Host:    valueOrDefault("RAPIDAPI_HOST", defaultHotelsHost),
		},
		AI: AIConfig{
			BaseURL:     valueOrDefault("AI_API_URL", defaultAIBaseURL),
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       valueOrDefault("AI_MODEL", defaultAIModel),
			Temperature: parseFloatWithDefault("AI_TEMPERATURE", 0.7),
			MaxTokens:   parseIntWithDefault("AI_MAX_TOKENS", 2000),
		},
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"JWT_EXPIRES_IN", defaultJWTExpiry, &cfg.JWTExpiry},
		{"REQUEST_TIMEOUT", defaultRequestTimeout, &cfg.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.ShutdownTimeout},
		{"HOTELS_TIMEOUT", 15 * time.Second, &cfg.Hotels.Timeout},
		{"AI_TIMEOUT", 60 * time.Second, &cfg.AI.Timeout},
	}
	for _, d := range durations {
		v, err := parseDurationWithDefault(d.key, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	var missing []string
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// IsDevelopment controls whether 500 responses carry error detail.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func valueOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parseDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, errors.New("invalid " + key + ": must be positive")
	}
	return d, nil
}

// parseCSV splits CORS_ORIGINS. An empty value allows every origin.
func parseCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
