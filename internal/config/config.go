package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	GenAI      GenAIConfig      `yaml:"genai"`
	Storage    StorageConfig    `yaml:"storage"`
	Payment    PaymentConfig    `yaml:"payment"`
	Identity   IdentityConfig   `yaml:"identity"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	Generation GenerationConfig `yaml:"generation"`
	Admin      AdminConfig      `yaml:"admin"`

	// EncryptionKey is a 32-byte hex key for AES-GCM field encryption.
	EncryptionKey string `yaml:"encryption-key"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// GenAIConfig holds vision and image-generation API settings.
type GenAIConfig struct {
	APIKey          string `yaml:"api-key"`
	BaseURL         string `yaml:"base-url"`
	VisionModel     string `yaml:"vision-model"`
	GenerationModel string `yaml:"generation-model"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	BaseURL    string `yaml:"base-url"`
	Bucket     string `yaml:"bucket"`
	ServiceKey string `yaml:"service-key"`
}

// PaymentConfig holds payment-gateway settings.
type PaymentConfig struct {
	SecretKey string `yaml:"secret-key"`
	BaseURL   string `yaml:"base-url"`
}

// IdentityConfig holds OAuth identity provider settings.
type IdentityConfig struct {
	UserInfoURL string `yaml:"userinfo-url"`
}

// RedisConfig holds redis settings for rate limiting. Optional.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AdminConfig holds the initial back-office account created at boot when no
// admin with that username exists yet.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// GenerationConfig holds generation pricing and throttling settings.
type GenerationConfig struct {
	CostPerImage       int64 `yaml:"cost-per-image"`
	RateLimitPerMinute int   `yaml:"rate-limit-per-minute"`
}

// Load reads a YAML config file and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			if !os.IsNotExist(errRead) {
				return cfg, fmt.Errorf("config: read %s: %w", path, errRead)
			}
		} else if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	applyEnvOverrides(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return cfg, fmt.Errorf("config: database dsn is required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, fmt.Errorf("config: jwt secret is required")
	}
	return cfg, nil
}

// defaults returns the baseline configuration.
func defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":8317"},
		JWT:    JWTConfig{Expiry: 24 * time.Hour},
		GenAI: GenAIConfig{
			BaseURL:         "https://generativelanguage.googleapis.com",
			VisionModel:     "gemini-2.5-flash",
			GenerationModel: "imagen-4.0-generate-001",
		},
		Payment: PaymentConfig{BaseURL: "https://api.tosspayments.com"},
		Log:     LogConfig{Level: "info"},
		Generation: GenerationConfig{
			CostPerImage:       2,
			RateLimitPerMinute: 10,
		},
	}
}

// applyEnvOverrides overlays environment variables onto the config.
func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"SERVER_ADDR":        &cfg.Server.Addr,
		"DATABASE_DSN":       &cfg.Database.DSN,
		"JWT_SECRET":         &cfg.JWT.Secret,
		"GEMINI_API_KEY":     &cfg.GenAI.APIKey,
		"STORAGE_BASE_URL":   &cfg.Storage.BaseURL,
		"STORAGE_BUCKET":     &cfg.Storage.Bucket,
		"STORAGE_KEY":        &cfg.Storage.ServiceKey,
		"TOSS_SECRET_KEY":    &cfg.Payment.SecretKey,
		"OAUTH_USERINFO_URL": &cfg.Identity.UserInfoURL,
		"REDIS_ADDR":         &cfg.Redis.Addr,
		"ADMIN_USERNAME":     &cfg.Admin.Username,
		"ADMIN_PASSWORD":     &cfg.Admin.Password,
		"ENCRYPTION_KEY":     &cfg.EncryptionKey,
		"LOG_FILE":           &cfg.Log.File,
		"LOG_LEVEL":          &cfg.Log.Level,
	}
	for key, target := range overrides {
		if value, ok := os.LookupEnv(key); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				*target = trimmed
			}
		}
	}
}
