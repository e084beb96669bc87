package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPlaceholderURL is returned by the placeholder generator.
const DefaultPlaceholderURL = "https://images.unsplash.com/photo-1500530855697-b586d89ba3ee?q=80&w=1200&auto=format&fit=crop"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		URL     string
		Name    string
		Timeout time.Duration
	}
	Auth struct {
		Secret     string
		TokenTTL   time.Duration
		Enforce    bool
		BcryptCost int
	}
	Quota struct {
		Initial int
	}
	Generation struct {
		PlaceholderURL string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}
	CORS struct {
		Origins []string
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// variables already present in the environment win over .env
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("database.url", "data")
	v.SetDefault("database.name", "studioaljo")
	v.SetDefault("database.timeout", 5*time.Second)
	v.SetDefault("auth.secret", "dev-secret")
	v.SetDefault("auth.tokenttl", 7*24*time.Hour)
	v.SetDefault("auth.enforce", true)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("quota.initial", 50)
	v.SetDefault("generation.placeholderurl", DefaultPlaceholderURL)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "uploads")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("log.level", "info")

	// deployment names used by earlier releases
	for key, legacy := range map[string]string{
		"database.url":  "DATABASE_URL",
		"database.name": "DATABASE_NAME",
		"auth.secret":   "SECRET_KEY",
	} {
		prefixed := "STUDIO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORS.Origins = splitOrigins(cfg.CORS.Origins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth token ttl must be positive")
	}
	if c.Database.Timeout <= 0 {
		return errors.New("database timeout must be positive")
	}
	if c.Quota.Initial < 0 {
		return errors.New("initial quota must not be negative")
	}
	if url := strings.TrimSpace(c.Database.URL); strings.Contains(url, "://") && !strings.HasPrefix(url, "file:") {
		return fmt.Errorf("unsupported database url %q", url)
	}
	return nil
}

// DatabasePath resolves the sqlite file from the database url and name.
func (c Config) DatabasePath() string {
	dir := strings.TrimSpace(c.Database.URL)
	dir = strings.TrimPrefix(dir, "file://")
	dir = strings.TrimPrefix(dir, "file:")
	if strings.HasSuffix(dir, ".db") {
		return filepath.Clean(dir)
	}
	if dir == "" {
		dir = "."
	}
	name := strings.TrimSpace(c.Database.Name)
	if name == "" {
		name = "studioaljo"
	}
	return filepath.Join(dir, name+".db")
}

func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
