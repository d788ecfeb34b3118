package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from an optional
// config file and environment variables.
type Config struct {
	ServerPort  string
	SwaggerHost string
	Database    DatabaseConfig
	Redis       RedisConfig
	Session     SessionConfig
	Storage     StorageConfig
	Log         LogConfig
	Admin       AdminConfig
	CORSOrigins []string
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver     string // mysql or sqlite
	MySQLDSN   string
	SQLitePath string
	LogLevel   string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig controls the session cookie and its idle timeout.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	Backend      string // redis or memory
}

// StorageConfig selects where part images are kept.
type StorageConfig struct {
	Backend      string // local or s3
	Dir          string
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// AdminConfig describes the bootstrap administrator account.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Load builds Config from config.yaml (if present) and environment with sensible defaults.
// Environment variables always win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/carparts")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ServerPort:  v.GetString("server_port"),
		SwaggerHost: v.GetString("swagger_host"),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("db_driver")),
			MySQLDSN:   v.GetString("mysql_dsn"),
			SQLitePath: v.GetString("sqlite_path"),
			LogLevel:   v.GetString("db_log_level"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("session_secret"),
			TTL:          v.GetDuration("session_ttl"),
			CookieName:   v.GetString("cookie_name"),
			CookieSecure: v.GetBool("cookie_secure"),
			Backend:      strings.ToLower(v.GetString("session_backend")),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(v.GetString("image_backend")),
			Dir:          v.GetString("image_dir"),
			Bucket:       v.GetString("s3_bucket"),
			Region:       v.GetString("s3_region"),
			Endpoint:     v.GetString("s3_endpoint"),
			AccessKey:    v.GetString("s3_access_key"),
			SecretKey:    v.GetString("s3_secret_key"),
			UsePathStyle: v.GetBool("s3_use_path_style"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
			Output: v.GetString("log_output"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin_username"),
			Email:    v.GetString("admin_email"),
			Password: v.GetString("admin_password"),
		},
		CORSOrigins: splitList(v.GetString("cors_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("swagger_host", "")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("mysql_dsn", "root:@tcp(localhost:3306)/carmarket?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("sqlite_path", "carparts.db")
	v.SetDefault("db_log_level", "warn")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_secret", "change-me")
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("cookie_name", "carparts_session")
	v.SetDefault("cookie_secure", true)
	v.SetDefault("session_backend", "redis")
	v.SetDefault("image_backend", "local")
	v.SetDefault("image_dir", "images")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_use_path_style", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_output", "stdout")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_email", "admin@carmarket.com")
	v.SetDefault("admin_password", "admin")
	v.SetDefault("cors_origins", "http://localhost:3000")
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported db driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported image backend %q", c.Storage.Backend)
	}
	switch c.Session.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
