package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/deskpulse/deskpulse/internal/domain"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Source   SourceConfig   `json:"source"`
	Database DatabaseConfig `json:"database"`
	Cache    CacheConfig    `json:"cache"`
	Logging  LoggingConfig  `json:"logging"`
	SLA      SLAConfig      `json:"sla"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
	CORSOrigin   string        `json:"cors_origin"`
}

// SourceConfig selects and configures the incident record source.
type SourceConfig struct {
	// Kind is one of "excel", "csv", "postgres".
	Kind string `json:"kind"`
	// Path is the workbook or CSV file for the file-backed sources.
	Path string `json:"path"`
	// Sheet optionally names the workbook sheet; empty means the first one.
	Sheet string `json:"sheet"`
	// RegionMapPath optionally points at a workbook mapping assignment
	// groups to regions, used when the data itself has no region column.
	RegionMapPath string `json:"region_map_path"`
}

// DatabaseConfig represents database configuration for the postgres source.
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"dbname"`
	SSLMode        string        `json:"sslmode"`
	MaxConnections int           `json:"max_connections"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// CacheConfig represents the optional redis report cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled"`
	URL     string        `json:"url"`
	TTL     time.Duration `json:"ttl"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text
}

// SLAConfig carries every SLA threshold as named configuration so no
// minute literal is repeated at a call site.
type SLAConfig struct {
	BaselineMinutes    float64 `json:"baseline_minutes"`
	GoalMinutes        float64 `json:"goal_minutes"`
	MinorCutMinutes    float64 `json:"minor_cut_minutes"`
	ModerateCutMinutes float64 `json:"moderate_cut_minutes"`
}

// Load loads configuration from environment variables and defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := domain.DefaultThresholds()

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
			CORSOrigin:   getEnv("CORS_ORIGIN", "*"),
		},
		Source: SourceConfig{
			Kind:          strings.ToLower(getEnv("SOURCE_KIND", "excel")),
			Path:          getEnv("SOURCE_PATH", "./data/incidents.xlsx"),
			Sheet:         getEnv("SOURCE_SHEET", ""),
			RegionMapPath: getEnv("SOURCE_REGION_MAP_PATH", ""),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", ""),
			DBName:         getEnv("DB_NAME", "deskpulse"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 20),
			ConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", false),
			URL:     getEnv("CACHE_REDIS_URL", "redis://localhost:6379/0"),
			TTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		SLA: SLAConfig{
			BaselineMinutes:    getEnvFloat("SLA_BASELINE_MINUTES", defaults.BaselineMinutes),
			GoalMinutes:        getEnvFloat("SLA_GOAL_MINUTES", defaults.GoalMinutes),
			MinorCutMinutes:    getEnvFloat("SLA_MINOR_CUT_MINUTES", defaults.MinorCutMinutes),
			ModerateCutMinutes: getEnvFloat("SLA_MODERATE_CUT_MINUTES", defaults.ModerateCutMinutes),
		},
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Source.Kind {
	case "excel", "csv":
		if c.Source.Path == "" {
			return fmt.Errorf("source path is required for %s source", c.Source.Kind)
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unknown source kind: %s", c.Source.Kind)
	}

	if c.SLA.BaselineMinutes <= 0 {
		return fmt.Errorf("SLA baseline must be positive")
	}
	if c.SLA.GoalMinutes <= 0 || c.SLA.GoalMinutes > c.SLA.BaselineMinutes {
		return fmt.Errorf("SLA goal must be positive and no larger than the baseline")
	}
	if c.SLA.MinorCutMinutes <= 0 || c.SLA.ModerateCutMinutes <= c.SLA.MinorCutMinutes {
		return fmt.Errorf("severity cut points must be positive and increasing")
	}

	return nil
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Thresholds converts the SLA section into the domain threshold set.
func (c *Config) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		BaselineMinutes:    c.SLA.BaselineMinutes,
		GoalMinutes:        c.SLA.GoalMinutes,
		MinorCutMinutes:    c.SLA.MinorCutMinutes,
		ModerateCutMinutes: c.SLA.ModerateCutMinutes,
	}
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
