package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Schedule  ScheduleConfig
	Generator GeneratorConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig governs the timetable grid and chunked persistence.
//
// StoreOpLimit is the hard per-transaction operation limit of the backing
// store; ChunkSize must stay below it to leave headroom.
type ScheduleConfig struct {
	DaysPerWeek    int
	SlotsPerDay    int
	PeriodDuration time.Duration
	ChunkSize      int
	StoreOpLimit   int
	CacheTTL       time.Duration
}

// GeneratorConfig points at the external candidate-schedule generator.
type GeneratorConfig struct {
	URL     string
	Timeout time.Duration
}

// ExportConfig tunes timetable export rendering.
type ExportConfig struct {
	Title string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = ScheduleConfig{
		DaysPerWeek:    v.GetInt("SCHEDULE_DAYS_PER_WEEK"),
		SlotsPerDay:    v.GetInt("SCHEDULE_SLOTS_PER_DAY"),
		PeriodDuration: parseDuration(v.GetString("SCHEDULE_PERIOD_DURATION"), 45*time.Minute),
		ChunkSize:      v.GetInt("SCHEDULE_CHUNK_SIZE"),
		StoreOpLimit:   v.GetInt("SCHEDULE_STORE_OP_LIMIT"),
		CacheTTL:       parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Generator = GeneratorConfig{
		URL:     v.GetString("GENERATOR_URL"),
		Timeout: parseDuration(v.GetString("GENERATOR_TIMEOUT"), 60*time.Second),
	}

	cfg.Export = ExportConfig{
		Title: v.GetString("EXPORT_TITLE"),
	}

	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects malformed schedule settings before any scheduling work
// can start.
func (c ScheduleConfig) Validate() error {
	if c.DaysPerWeek <= 0 || c.DaysPerWeek > 7 {
		return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("days per week must be between 1 and 7, got %d", c.DaysPerWeek))
	}
	if c.SlotsPerDay <= 0 {
		return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("slots per day must be positive, got %d", c.SlotsPerDay))
	}
	if c.PeriodDuration <= 0 {
		return appErrors.Clone(appErrors.ErrConfiguration, "period duration must be positive")
	}
	if c.ChunkSize <= 0 {
		return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.StoreOpLimit > 0 && c.ChunkSize > c.StoreOpLimit {
		return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("chunk size %d exceeds store transaction limit %d", c.ChunkSize, c.StoreOpLimit))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tabula")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULE_DAYS_PER_WEEK", 6)
	v.SetDefault("SCHEDULE_SLOTS_PER_DAY", 8)
	v.SetDefault("SCHEDULE_PERIOD_DURATION", "45m")
	v.SetDefault("SCHEDULE_CHUNK_SIZE", 400)
	v.SetDefault("SCHEDULE_STORE_OP_LIMIT", 500)
	v.SetDefault("TIMETABLE_CACHE_TTL", "5m")

	v.SetDefault("GENERATOR_URL", "")
	v.SetDefault("GENERATOR_TIMEOUT", "60s")

	v.SetDefault("EXPORT_TITLE", "Timetable")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
