package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Registration RegistrationConfig
	Waitlist     WaitlistConfig
	Periods      PeriodConfig
	Events       EventsConfig
	Exports      ExportsConfig
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

// JWTConfig holds the secret used to read actor identity from bearer tokens.
// The service performs no authentication of its own; tokens are issued by the
// campus identity provider.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RegistrationConfig tunes admission behaviour.
type RegistrationConfig struct {
	// PromoteOnCancel extends rejection-triggered waitlist promotion to
	// cancellations. Both free a seat, so symmetry is the default.
	PromoteOnCancel bool
	// EarlyPeriodMinGPA gates EARLY registration periods to high-GPA
	// students. Zero disables the policy.
	EarlyPeriodMinGPA float64
	// MaxBatchSize bounds batch registration payloads.
	MaxBatchSize int
}

// WaitlistConfig tunes waitlist behaviour.
type WaitlistConfig struct {
	// DefaultCapacity applies when a course row carries no waitlist capacity.
	DefaultCapacity int
}

// PeriodConfig governs registration period resolution caching.
type PeriodConfig struct {
	CacheTTL time.Duration
}

// EventsConfig governs domain event fan-out.
type EventsConfig struct {
	Enabled      bool
	RedisChannel string
	Workers      int
	BufferSize   int
}

// ExportsConfig toggles timetable export rendering.
type ExportsConfig struct {
	Enabled bool
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

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Registration = RegistrationConfig{
		PromoteOnCancel:   v.GetBool("REGISTRATION_PROMOTE_ON_CANCEL"),
		EarlyPeriodMinGPA: v.GetFloat64("REGISTRATION_EARLY_MIN_GPA"),
		MaxBatchSize:      v.GetInt("REGISTRATION_MAX_BATCH_SIZE"),
	}

	cfg.Waitlist = WaitlistConfig{
		DefaultCapacity: v.GetInt("WAITLIST_DEFAULT_CAPACITY"),
	}

	cfg.Periods = PeriodConfig{
		CacheTTL: parseDuration(v.GetString("PERIOD_CACHE_TTL"), time.Minute),
	}

	cfg.Events = EventsConfig{
		Enabled:      v.GetBool("ENABLE_EVENTS"),
		RedisChannel: v.GetString("EVENTS_REDIS_CHANNEL"),
		Workers:      v.GetInt("EVENTS_WORKERS"),
		BufferSize:   v.GetInt("EVENTS_BUFFER_SIZE"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_TIMETABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_registration")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REGISTRATION_PROMOTE_ON_CANCEL", true)
	v.SetDefault("REGISTRATION_EARLY_MIN_GPA", 0.0)
	v.SetDefault("REGISTRATION_MAX_BATCH_SIZE", 50)

	v.SetDefault("WAITLIST_DEFAULT_CAPACITY", 20)

	v.SetDefault("PERIOD_CACHE_TTL", "1m")

	v.SetDefault("ENABLE_EVENTS", true)
	v.SetDefault("EVENTS_REDIS_CHANNEL", "registration.events")
	v.SetDefault("EVENTS_WORKERS", 1)
	v.SetDefault("EVENTS_BUFFER_SIZE", 64)

	v.SetDefault("ENABLE_TIMETABLE_EXPORTS", true)
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
