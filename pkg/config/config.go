package config

import (
	"errors"
	"io/fs"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	School     SchoolConfig
	Scoring    ScoringConfig
	Statistics StatisticsConfig
	Recalc     RecalcConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
	Export     ExportConfig
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
	AutoMigrate  bool
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

// LogConfig selects the zap preset. File enables a rotating sink next to stdout.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SchoolConfig describes how cohorts map onto grade levels.
type SchoolConfig struct {
	DurationYears  int
	YearStartMonth time.Month
}

// ScoringConfig locates the test item catalog.
type ScoringConfig struct {
	CatalogPath   string
	WatchCatalog  bool
	StrictCatalog bool
}

// StatisticsConfig governs the class statistics cache.
type StatisticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// RecalcConfig sizes the background rescoring queue.
type RecalcConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// RateLimitConfig throttles write endpoints per client IP.
type RateLimitConfig struct {
	PerMinute uint
}

type MetricsConfig struct {
	Enabled bool
}

// ExportConfig tunes generated result sheets.
type ExportConfig struct {
	PDFFontPath string
	CSVBOM      bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	cfg.School = SchoolConfig{
		DurationYears:  v.GetInt("SCHOOL_DURATION_YEARS"),
		YearStartMonth: parseMonth(v.GetInt("SCHOOL_YEAR_START_MONTH"), time.September),
	}

	cfg.Scoring = ScoringConfig{
		CatalogPath:   v.GetString("SCORING_CATALOG_PATH"),
		WatchCatalog:  v.GetBool("SCORING_CATALOG_WATCH"),
		StrictCatalog: v.GetBool("SCORING_STRICT_CATALOG"),
	}

	cfg.Statistics = StatisticsConfig{
		CacheEnabled: v.GetBool("ENABLE_STATISTICS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STATISTICS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Recalc = RecalcConfig{
		Workers:    v.GetInt("RECALC_WORKERS"),
		Retries:    v.GetInt("RECALC_RETRIES"),
		RetryDelay: parseDuration(v.GetString("RECALC_RETRY_DELAY"), 2*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{PerMinute: v.GetUint("RATE_LIMIT_PER_MINUTE")}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Export = ExportConfig{
		PDFFontPath: v.GetString("EXPORT_PDF_FONT"),
		CSVBOM:      v.GetBool("EXPORT_CSV_BOM"),
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
	v.SetDefault("DB_NAME", "fitness_score")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 10)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)

	v.SetDefault("SCHOOL_DURATION_YEARS", 3)
	v.SetDefault("SCHOOL_YEAR_START_MONTH", 9)

	v.SetDefault("SCORING_CATALOG_PATH", "")
	v.SetDefault("SCORING_CATALOG_WATCH", false)
	v.SetDefault("SCORING_STRICT_CATALOG", false)

	v.SetDefault("ENABLE_STATISTICS_CACHE", false)
	v.SetDefault("STATISTICS_CACHE_TTL", "5m")

	v.SetDefault("RECALC_WORKERS", 2)
	v.SetDefault("RECALC_RETRIES", 3)
	v.SetDefault("RECALC_RETRY_DELAY", "2s")

	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("EXPORT_PDF_FONT", "")
	v.SetDefault("EXPORT_CSV_BOM", true)
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

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseMonth(raw int, fallback time.Month) time.Month {
	if raw < 1 || raw > 12 {
		return fallback
	}
	return time.Month(raw)
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
