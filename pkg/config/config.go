package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Analytics AnalyticsConfig
	AI        AIConfig
	Preview   PreviewConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path         string
	QueryTimeout int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AnalyticsConfig holds the window sizes used by the summary
// endpoints. RecentDays feeds the "recent" counters, TrendDays and
// TrendWeeks bound the daily/weekly series, RetentionDays is the
// reference window for the retention rate.
type AnalyticsConfig struct {
	RecentDays    int
	TrendDays     int
	TrendWeeks    int
	RetentionDays int
	CacheTTL      int
	MaxTableRows  int
}

type AIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type PreviewConfig struct {
	TimeoutSec  int
	MaxBodySize int
	UserAgent   string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/gradeflow")

	viper.SetEnvPrefix("GRADEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/gradeflow.db")
	viper.SetDefault("sqlite.queryTimeout", 10)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("analytics.recentDays", 7)
	viper.SetDefault("analytics.trendDays", 30)
	viper.SetDefault("analytics.trendWeeks", 12)
	viper.SetDefault("analytics.retentionDays", 30)
	viper.SetDefault("analytics.cacheTTL", 300)
	viper.SetDefault("analytics.maxTableRows", 1000)

	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.temperature", 0.1)
	viper.SetDefault("ai.maxTokens", 512)
	viper.SetDefault("ai.timeoutSec", 30)

	viper.SetDefault("preview.timeoutSec", 10)
	viper.SetDefault("preview.maxBodySize", 2097152)
	viper.SetDefault("preview.userAgent", "gradeflow-preview/1.0")

	viper.SetDefault("ratelimit.requestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
