package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	LLM        LLMConfig
	Knowledge  KnowledgeConfig
	Scheduling SchedulingConfig
	SMTP       SMTPConfig
	Redis      RedisConfig
	SQLite     SQLiteConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
}

type KnowledgeConfig struct {
	PersistDir   string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

type SchedulingConfig struct {
	DataDir  string
	Timezone string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
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
	viper.AddConfigPath("/etc/softbot")

	viper.SetEnvPrefix("SOFTBOT")
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
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.maxTokens", 1000)

	viper.SetDefault("knowledge.persistDir", "./data/knowledge")
	viper.SetDefault("knowledge.chunkSize", 1000)
	viper.SetDefault("knowledge.chunkOverlap", 200)
	viper.SetDefault("knowledge.topK", 5)

	viper.SetDefault("scheduling.dataDir", "./data")
	viper.SetDefault("scheduling.timezone", "EST")

	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.fromEmail", "ask@softtechniques.com")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sqlite.path", "./data/softbot.db")

	viper.SetDefault("ratelimit.requestsPerMinute", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
