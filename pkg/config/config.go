package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Store     StoreConfig
	Simulator SimulatorConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

// StoreConfig selects the key/value backend standing in for browser storage.
type StoreConfig struct {
	Backend string // memory | file | sqlite | redis
	Path    string // base directory (file) or database path (sqlite)
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SimulatorConfig struct {
	LatencyMS int
}

type AuthConfig struct {
	AdminEmail string
	SessionKey string
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
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
	viper.AddConfigPath("/etc/knowledgebot")

	viper.SetEnvPrefix("KNOWLEDGEBOT")
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
	viper.SetDefault("store.backend", "file")
	viper.SetDefault("store.path", "./data")
	viper.SetDefault("store.redis.addr", "localhost:6379")
	viper.SetDefault("store.redis.db", 0)

	viper.SetDefault("simulator.latencyMs", 400)

	viper.SetDefault("auth.adminEmail", "admin@knowledgebot.pro")
	viper.SetDefault("auth.sessionKey", "kb_pro_session")

	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.addr", ":9090")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
