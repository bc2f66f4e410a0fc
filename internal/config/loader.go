package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")

	viper.SetDefault("database.migrations_path", "migrations")
	viper.SetDefault("database.postgres.sslmode", "disable")

	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.max_retries", 3)
	viper.SetDefault("pipeline.poll_timeout", "500ms")

	viper.SetDefault("enrichment.base_url", "https://fakestoreapi.com")
	viper.SetDefault("enrichment.timeout", "10s")
	viper.SetDefault("enrichment.retry.max_attempts", 3)
	viper.SetDefault("enrichment.retry.initial_interval", "500ms")
	viper.SetDefault("enrichment.retry.max_interval", "10s")
	viper.SetDefault("enrichment.retry.multiplier", 2.0)

	viper.SetDefault("source.queue", "orderflow:orders")
	viper.SetDefault("source.poll_timeout", "1s")

	viper.SetDefault("logging.level", "info")
}

func bindEnvVariables() {
	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("enrichment.base_url", "ENRICHMENT_BASE_URL")

	viper.BindEnv("source.type", "SOURCE_TYPE")
	viper.BindEnv("source.queue", "SOURCE_QUEUE")
	viper.BindEnv("source.kafka.brokers", "SOURCE_KAFKA_BROKERS")
	viper.BindEnv("source.kafka.topic", "SOURCE_KAFKA_TOPIC")
	viper.BindEnv("source.kafka.group_id", "SOURCE_KAFKA_GROUP_ID")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
}

func applyEnvOverrides(cfg *Config) {
	if brokersEnv := viper.GetString("SOURCE_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Source.Kafka.Brokers = brokers
		}
	}
}
