package config

import (
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validatePipeline(cfg.Pipeline); err != nil {
		errors = append(errors, err)
	}

	if err := validateEnrichment(cfg.Enrichment); err != nil {
		errors = append(errors, err)
	}

	if err := validateSource(cfg.Source); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}

func validatePipeline(cfg PipelineConfig) error {
	if cfg.Workers < 1 {
		return &ValidationError{
			Field:   "pipeline.workers",
			Message: fmt.Sprintf("worker count must be at least 1, got %d", cfg.Workers),
		}
	}

	if cfg.MaxRetries < 0 {
		return &ValidationError{
			Field:   "pipeline.max_retries",
			Message: "max retries must not be negative",
		}
	}

	if cfg.PollTimeout <= 0 {
		return &ValidationError{
			Field:   "pipeline.poll_timeout",
			Message: "poll timeout must be positive",
		}
	}

	return nil
}

func validateEnrichment(cfg EnrichmentConfig) error {
	if cfg.BaseURL == "" {
		return &ValidationError{
			Field:   "enrichment.base_url",
			Message: "base url is required",
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "enrichment.timeout",
			Message: "timeout must be positive",
		}
	}

	return nil
}

func validateSource(cfg SourceConfig) error {
	switch cfg.Type {
	case "", "redis", "kafka":
	default:
		return &ValidationError{
			Field:   "source.type",
			Message: fmt.Sprintf("unsupported source type %q (want redis, kafka or empty)", cfg.Type),
		}
	}

	if cfg.Type == "redis" && cfg.Queue == "" {
		return &ValidationError{
			Field:   "source.queue",
			Message: "queue name is required for the redis source",
		}
	}

	if cfg.Type == "kafka" {
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "source.kafka.brokers",
				Message: "at least one broker is required for the kafka source",
			}
		}
		if cfg.Kafka.Topic == "" {
			return &ValidationError{
				Field:   "source.kafka.topic",
				Message: "topic is required for the kafka source",
			}
		}
	}

	return nil
}
