package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadFilterConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadFilterConfig(configPath string) (*FilterConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultFilterConfig
	v.SetDefault("filter.schema_path", "")
	v.SetDefault("filter.metrics_addr", "")
	v.SetDefault("filter.max_record_size", 1024*1024)
	v.SetDefault("filter.on_error", OnErrorFail)
	v.SetDefault("filter.trace_rules", false)

	// Bind environment variables with RG_ prefix
	v.SetEnvPrefix("RG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &FilterConfig{
		SchemaPath:    v.GetString("filter.schema_path"),
		MetricsAddr:   v.GetString("filter.metrics_addr"),
		MaxRecordSize: v.GetInt("filter.max_record_size"),
		OnError:       v.GetString("filter.on_error"),
		TraceRules:    v.GetBool("filter.trace_rules"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
