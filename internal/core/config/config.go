// Package config provides configuration management for RuleGate commands.
package config

import (
	"fmt"
)

// OnError policies for records whose evaluation fails at runtime.
const (
	// OnErrorDrop discards the record and keeps the stream going.
	OnErrorDrop = "drop"
	// OnErrorKeep forwards the record unfiltered.
	OnErrorKeep = "keep"
	// OnErrorFail aborts the whole stream on the first failure.
	OnErrorFail = "fail"
)

// FilterConfig holds configuration for the filter pipeline stage.
type FilterConfig struct {
	SchemaPath    string
	MetricsAddr   string // empty disables the metrics listener
	MaxRecordSize int
	OnError       string
	TraceRules    bool
}

// DefaultFilterConfig returns configuration with default values.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		MetricsAddr:   "",
		MaxRecordSize: 1024 * 1024,
		OnError:       OnErrorFail,
		TraceRules:    false,
	}
}

// Validate checks record size and the on-error policy.
func (c *FilterConfig) Validate() error {
	if c.MaxRecordSize <= 0 {
		return fmt.Errorf("max_record_size must be positive, got %d", c.MaxRecordSize)
	}
	switch c.OnError {
	case OnErrorDrop, OnErrorKeep, OnErrorFail:
	default:
		return fmt.Errorf("on_error must be one of drop, keep, fail; got %q", c.OnError)
	}
	return nil
}
