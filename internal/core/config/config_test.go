package config

import (
	"os"
	"testing"
)

func TestDefaultFilterConfig(t *testing.T) {
	cfg := DefaultFilterConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if cfg.OnError != OnErrorFail {
		t.Errorf("OnError = %q, want %q", cfg.OnError, OnErrorFail)
	}
	if cfg.MaxRecordSize != 1024*1024 {
		t.Errorf("MaxRecordSize = %d, want %d", cfg.MaxRecordSize, 1024*1024)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FilterConfig)
	}{
		{"zero record size", func(c *FilterConfig) { c.MaxRecordSize = 0 }},
		{"negative record size", func(c *FilterConfig) { c.MaxRecordSize = -1 }},
		{"unknown on_error policy", func(c *FilterConfig) { c.OnError = "retry" }},
		{"empty on_error policy", func(c *FilterConfig) { c.OnError = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFilterConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadFilterConfig_File(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	configContent := `filter:
  schema_path: "./schema.yaml"
  metrics_addr: "127.0.0.1:9402"
  max_record_size: 4096
  on_error: "drop"
`
	if _, err := tmpfile.Write([]byte(configContent)); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()

	cfg, err := LoadFilterConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadFilterConfig() error = %v, want nil", err)
	}
	if cfg.SchemaPath != "./schema.yaml" {
		t.Errorf("SchemaPath = %q, want ./schema.yaml", cfg.SchemaPath)
	}
	if cfg.MetricsAddr != "127.0.0.1:9402" {
		t.Errorf("MetricsAddr = %q, want 127.0.0.1:9402", cfg.MetricsAddr)
	}
	if cfg.MaxRecordSize != 4096 {
		t.Errorf("MaxRecordSize = %d, want 4096", cfg.MaxRecordSize)
	}
	if cfg.OnError != OnErrorDrop {
		t.Errorf("OnError = %q, want drop", cfg.OnError)
	}
}

func TestLoadFilterConfig_BadPolicyRejected(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte("filter:\n  on_error: \"explode\"\n")); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()

	if _, err := LoadFilterConfig(tmpfile.Name()); err == nil {
		t.Fatal("LoadFilterConfig() = nil, want error for bad on_error")
	}
}
