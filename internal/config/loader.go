package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	envPrefix = "OPSLOOP_"
)

// defaultsYAML is the lowest-precedence configuration layer. Keeping the
// defaults in a real YAML document means boolean defaults that are true
// (enable_feedback, auto_memory_update_on_positive) can still be switched
// off by a config file or environment variable.
const defaultsYAML = `
feedback:
  enable_feedback: true
  feedback_collection_mode: thumbs
  feedback_question: "Was the action successful and helpful?"
  retry_on_no_response: 2
  store_feedback_in:
    - redis
    - qdrant
  feedback_collection: feedback_memory
  auto_memory_update_on_positive: true
  auto_memory_update_on_negative: false

retry:
  max_retries: 2
  retryable_errors:
    - connection refused
    - resource not found
    - timeout
    - temporary unavailable

redis:
  url: redis://localhost:6379
  dial_timeout: 5s
  read_timeout: 3s
  write_timeout: 3s

qdrant:
  host: localhost
  port: 6334

memory:
  collection_name: agent_knowledge

embeddings:
  base_url: http://localhost:8080
  model: BAAI/bge-small-en-v1.5
  vector_size: 384
  timeout: 30s

logging:
  level: info
  format: json
`

// Load loads configuration from built-in defaults, then an optional YAML
// file, then environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (OPSLOOP_FEEDBACK_ENABLE_FEEDBACK, OPSLOOP_REDIS_URL, etc.)
//  2. YAML config file (configPath; skipped when empty or missing)
//  3. Built-in defaults
//
// # Security Considerations
//
// Configuration files MUST have 0600 or 0400 permissions; world-readable
// files are rejected. Files larger than 1MB are rejected to prevent
// resource exhaustion.
//
// # Environment Variable Mapping
//
// Environment variables are uppercased with an OPSLOOP_ prefix; the first
// underscore after the prefix separates section from field:
//
//	OPSLOOP_REDIS_URL                   -> redis.url
//	OPSLOOP_FEEDBACK_ENABLE_FEEDBACK    -> feedback.enable_feedback
//	OPSLOOP_QDRANT_HOST                 -> qdrant.host
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultsYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if configPath != "" {
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// Split on first underscore after the prefix (section.field_name
		// pattern). Field names keep their remaining underscores:
		//   OPSLOOP_FEEDBACK_RETRY_ON_NO_RESPONSE -> feedback.retry_on_no_response
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Qdrant.ApplyDefaults()
	cfg.Embeddings.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadConfigFile validates and loads one YAML config file into k. A missing
// file is not an error; defaults and environment variables still apply.
func loadConfigFile(k *koanf.Koanf, configPath string) error {
	// Open once and validate through the file descriptor to avoid a
	// TOCTOU race between stat and read.
	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return nil
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	// Skip permission check on Windows (different permission model).
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
