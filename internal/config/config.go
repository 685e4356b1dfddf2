package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string

	// PolicyPath points to the optional YAML gateway policy file. When
	// empty, the built-in default policy is used.
	PolicyPath string

	// StoreTimeout bounds every credential-store call on the request path.
	StoreTimeout time.Duration

	// AuditArchive* configure the optional S3 audit archiver. Archiving is
	// disabled when the bucket is empty.
	AuditArchiveBucket   string
	AuditArchiveEndpoint string
	AuditArchiveKey      string
	AuditArchiveSecret   string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		HTTPListenAddr:       getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		ServiceName:          getEnv("SERVICE_NAME", "credgate"),
		PolicyPath:           getEnv("GATEWAY_POLICY_PATH", ""),
		AuditArchiveBucket:   getEnv("AUDIT_ARCHIVE_BUCKET", ""),
		AuditArchiveEndpoint: getEnv("AUDIT_ARCHIVE_ENDPOINT", ""),
		AuditArchiveKey:      getEnv("AUDIT_ARCHIVE_ACCESS_KEY", ""),
		AuditArchiveSecret:   getEnv("AUDIT_ARCHIVE_SECRET_KEY", ""),
	}

	timeoutMS, err := getEnvInt("STORE_TIMEOUT_MS", 2000)
	if err != nil {
		return nil, err
	}
	cfg.StoreTimeout = time.Duration(timeoutMS) * time.Millisecond

	return cfg, nil
}

// Validate checks that the config is complete enough to run the gateway.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_MS must be positive")
	}
	if c.AuditArchiveBucket != "" && (c.AuditArchiveKey == "" || c.AuditArchiveSecret == "") {
		return fmt.Errorf("AUDIT_ARCHIVE_ACCESS_KEY and AUDIT_ARCHIVE_SECRET_KEY are required when AUDIT_ARCHIVE_BUCKET is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
