package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration позволяет задавать интервалы в JSON строкой вида "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalJSON разбирает строку длительности.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// JSONConfig описывает файл конфигурации. Отсутствующие поля не переопределяют значения.
type JSONConfig struct {
	ServerAddress   *string   `json:"server_address"`
	OEmbedEndpoint  *string   `json:"oembed_endpoint"`
	FetchTimeout    *Duration `json:"fetch_timeout"`
	BatchDelay      *Duration `json:"batch_delay"`
	ProviderRPS     *float64  `json:"provider_rps"`
	FileStoragePath *string   `json:"file_storage_path"`
	DatabaseDSN     *string   `json:"database_dsn"`
	SQLitePath      *string   `json:"sqlite_path"`
	CacheKey        *string   `json:"cache_key"`
	CacheEnabled    *bool     `json:"cache_enabled"`
	DefaultHeight   *int      `json:"default_height"`
	EnableHTTPS     *bool     `json:"enable_https"`
	TLSCertFile     *string   `json:"tls_cert_file"`
	TLSKeyFile      *string   `json:"tls_key_file"`
}

// loadJSONConfig читает JSON-файл конфигурации. Пустое имя файла - пустая конфигурация.
func loadJSONConfig(filename string) (*JSONConfig, error) {
	if filename == "" {
		return &JSONConfig{}, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", filename, err)
	}
	return &jc, nil
}

// applyJSONConfig переносит заданные в файле значения в конфигурацию.
func (cfg *Config) applyJSONConfig(jc *JSONConfig) {
	if jc.ServerAddress != nil {
		cfg.ServerAddress = *jc.ServerAddress
	}
	if jc.OEmbedEndpoint != nil {
		cfg.OEmbedEndpoint = *jc.OEmbedEndpoint
	}
	if jc.FetchTimeout != nil {
		cfg.FetchTimeout = jc.FetchTimeout.Duration
	}
	if jc.BatchDelay != nil {
		cfg.BatchDelay = jc.BatchDelay.Duration
	}
	if jc.ProviderRPS != nil {
		cfg.ProviderRPS = *jc.ProviderRPS
	}
	if jc.FileStoragePath != nil {
		cfg.FileStoragePath = *jc.FileStoragePath
	}
	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.SQLitePath != nil {
		cfg.SQLitePath = *jc.SQLitePath
	}
	if jc.CacheKey != nil {
		cfg.CacheKey = *jc.CacheKey
	}
	if jc.CacheEnabled != nil {
		cfg.CacheEnabled = *jc.CacheEnabled
	}
	if jc.DefaultHeight != nil {
		cfg.DefaultHeight = *jc.DefaultHeight
	}
	if jc.EnableHTTPS != nil {
		if *jc.EnableHTTPS {
			cfg.EnableHTTPS = "true"
		} else {
			cfg.EnableHTTPS = ""
		}
	}
	if jc.TLSCertFile != nil {
		cfg.TLSCertFile = *jc.TLSCertFile
	}
	if jc.TLSKeyFile != nil {
		cfg.TLSKeyFile = *jc.TLSKeyFile
	}
}
