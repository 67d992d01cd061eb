// Package config отвечает за загрузку конфигурации сервиса генерации embed-кода.
// Источники конфигурации в порядке возрастания приоритета:
// значения по умолчанию, JSON-файл, флаги командной строки, переменные окружения.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

// Значения по умолчанию.
const (
	DefaultServerAddress  = ":8080"
	DefaultOEmbedEndpoint = "https://publish.twitter.com/oembed"
	DefaultFetchTimeout   = 5000 * time.Millisecond
	DefaultBatchDelay     = 500 * time.Millisecond
	DefaultCacheKey       = "oembed_cache"
	DefaultHeight         = 620
)

// Виды хранилища кэша.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config хранит конфигурацию приложения.
type Config struct {
	// Адрес для запуска HTTP-сервера
	ServerAddress string `env:"SERVER_ADDRESS"`
	// Адрес oEmbed API провайдера
	OEmbedEndpoint string `env:"OEMBED_ENDPOINT"`
	// Таймаут одного запроса к провайдеру
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"`
	// Пауза между элементами пакетной обработки
	BatchDelay time.Duration `env:"BATCH_DELAY"`
	// Ограничение исходящих запросов в секунду, 0 - без ограничения
	ProviderRPS float64 `env:"PROVIDER_RPS"`
	// Путь к файлу кэша
	FileStoragePath string `env:"FILE_STORAGE_PATH"`
	// Строка подключения к PostgreSQL
	DatabaseDSN string `env:"DATABASE_DSN"`
	// Путь к базе SQLite
	SQLitePath string `env:"SQLITE_PATH"`
	// Имя записи, под которой хранится весь кэш
	CacheKey string `env:"CACHE_KEY"`
	// Использовать ли кэш oEmbed-ответов
	CacheEnabled bool `env:"CACHE_ENABLED"`
	// Высота iframe, если провайдер её не вернул
	DefaultHeight int `env:"DEFAULT_HEIGHT"`
	// Включение HTTPS
	EnableHTTPS string `env:"ENABLE_HTTPS"`
	// Путь к файлу сертификата
	TLSCertFile string `env:"TLS_CERT_FILE"`
	// Путь к файлу приватного ключа
	TLSKeyFile string `env:"TLS_KEY_FILE"`
	// Время на корректное завершение сервера
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	// Путь к JSON-файлу конфигурации
	ConfigFile string `env:"CONFIG"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		ServerAddress:   DefaultServerAddress,
		OEmbedEndpoint:  DefaultOEmbedEndpoint,
		FetchTimeout:    DefaultFetchTimeout,
		BatchDelay:      DefaultBatchDelay,
		CacheKey:        DefaultCacheKey,
		CacheEnabled:    true,
		DefaultHeight:   DefaultHeight,
		TLSCertFile:     "server.crt",
		TLSKeyFile:      "server.key",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Parse собирает конфигурацию из переданных аргументов командной строки.
// Если указан JSON-файл, аргументы разбираются повторно поверх его значений,
// чтобы флаги сохранили приоритет над файлом.
func Parse(args []string) (*Config, error) {
	cfg := Default()
	if err := cfg.flagSet().Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	path := cfg.ConfigFile
	if p := os.Getenv("CONFIG"); p != "" {
		path = p
	}

	if path != "" {
		jsonConfig, err := loadJSONConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = Default()
		cfg.applyJSONConfig(jsonConfig)
		cfg.ConfigFile = path
		if err := cfg.flagSet().Parse(args); err != nil {
			return nil, fmt.Errorf("error parsing flags: %w", err)
		}
	}

	// Переменные окружения имеют наивысший приоритет
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagSet описывает флаги командной строки, привязанные к полям cfg.
func (cfg *Config) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("embedder", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Адрес запуска HTTP-сервера (env: SERVER_ADDRESS)")
	fs.StringVar(&cfg.OEmbedEndpoint, "e", cfg.OEmbedEndpoint, "Адрес oEmbed API (env: OEMBED_ENDPOINT)")
	fs.DurationVar(&cfg.FetchTimeout, "t", cfg.FetchTimeout, "Таймаут запроса к провайдеру (env: FETCH_TIMEOUT)")
	fs.DurationVar(&cfg.BatchDelay, "delay", cfg.BatchDelay, "Пауза между запросами в пакетном режиме (env: BATCH_DELAY)")
	fs.Float64Var(&cfg.ProviderRPS, "rps", cfg.ProviderRPS, "Лимит запросов к провайдеру в секунду (env: PROVIDER_RPS)")
	fs.StringVar(&cfg.FileStoragePath, "f", cfg.FileStoragePath, "Путь к файлу кэша (env: FILE_STORAGE_PATH)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Строка подключения к PostgreSQL (env: DATABASE_DSN)")
	fs.StringVar(&cfg.SQLitePath, "s", cfg.SQLitePath, "Путь к базе SQLite (env: SQLITE_PATH)")
	fs.StringVar(&cfg.CacheKey, "k", cfg.CacheKey, "Имя записи кэша в хранилище (env: CACHE_KEY)")
	fs.BoolVar(&cfg.CacheEnabled, "cache", cfg.CacheEnabled, "Использовать кэш oEmbed (env: CACHE_ENABLED)")
	fs.IntVar(&cfg.DefaultHeight, "h", cfg.DefaultHeight, "Высота iframe по умолчанию (env: DEFAULT_HEIGHT)")
	fs.StringVar(&cfg.EnableHTTPS, "tls", cfg.EnableHTTPS, "Включить HTTPS (env: ENABLE_HTTPS)")
	fs.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "Путь к JSON-файлу конфигурации (env: CONFIG)")
	return fs
}

// IsHTTPSEnabled сообщает, нужно ли запускать сервер с TLS.
func (cfg *Config) IsHTTPSEnabled() bool {
	return cfg.EnableHTTPS != "" && cfg.EnableHTTPS != "false"
}

// StorageKind выбирает хранилище кэша: PostgreSQL, SQLite, файл или память.
func (cfg *Config) StorageKind() string {
	switch {
	case cfg.DatabaseDSN != "":
		return StoragePostgres
	case cfg.SQLitePath != "":
		return StorageSQLite
	case cfg.FileStoragePath != "":
		return StorageFile
	default:
		return StorageMemory
	}
}

// Validate проверяет согласованность значений.
func (cfg *Config) Validate() error {
	if cfg.OEmbedEndpoint == "" {
		return fmt.Errorf("oembed endpoint must not be empty")
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", cfg.FetchTimeout)
	}
	if cfg.BatchDelay < 0 {
		return fmt.Errorf("batch delay must not be negative, got %s", cfg.BatchDelay)
	}
	if cfg.ProviderRPS < 0 {
		return fmt.Errorf("provider rps must not be negative, got %v", cfg.ProviderRPS)
	}
	if cfg.DefaultHeight < 0 {
		return fmt.Errorf("default height must not be negative, got %d", cfg.DefaultHeight)
	}
	if cfg.CacheKey == "" {
		return fmt.Errorf("cache key must not be empty")
	}
	return nil
}
