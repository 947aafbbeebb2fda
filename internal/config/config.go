package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	MinChunkSize = 64
	MaxChunkSize = 64 * 1024 * 1024
	MaxWorkers   = 16
)

// Config конфигурация утилиты
type Config struct {
	Shred     ShredConfig     `yaml:"shred"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// ShredConfig параметры движка затирания
type ShredConfig struct {
	Algorithm            string  `yaml:"algorithm"`
	ChunkSize            int64   `yaml:"chunk_size"`
	Workers              int     `yaml:"workers"`
	RemoveDirectories    bool    `yaml:"remove_directories"`
	RenameBeforeDelete   bool    `yaml:"rename_before_delete"`
	TruncateBeforeDelete bool    `yaml:"truncate_before_delete"`
	SyncEachPass         bool    `yaml:"sync_each_pass"`
	MaxSpeedMBps         float64 `yaml:"max_speed_mbps"`
	PolymorphicCipher    string  `yaml:"polymorphic_cipher"`
	BestEffort           bool    `yaml:"best_effort"`
}

type SecurityConfig struct {
	RequireConfirmation bool     `yaml:"require_confirmation"`
	RefusePrivileged    bool     `yaml:"refuse_privileged"`
	ProtectedPaths      []string `yaml:"protected_paths"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Structured bool   `yaml:"structured"`
}

type ReportingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	LocalPath string `yaml:"local_path"`
	Format    string `yaml:"format"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Shred: ShredConfig{
			Algorithm:            "gutmann",
			ChunkSize:            1024,
			Workers:              1,
			RemoveDirectories:    false,
			RenameBeforeDelete:   true,
			TruncateBeforeDelete: true,
			SyncEachPass:         true,
			MaxSpeedMBps:         0, // без ограничения
			PolymorphicCipher:    "chacha20",
			BestEffort:           false,
		},
		Security: SecurityConfig{
			RequireConfirmation: true,
			RefusePrivileged:    false,
			ProtectedPaths: []string{
				"/", "/bin", "/boot", "/dev", "/etc", "/lib",
				"/proc", "/sbin", "/sys", "/usr", "/var",
			},
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			File:       "",
			Structured: true,
		},
		Reporting: ReportingConfig{
			Enabled:   false,
			LocalPath: "./reports",
			Format:    "json",
		},
	}
}

// Load загружает конфигурацию из файла. Отсутствующий файл означает значения по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Поля, не указанные в файле, сохраняют значения по умолчанию
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию на валидность
func Validate(config *Config) error {
	validAlgorithms := map[string]bool{
		"nullbytes":   true,
		"randomdata":  true,
		"dod":         true,
		"gutmann":     true,
		"polymorphic": true,
	}
	if !validAlgorithms[config.Shred.Algorithm] {
		return fmt.Errorf("invalid algorithm: %s", config.Shred.Algorithm)
	}

	if config.Shred.ChunkSize < MinChunkSize || config.Shred.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk size must be between %d and %d bytes, got %d", MinChunkSize, MaxChunkSize, config.Shred.ChunkSize)
	}

	if config.Shred.Workers <= 0 || config.Shred.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", MaxWorkers, config.Shred.Workers)
	}

	if config.Shred.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", config.Shred.MaxSpeedMBps)
	}
	if config.Shred.MaxSpeedMBps > 10000 {
		return fmt.Errorf("max speed too high (max 10000MB/s), got %f", config.Shred.MaxSpeedMBps)
	}

	switch config.Shred.PolymorphicCipher {
	case "chacha20", "aes-ctr":
	default:
		return fmt.Errorf("invalid polymorphic cipher: %s", config.Shred.PolymorphicCipher)
	}

	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[strings.ToUpper(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	switch config.Reporting.Format {
	case "json", "txt":
	default:
		return fmt.Errorf("invalid report format: %s", config.Reporting.Format)
	}
	if config.Reporting.Enabled && config.Reporting.LocalPath == "" {
		return fmt.Errorf("reporting is enabled but local_path is empty")
	}

	for _, path := range config.Security.ProtectedPaths {
		if path == "" {
			return fmt.Errorf("empty protected path")
		}
		if filepath.Clean(path) == "." {
			return fmt.Errorf("invalid protected path: %s", path)
		}
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func Save(config *Config, path string) error {
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
