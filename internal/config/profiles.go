package config

import (
	"fmt"
)

// Profiles список доступных профилей
var Profiles = []string{"legacy", "fast", "paranoid"}

// ApplyProfile применяет профиль к конфигурации
func ApplyProfile(cfg *Config, profile string) error {
	switch profile {
	case "legacy":
		// Побайтово совпадает с исходной утилитой: буфер 1КБ, без переименования
		cfg.Shred.ChunkSize = 1024
		cfg.Shred.Workers = 1
		cfg.Shred.RenameBeforeDelete = false
		cfg.Shred.TruncateBeforeDelete = false
		cfg.Shred.RemoveDirectories = false
		cfg.Shred.SyncEachPass = false
	case "fast":
		cfg.Shred.ChunkSize = 1024 * 1024 // 1MB
		cfg.Shred.Workers = 4
		cfg.Shred.SyncEachPass = false
		cfg.Shred.MaxSpeedMBps = 0
	case "paranoid":
		cfg.Shred.Algorithm = "polymorphic"
		cfg.Shred.SyncEachPass = true
		cfg.Shred.RenameBeforeDelete = true
		cfg.Shred.TruncateBeforeDelete = true
		cfg.Shred.BestEffort = false
	default:
		return fmt.Errorf("unknown profile: %s", profile)
	}
	return nil
}
