package security

import (
	"fmt"
	"path/filepath"

	"secureshred/internal/config"
)

// SecurityChecks проверки окружения перед запуском
func SecurityChecks(cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}

	if cfg.Security.RefusePrivileged && IsPrivileged() {
		return fmt.Errorf("запуск с правами root запрещён конфигурацией (security.refuse_privileged)")
	}

	return nil
}

// CheckTarget отклоняет защищённые системные пути.
// Сравнение точное: защищён сам каталог, а не его содержимое.
func CheckTarget(cfg *config.Config, path string) error {
	if cfg == nil {
		cfg = config.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("не удалось определить абсолютный путь %s: %w", path, err)
	}

	for _, protected := range cfg.Security.ProtectedPaths {
		if abs == filepath.Clean(protected) {
			return fmt.Errorf("путь %s защищён (security.protected_paths)", abs)
		}
	}

	return nil
}
