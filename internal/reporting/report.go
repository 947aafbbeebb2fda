package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"secureshred/internal/config"
	"secureshred/internal/shred"
)

// Version версия утилиты в отчётах
var Version = "1.0.0"

// Report отчёт о запуске
type Report struct {
	RunID      string                 `json:"run_id"`
	Version    string                 `json:"version"`
	Hostname   string                 `json:"hostname"`
	Timestamp  time.Time              `json:"timestamp"`
	Config     map[string]interface{} `json:"config"`
	Algorithm  string                 `json:"algorithm"`
	Profile    string                 `json:"profile,omitempty"`
	DryRun     bool                   `json:"dry_run"`
	Targets    []string               `json:"targets"`
	Operations []OperationReport      `json:"operations"`
	Summary    SummaryReport          `json:"summary"`
	ExitCode   int                    `json:"exit_code"`
	Duration   string                 `json:"duration"`
}

// OperationReport отчёт по одному пути
type OperationReport struct {
	ID               string     `json:"id"`
	Path             string     `json:"path"`
	Algorithm        string     `json:"algorithm"`
	Passes           int        `json:"passes"`
	ChunkSize        int64      `json:"chunk_size"`
	Length           int64      `json:"length"`
	Status           string     `json:"status"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	BytesOverwritten uint64     `json:"bytes_overwritten"`
	SpeedMBps        float64    `json:"speed_mbps"`
	Error            string     `json:"error,omitempty"`
	ErrorKind        string     `json:"error_kind,omitempty"`
}

// SummaryReport сводка
type SummaryReport struct {
	TotalPaths   int     `json:"total_paths"`
	Completed    int     `json:"completed"`
	DeleteFailed int     `json:"delete_failed"`
	Failed       int     `json:"failed"`
	DryRun       int     `json:"dry_run"`
	TotalBytes   uint64  `json:"total_bytes"`
	AverageSpeed float64 `json:"average_speed_mbps"`
	SuccessRate  float64 `json:"success_rate"`
}

// RunInfo параметры запуска для отчёта
type RunInfo struct {
	Algorithm string
	Profile   string
	DryRun    bool
	Targets   []string
	StartTime time.Time
	EndTime   time.Time
	ExitCode  int
}

// GenerateReport собирает отчёт по операциям
func GenerateReport(operations []*shred.ShredOperation, cfg *config.Config, run RunInfo) *Report {
	hostname, _ := os.Hostname()

	report := &Report{
		RunID:      fmt.Sprintf("run_%d", run.StartTime.UnixNano()),
		Version:    Version,
		Hostname:   hostname,
		Timestamp:  run.StartTime,
		Config:     configToMap(cfg),
		Algorithm:  run.Algorithm,
		Profile:    run.Profile,
		DryRun:     run.DryRun,
		Targets:    run.Targets,
		Operations: make([]OperationReport, len(operations)),
		ExitCode:   run.ExitCode,
		Duration:   run.EndTime.Sub(run.StartTime).String(),
	}

	summary := SummaryReport{TotalPaths: len(operations)}
	var totalSpeed float64
	measured := 0

	for i, op := range operations {
		report.Operations[i] = OperationReport{
			ID:               op.ID,
			Path:             op.Path,
			Algorithm:        op.Algorithm,
			Passes:           op.Passes,
			ChunkSize:        op.ChunkSize,
			Length:           op.Length,
			Status:           op.Status,
			StartTime:        op.StartTime,
			EndTime:          op.EndTime,
			BytesOverwritten: op.BytesOverwritten,
			SpeedMBps:        op.SpeedMBps,
			Error:            op.Error,
			ErrorKind:        op.ErrorKind,
		}

		switch op.Status {
		case shred.StatusCompleted:
			summary.Completed++
		case shred.StatusDeleteFailed:
			summary.DeleteFailed++
		case shred.StatusDryRun:
			summary.DryRun++
		default:
			summary.Failed++
		}

		summary.TotalBytes += op.BytesOverwritten
		if op.BytesOverwritten > 0 {
			totalSpeed += op.SpeedMBps
			measured++
		}
	}

	if measured > 0 {
		summary.AverageSpeed = totalSpeed / float64(measured)
	}
	if len(operations) > 0 {
		summary.SuccessRate = float64(summary.Completed) / float64(len(operations)) * 100
	}
	report.Summary = summary

	return report
}

// SaveReport сохраняет отчёт в каталог reporting.local_path и возвращает путь файла
func SaveReport(report *Report, cfg *config.Config) (string, error) {
	if !cfg.Reporting.Enabled {
		return "", nil
	}

	if err := os.MkdirAll(cfg.Reporting.LocalPath, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории для отчётов: %w", err)
	}

	format := strings.ToLower(cfg.Reporting.Format)
	if format == "" {
		format = "json"
	}

	filename := fmt.Sprintf("secureshred_report_%s.%s", report.Timestamp.Format("20060102_150405"), format)
	path := filepath.Join(cfg.Reporting.LocalPath, filename)

	var data []byte
	switch format {
	case "json":
		var err error
		data, err = json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("ошибка сериализации отчёта: %w", err)
		}
	case "txt":
		data = []byte(RenderText(report))
	default:
		return "", fmt.Errorf("неподдерживаемый формат отчёта: %s", format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("ошибка записи отчёта: %w", err)
	}

	return path, nil
}

// RenderText текстовое представление отчёта
func RenderText(report *Report) string {
	var b strings.Builder

	b.WriteString("SecureShred - отчёт о затирании\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "ID запуска: %s\n", report.RunID)
	fmt.Fprintf(&b, "Версия: %s\n", report.Version)
	fmt.Fprintf(&b, "Имя хоста: %s\n", report.Hostname)
	fmt.Fprintf(&b, "Начало: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Длительность: %s\n", report.Duration)
	fmt.Fprintf(&b, "Алгоритм: %s\n", report.Algorithm)
	if report.Profile != "" {
		fmt.Fprintf(&b, "Профиль: %s\n", report.Profile)
	}
	if report.DryRun {
		b.WriteString("Режим: DRY RUN\n")
	}
	fmt.Fprintf(&b, "Код выхода: %d\n\n", report.ExitCode)

	b.WriteString("ОПЕРАЦИИ\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, op := range report.Operations {
		fmt.Fprintf(&b, "%-14s %s\n", op.Status, op.Path)
		fmt.Fprintf(&b, "  %s, проходов %d, %s\n", op.Algorithm, op.Passes, humanize.IBytes(uint64(op.Length)))
		if op.Error != "" {
			fmt.Fprintf(&b, "  %s: %s\n", op.ErrorKind, op.Error)
		}
	}

	s := report.Summary
	b.WriteString("\nСВОДКА\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(&b, "Всего путей: %d\n", s.TotalPaths)
	fmt.Fprintf(&b, "Затёрто и удалено: %d\n", s.Completed)
	fmt.Fprintf(&b, "Затёрто, не удалено: %d\n", s.DeleteFailed)
	fmt.Fprintf(&b, "Ошибки: %d\n", s.Failed)
	if s.DryRun > 0 {
		fmt.Fprintf(&b, "Dry run: %d\n", s.DryRun)
	}
	fmt.Fprintf(&b, "Перезаписано: %s\n", humanize.IBytes(s.TotalBytes))
	fmt.Fprintf(&b, "Средняя скорость: %.2f MB/s\n", s.AverageSpeed)
	fmt.Fprintf(&b, "Успешность: %.2f%%\n", s.SuccessRate)

	return b.String()
}

// configToMap преобразует Config в map для JSON сериализации
func configToMap(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"shred": map[string]interface{}{
			"algorithm":              cfg.Shred.Algorithm,
			"chunk_size":             cfg.Shred.ChunkSize,
			"workers":                cfg.Shred.Workers,
			"remove_directories":     cfg.Shred.RemoveDirectories,
			"rename_before_delete":   cfg.Shred.RenameBeforeDelete,
			"truncate_before_delete": cfg.Shred.TruncateBeforeDelete,
			"sync_each_pass":         cfg.Shred.SyncEachPass,
			"max_speed_mbps":         cfg.Shred.MaxSpeedMBps,
			"polymorphic_cipher":     cfg.Shred.PolymorphicCipher,
			"best_effort":            cfg.Shred.BestEffort,
		},
		"security": map[string]interface{}{
			"require_confirmation": cfg.Security.RequireConfirmation,
			"refuse_privileged":    cfg.Security.RefusePrivileged,
			"protected_paths":      cfg.Security.ProtectedPaths,
		},
		"logging": map[string]interface{}{
			"level":      cfg.Logging.Level,
			"file":       cfg.Logging.File,
			"structured": cfg.Logging.Structured,
		},
		"reporting": map[string]interface{}{
			"enabled":    cfg.Reporting.Enabled,
			"local_path": cfg.Reporting.LocalPath,
			"format":     cfg.Reporting.Format,
		},
	}
}
