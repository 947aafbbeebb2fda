package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"secureshred/internal/config"
)

// EnterpriseLogger логгер с аудитом поверх zap
type EnterpriseLogger struct {
	zap     *zap.Logger
	sugar   *zap.SugaredLogger
	file    *os.File
	verbose bool
}

func NewEnterpriseLogger(cfg *config.Config, verbose bool) (*EnterpriseLogger, error) {
	level := parseLevel(cfg.Logging.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	// В консоль попадают ошибки всегда, остальное только в verbose режиме
	consoleLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		if verbose {
			return l >= level
		}
		return l >= zapcore.ErrorLevel
	})
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	l := &EnterpriseLogger{verbose: verbose}

	if cfg.Logging.File != "" {
		logDir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}

		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Logging.File, err)
		}
		l.file = f

		var fileEncoder zapcore.Encoder
		if cfg.Logging.Structured {
			fileEncoder = zapcore.NewJSONEncoder(encCfg)
		} else {
			fileEncoder = zapcore.NewConsoleEncoder(encCfg)
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
	}

	l.zap = zap.New(zapcore.NewTee(cores...))
	l.sugar = l.zap.Sugar()
	return l, nil
}

// NewFromZap оборачивает готовый zap логгер (используется в тестах с zaptest)
func NewFromZap(z *zap.Logger) *EnterpriseLogger {
	return &EnterpriseLogger{zap: z, sugar: z.Sugar()}
}

// NewNop логгер, который ничего не пишет
func NewNop() *EnterpriseLogger {
	return NewFromZap(zap.NewNop())
}

// Log пишет сообщение с уровнем и парами ключ-значение
func (l *EnterpriseLogger) Log(level, message string, fields ...interface{}) {
	if l == nil {
		return
	}

	switch strings.ToUpper(level) {
	case "DEBUG":
		l.sugar.Debugw(message, fields...)
	case "WARN":
		l.sugar.Warnw(message, fields...)
	case "ERROR":
		l.sugar.Errorw(message, fields...)
	default:
		l.sugar.Infow(message, fields...)
	}
}

// Zap возвращает нижележащий zap логгер
func (l *EnterpriseLogger) Zap() *zap.Logger {
	return l.zap
}

func (l *EnterpriseLogger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.zap.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
