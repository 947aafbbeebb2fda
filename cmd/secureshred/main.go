package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"secureshred/internal/config"
	"secureshred/internal/logging"
	"secureshred/internal/reporting"
	"secureshred/internal/security"
	"secureshred/internal/shred"
)

const (
	Version = "1.0.0"
	AppName = "SecureShred"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_WARNING = 2
)

var (
	cfg        *config.Config
	logger     *logging.EnterpriseLogger
	verbose    bool
	configPath string
	profile    string
)

// exitError ошибка с кодом выхода
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:           "secureshred",
	Short:         "SecureShred - безопасное удаление файлов",
	Long:          "Перезаписывает содержимое файлов выбранным алгоритмом и удаляет их",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var shredCmd = &cobra.Command{
	Use:   "shred <путь>...",
	Short: "Затереть и удалить файлы или каталоги",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShred,
}

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "Показать доступные алгоритмы",
	RunE:  runAlgorithms,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Интерактивное меню",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		defer logger.Close()
		return NewInteractiveMenu(cfg, logger).Run()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Работа с файлом конфигурации",
}

var configInitCmd = &cobra.Command{
	Use:   "init <файл>",
	Short: "Записать конфигурацию по умолчанию",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := config.Default()
		if profile != "" {
			if err := config.ApplyProfile(base, profile); err != nil {
				return err
			}
		}
		if err := config.Save(base, args[0]); err != nil {
			return err
		}
		fmt.Printf("Конфигурация записана: %s\n", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Показать действующую конфигурацию",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(loaded)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	reporting.Version = Version

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Путь к конфигурации")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Профиль ("+strings.Join(config.Profiles, "/")+")")

	shredCmd.Flags().StringSliceP("algorithm", "a", nil, "Алгоритм или последовательность через запятую")
	shredCmd.Flags().BoolP("dry-run", "n", false, "Тестовый режим: только перечислить файлы")
	shredCmd.Flags().BoolP("force", "f", false, "Пропустить подтверждение")
	shredCmd.Flags().IntP("workers", "w", 0, "Число параллельно затираемых файлов")
	shredCmd.Flags().Bool("remove-dirs", false, "Удалять каталоги после затирания содержимого")
	shredCmd.Flags().Bool("best-effort", false, "Продолжать после ошибок")
	shredCmd.Flags().BoolP("quiet", "q", false, "Без вывода прогресса")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(shredCmd, algorithmsCmd, interactiveCmd, configCmd)
}

func loadConfig() (*config.Config, error) {
	loaded, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if profile != "" {
		if err := config.ApplyProfile(loaded, profile); err != nil {
			return nil, fmt.Errorf("ошибка применения профиля %s: %w", profile, err)
		}
	}
	return loaded, nil
}

// setup загружает конфигурацию, применяет флаги и создаёт логгер
func setup(overrides ...func(*config.Config)) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("невалидная конфигурация: %w", err)
	}

	if err := security.SecurityChecks(cfg); err != nil {
		return err
	}

	logger, err = logging.NewEnterpriseLogger(cfg, verbose)
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	if profile != "" {
		logger.Log("INFO", "Применён профиль", "profile", profile)
	}
	return nil
}

func runShred(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	flags := cmd.Flags()

	dryRun, _ := flags.GetBool("dry-run")
	force, _ := flags.GetBool("force")
	quiet, _ := flags.GetBool("quiet")

	err := setup(func(c *config.Config) {
		if flags.Changed("workers") {
			c.Shred.Workers, _ = flags.GetInt("workers")
		}
		if flags.Changed("remove-dirs") {
			c.Shred.RemoveDirectories, _ = flags.GetBool("remove-dirs")
		}
		if flags.Changed("best-effort") {
			c.Shred.BestEffort, _ = flags.GetBool("best-effort")
		}
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	names, _ := flags.GetStringSlice("algorithm")
	if len(names) == 0 {
		names = []string{cfg.Shred.Algorithm}
	}
	algs, err := shred.ParseAlgorithms(names)
	if err != nil {
		return err
	}

	for _, path := range args {
		if err := security.CheckTarget(cfg, path); err != nil {
			return err
		}
	}

	if !force && !dryRun && cfg.Security.RequireConfirmation {
		fmt.Printf("ВНИМАНИЕ: содержимое будет безвозвратно уничтожено (%s):\n", strings.Join(names, "+"))
		for _, path := range args {
			fmt.Printf("  %s\n", path)
		}
		fmt.Print("Продолжить? (y/N): ")
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			logger.Log("INFO", "Операция отменена пользователем")
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Log("WARN", "Получен сигнал, текущий файл будет дописан", "signal", sig.String())
			fmt.Printf("\n[INFO] Получен сигнал %s, новые файлы не начинаются...\n", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	engine, err := shred.NewShredEngine(afero.NewOsFs(), cfg, logger, dryRun)
	if err != nil {
		return err
	}

	logger.Log("INFO", "Запуск "+AppName, "version", Version, "dry_run", dryRun, "algorithm", strings.Join(names, "+"))

	sinks := progressSinks(os.Stdout, cfg.Shred.Workers, quiet || dryRun)

	var operations []*shred.ShredOperation
	var hasErrors, hasWarnings bool
	for _, path := range args {
		if ctx.Err() != nil {
			break
		}
		ops, err := engine.Run(ctx, path, algs, sinks)
		operations = append(operations, ops...)
		if err != nil {
			// Файлы затёрты, но имя файла или каталог остались
			if errors.Is(err, shred.ErrDelete) || errors.Is(err, shred.ErrDirectoryRemove) {
				hasWarnings = true
			} else {
				hasErrors = true
			}
			if !cfg.Shred.BestEffort {
				break
			}
		}
	}

	for _, op := range operations {
		switch op.Status {
		case shred.StatusFailed:
			hasErrors = true
		case shred.StatusDeleteFailed:
			hasWarnings = true
		}
	}

	printResults(operations)

	exitCode := EXIT_SUCCESS
	switch {
	case hasErrors:
		exitCode = EXIT_ERROR
	case hasWarnings:
		exitCode = EXIT_WARNING
	}

	saveReport(operations, reporting.RunInfo{
		Algorithm: strings.Join(names, "+"),
		Profile:   profile,
		DryRun:    dryRun,
		Targets:   args,
		StartTime: startTime,
		EndTime:   time.Now(),
		ExitCode:  exitCode,
	})

	switch exitCode {
	case EXIT_ERROR:
		return &exitError{code: EXIT_ERROR, err: fmt.Errorf("некоторые операции завершились с ошибкой")}
	case EXIT_WARNING:
		return &exitError{code: EXIT_WARNING, err: fmt.Errorf("некоторые файлы затёрты, но не удалены")}
	}
	return nil
}

func printResults(operations []*shred.ShredOperation) {
	if len(operations) == 0 {
		return
	}

	fmt.Println("\nРезультаты:")
	fmt.Println("==================")

	var total uint64
	for _, op := range operations {
		var mark string
		switch op.Status {
		case shred.StatusCompleted:
			mark = successStyle.Render("✓")
		case shred.StatusDryRun:
			mark = mutedStyle.Render("·")
		case shred.StatusDeleteFailed:
			mark = warningStyle.Render("⚠")
		default:
			mark = errorStyle.Render("✗")
		}

		fmt.Printf("%s %s - %s (%s, %.1f MB/s)\n", mark, op.Path, op.Status,
			humanize.IBytes(uint64(max(op.Length, 0))), op.SpeedMBps)
		if op.Error != "" {
			fmt.Printf("  %s: %s\n", op.ErrorKind, op.Error)
		}
		total += op.BytesOverwritten
	}
	fmt.Printf("\nПерезаписано всего: %s\n", humanize.IBytes(total))
}

func saveReport(operations []*shred.ShredOperation, run reporting.RunInfo) {
	if !cfg.Reporting.Enabled {
		return
	}
	report := reporting.GenerateReport(operations, cfg, run)
	path, err := reporting.SaveReport(report, cfg)
	if err != nil {
		logger.Log("WARN", "Ошибка сохранения отчёта", "error", err.Error())
		return
	}
	logger.Log("INFO", "Отчёт сохранён", "run_id", report.RunID, "file", path)
}

func runAlgorithms(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPASSES\tDESCRIPTION")
	for _, alg := range shred.Algorithms() {
		fmt.Fprintf(w, "%s\t%d\t%s\n", alg, alg.Passes(), alg.Description())
	}
	return w.Flush()
}

func main() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "interactive")
	}

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.Error())
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(EXIT_ERROR)
	}
	os.Exit(EXIT_SUCCESS)
}
