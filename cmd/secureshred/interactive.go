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

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"secureshred/internal/config"
	"secureshred/internal/logging"
	"secureshred/internal/security"
	"secureshred/internal/shred"
)

// InteractiveMenu интерактивное меню: путь, подтверждение YES, фиксированная последовательность
type InteractiveMenu struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *logging.EnterpriseLogger
	reader *bufio.Reader
}

func NewInteractiveMenu(cfg *config.Config, logger *logging.EnterpriseLogger) *InteractiveMenu {
	ctx, cancel := context.WithCancel(context.Background())
	return &InteractiveMenu{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run запускает меню до выбора выхода или сигнала
func (im *InteractiveMenu) Run() error {
	im.setupSignalHandling()
	defer im.cancel()

	for {
		if err := im.showMainMenu(); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nПрограмма завершена пользователем")
				return nil
			}
			fmt.Println(errorStyle.Render(fmt.Sprintf("Ошибка: %v", err)))
			im.pause()
		}
	}
}

func (im *InteractiveMenu) setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\n\nПолучен сигнал прерывания...")
			fmt.Println("Текущий файл будет дописан до конца")
			im.cancel()
		case <-im.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

func (im *InteractiveMenu) showMainMenu() error {
	if err := im.ctx.Err(); err != nil {
		return err
	}

	im.clearScreen()
	fmt.Println("==========================================")
	fmt.Println(labelStyle.Render("    " + AppName + " v" + Version))
	fmt.Println("    Интерактивное меню")
	fmt.Println("==========================================")
	fmt.Println()
	fmt.Println("1. Затереть файл или каталог")
	fmt.Println("2. Алгоритмы")
	fmt.Println("3. Выход")
	fmt.Println()

	switch im.prompt("Выберите опцию (1-3): ") {
	case "1":
		return im.showShredMenu()
	case "2":
		_ = runAlgorithms(nil, nil)
		im.pause()
		return nil
	case "3":
		im.cancel()
		return context.Canceled
	default:
		fmt.Println("Неверный выбор. Попробуйте снова.")
		im.pause()
		return nil
	}
}

func (im *InteractiveMenu) showShredMenu() error {
	im.clearScreen()
	fmt.Println("==========================================")
	fmt.Println("    Затирание")
	fmt.Println("==========================================")
	fmt.Println()

	path := im.prompt("Путь к файлу или каталогу: ")
	if path == "" {
		return nil
	}
	if err := security.CheckTarget(im.cfg, path); err != nil {
		return err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("путь недоступен: %w", err)
	}

	sequence := shred.InteractiveSequence()
	fmt.Println()
	if info.IsDir() {
		fmt.Printf("Каталог: %s\n", path)
	} else {
		fmt.Printf("Файл: %s (%s)\n", path, humanize.IBytes(uint64(info.Size())))
	}
	fmt.Println("Последовательность:")
	for _, alg := range sequence {
		fmt.Printf("  %-12s %s\n", alg, mutedStyle.Render(alg.Description()))
	}
	fmt.Println()
	fmt.Println(warningStyle.Render("ВНИМАНИЕ: данные будут уничтожены без возможности восстановления"))

	if im.prompt("Введите YES для подтверждения: ") != "YES" {
		fmt.Println("Операция отменена")
		im.logger.Log("INFO", "Операция отменена пользователем", "path", path)
		im.pause()
		return nil
	}

	engine, err := shred.NewShredEngine(afero.NewOsFs(), im.cfg, im.logger, false)
	if err != nil {
		return err
	}

	sinks := progressSinks(os.Stdout, im.cfg.Shred.Workers, false)
	ops, err := engine.Run(im.ctx, path, sequence, sinks)
	printResults(ops)
	if err != nil {
		return err
	}

	im.pause()
	return nil
}

func (im *InteractiveMenu) clearScreen() {
	if isTerminal(os.Stdout) {
		fmt.Print("\033[H\033[2J")
	}
}

func (im *InteractiveMenu) prompt(message string) string {
	fmt.Print(message)
	input, err := im.reader.ReadString('\n')
	if err != nil && input == "" {
		// stdin закрыт
		im.cancel()
	}
	return strings.TrimSpace(input)
}

func (im *InteractiveMenu) pause() {
	fmt.Print("\nНажмите Enter для продолжения...")
	_, _ = im.reader.ReadString('\n')
}
