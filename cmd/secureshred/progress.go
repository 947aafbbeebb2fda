package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"secureshred/internal/shred"
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// barSink рисует полосу прогресса одного файла в терминале
type barSink struct {
	out   io.Writer
	label string
	bar   progress.Model
	last  int
}

func newBarSink(out io.Writer, path string) *barSink {
	return &barSink{
		out:   out,
		label: labelStyle.Render(filepath.Base(path)),
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		last:  -1,
	}
}

func (b *barSink) Report(fraction float64) {
	// Перерисовка только при смене процента
	pct := int(fraction * 100)
	if pct == b.last {
		return
	}
	b.last = pct
	fmt.Fprintf(b.out, "\r%s %s", b.label, b.bar.ViewAs(fraction))
	if fraction >= 1.0 {
		fmt.Fprintln(b.out)
	}
}

// lineSink пишет строку по завершении файла; безопасен при нескольких воркерах
type lineSink struct {
	mu   *sync.Mutex
	out  io.Writer
	path string
}

func (l *lineSink) Report(fraction float64) {
	if fraction < 1.0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", mutedStyle.Render("overwritten"), l.path)
}

// progressSinks выбирает вид прогресса: полоса только для одного воркера в терминале
func progressSinks(out *os.File, workers int, quiet bool) shred.SinkFactory {
	if quiet {
		return nil
	}
	if workers <= 1 && isTerminal(out) {
		return func(path string) shred.ProgressSink { return newBarSink(out, path) }
	}
	var mu sync.Mutex
	return func(path string) shred.ProgressSink {
		return &lineSink{mu: &mu, out: out, path: path}
	}
}
