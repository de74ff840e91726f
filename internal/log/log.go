// Package log provides the leveled logging used by all revbox output.
//
// Everything revbox prints goes through here. Warnings and errors go to
// stderr, everything else to stdout. Styling uses lipgloss.
package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level controls the verbosity of log output.
type Level int

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = iota
	// LevelInfo is the default level.
	LevelInfo
	// LevelWarn shows only warnings and errors.
	LevelWarn
	// LevelError shows only errors.
	LevelError
	// LevelSilent suppresses all output.
	LevelSilent
)

type config struct {
	mu    sync.RWMutex
	level Level
	quiet bool
}

var cfg = &config{level: LevelInfo}

var (
	dimStyle    = lipgloss.NewStyle().Faint(true)
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// SetLevel sets the minimum level. Messages below it are suppressed.
func SetLevel(level Level) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.level = level
}

// GetLevel returns the current level.
func GetLevel() Level {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.level
}

// EnableQuietMode suppresses ALL output including errors.
// Only exit codes communicate success/failure.
func EnableQuietMode() {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.quiet = true
	cfg.level = LevelSilent
}

// IsQuiet returns whether quiet mode is enabled.
func IsQuiet() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.quiet
}

func canOutput(level Level) bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return !cfg.quiet && cfg.level <= level
}

// Debug outputs a debug-level message (dim styling).
func Debug(message string) {
	if canOutput(LevelDebug) {
		fmt.Fprintln(os.Stdout, dimStyle.Render(message))
	}
}

// Debugf outputs a formatted debug-level message.
func Debugf(format string, args ...any) {
	if canOutput(LevelDebug) {
		Debug(fmt.Sprintf(format, args...))
	}
}

// Info outputs an info-level message (no styling).
func Info(message string) {
	if canOutput(LevelInfo) {
		fmt.Fprintln(os.Stdout, message)
	}
}

// Infof outputs a formatted info-level message.
func Infof(format string, args ...any) {
	if canOutput(LevelInfo) {
		Info(fmt.Sprintf(format, args...))
	}
}

// Warn outputs a warning message (yellow, to stderr).
func Warn(message string) {
	if canOutput(LevelWarn) {
		fmt.Fprintln(os.Stderr, yellowStyle.Render(message))
	}
}

// Warnf outputs a formatted warning message.
func Warnf(format string, args ...any) {
	if canOutput(LevelWarn) {
		Warn(fmt.Sprintf(format, args...))
	}
}

// Error outputs an error message (red, to stderr).
func Error(message string) {
	if canOutput(LevelError) {
		fmt.Fprintln(os.Stderr, redStyle.Render(message))
	}
}

// Errorf outputs a formatted error message.
func Errorf(format string, args ...any) {
	if canOutput(LevelError) {
		Error(fmt.Sprintf(format, args...))
	}
}

// Success outputs a success message (green, info level).
func Success(message string) {
	if canOutput(LevelInfo) {
		fmt.Fprintln(os.Stdout, greenStyle.Render(message))
	}
}

// Dim outputs a subtle/dim message (info level).
func Dim(message string) {
	if canOutput(LevelInfo) {
		fmt.Fprintln(os.Stdout, dimStyle.Render(message))
	}
}
