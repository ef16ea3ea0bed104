package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Console output is human-facing diagnostics only. It is written to stderr
// because stdout belongs to the coordinator protocol (STATUS and result
// lines); anything printed here must never reach the coordinator.
var (
	writer io.Writer = os.Stderr

	// Mutex for thread-safe console output
	mu sync.Mutex

	// Track if we're in a progress display mode
	inProgress bool

	// ANSI color codes
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"

	// ANSI cursor control
	clearLine = "\r\033[K"

	// Check if colors are supported
	colorsSupported = isTerminal()
)

// isTerminal checks if stderr is a terminal
func isTerminal() bool {
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// SetWriter sets the output writer (useful for testing)
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	writer = w
}

// color returns the colored string if colors are supported
func color(text, colorCode string) string {
	if !colorsSupported {
		return text
	}
	return colorCode + text + colorReset
}

// Print outputs a message to the console
func Print(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if inProgress {
		fmt.Fprint(writer, clearLine)
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(writer, msg)
	inProgress = false
}

// Info outputs an info message with optional color
func Info(format string, args ...interface{}) {
	Print("["+color("INFO", colorBlue)+"] "+format, args...)
}

// Success outputs a success message in green
func Success(format string, args ...interface{}) {
	Print("["+color("OK", colorGreen)+"] "+format, args...)
}

// Warning outputs a warning message in yellow
func Warning(format string, args ...interface{}) {
	Print("["+color("WARN", colorYellow)+"] "+format, args...)
}

// Error outputs an error message in red
func Error(format string, args ...interface{}) {
	Print("["+color("ERROR", colorRed)+"] "+format, args...)
}

// Status outputs a status message in cyan
func Status(format string, args ...interface{}) {
	Print("["+color("*", colorCyan)+"] "+format, args...)
}

// Progress outputs a progress update that overwrites the current line
func Progress(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if colorsSupported {
		fmt.Fprint(writer, clearLine+msg)
	} else {
		// For non-terminals, print with newline
		fmt.Fprintln(writer, msg)
	}
	inProgress = true
}

// ProgressBar generates a progress bar string
func ProgressBar(current, total int64, width int) string {
	if total == 0 {
		return strings.Repeat("─", width)
	}

	percent := float64(current) * 100.0 / float64(total)
	filled := int(float64(width) * float64(current) / float64(total))

	if filled > width {
		filled = width
	}

	bar := "["
	bar += strings.Repeat("=", filled)
	if filled < width {
		bar += ">"
		bar += strings.Repeat(" ", width-filled-1)
	}
	bar += "]"

	return fmt.Sprintf("%s %6.2f%%", bar, percent)
}

// FormatSpeed formats hash rate into human-readable format
func FormatSpeed(hashesPerSecond int64) string {
	const (
		KH = 1000
		MH = KH * 1000
		GH = MH * 1000
		TH = GH * 1000
	)

	switch {
	case hashesPerSecond >= TH:
		return fmt.Sprintf("%.2f TH/s", float64(hashesPerSecond)/TH)
	case hashesPerSecond >= GH:
		return fmt.Sprintf("%.2f GH/s", float64(hashesPerSecond)/GH)
	case hashesPerSecond >= MH:
		return fmt.Sprintf("%.2f MH/s", float64(hashesPerSecond)/MH)
	case hashesPerSecond >= KH:
		return fmt.Sprintf("%.2f KH/s", float64(hashesPerSecond)/KH)
	default:
		return fmt.Sprintf("%d H/s", hashesPerSecond)
	}
}

// FormatDuration formats a duration into human-readable format
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "calculating..."
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// RunProgress represents the state of the active cracking run
type RunProgress struct {
	Permille    int   // coordinator progress units, 0-10000
	HashRate    int64 // hashes per second
	LineIndex   int64 // last wordlist line observed from the engine
	FoundCount  int64 // cracked records seen so far
	ElapsedSecs int
}

// FormatRunProgress formats run progress for the debug-mode display
func FormatRunProgress(p RunProgress) string {
	bar := ProgressBar(int64(p.Permille), 10000, 30)
	speed := FormatSpeed(p.HashRate)
	elapsed := FormatDuration(p.ElapsedSecs)

	return fmt.Sprintf("%s | line %d | found %d | %s | %s",
		bar, p.LineIndex, p.FoundCount, speed, elapsed)
}
