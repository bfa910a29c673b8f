package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/rivo/tview"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogManager keeps recent messages and shows them in the log panel
type LogManager struct {
	textView    *tview.TextView
	messages    []LogMessage
	maxMessages int
	mu          sync.Mutex

	// onChange is called after every new message
	onChange func()
}

// LogMessage represents a single log entry
type LogMessage struct {
	Time    time.Time
	Level   LogLevel
	Message string
}

// NewLogManager creates a new log manager
func NewLogManager(maxMessages int) *LogManager {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(maxMessages)
	textView.SetBorder(true).SetTitle(" Logs ")

	return &LogManager{
		textView:    textView,
		messages:    make([]LogMessage, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// GetView returns the tview component
func (lm *LogManager) GetView() tview.Primitive {
	return lm.textView
}

// AddLog adds a log message with the specified level
func (lm *LogManager) AddLog(level LogLevel, format string, args ...interface{}) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.messages = append(lm.messages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
	if len(lm.messages) > lm.maxMessages {
		lm.messages = lm.messages[len(lm.messages)-lm.maxMessages:]
	}
	lm.refresh()
	if lm.onChange != nil {
		lm.onChange()
	}
}

// Info logs an info message
func (lm *LogManager) Info(format string, args ...interface{}) {
	lm.AddLog(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func (lm *LogManager) Warn(format string, args ...interface{}) {
	lm.AddLog(LogLevelWarn, format, args...)
}

// Error logs an error message
func (lm *LogManager) Error(format string, args ...interface{}) {
	lm.AddLog(LogLevelError, format, args...)
}

// refresh rewrites the text view. Callers hold mu.
func (lm *LogManager) refresh() {
	lm.textView.Clear()
	for _, msg := range lm.messages {
		fmt.Fprintf(lm.textView, "[gray]%s[-] [%s]%-5s[-] %s\n",
			msg.Time.Format("15:04:05"), colorForLevel(msg.Level), msg.Level, tview.Escape(msg.Message))
	}
	lm.textView.ScrollToEnd()
}

// colorForLevel returns the tview color tag for a log level
func colorForLevel(level LogLevel) string {
	switch level {
	case LogLevelDebug:
		return "gray"
	case LogLevelWarn:
		return "yellow"
	case LogLevelError:
		return "red"
	default:
		return "white"
	}
}

// Logger returns a go-kit logger that writes into the panel, so library
// logging shows up next to the chart instead of corrupting the screen.
func (lm *LogManager) Logger() log.Logger {
	return panelLogger{lm: lm}
}

type panelLogger struct {
	lm *LogManager
}

// Log formats keyvals as "msg key=value ..." under the record's level.
func (l panelLogger) Log(keyvals ...interface{}) error {
	level := LogLevelInfo
	var msg string
	var fields []string
	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		value := fmt.Sprint(keyvals[i+1])
		switch key {
		case "level":
			level = LogLevel(strings.ToUpper(value))
			if level == "WARNING" {
				level = LogLevelWarn
			}
		case "msg":
			msg = value
		case "ts", "caller", "component":
		default:
			fields = append(fields, key+"="+value)
		}
	}
	if len(fields) > 0 {
		msg = strings.TrimSpace(msg + " " + strings.Join(fields, " "))
	}
	l.lm.AddLog(level, "%s", msg)
	return nil
}
