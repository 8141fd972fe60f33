package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a LogLevel.
// "WARNING" is accepted as WARN.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	default:
		return INFO, false
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var levelColors = map[LogLevel]string{
	DEBUG: colorGray,
	INFO:  colorBlue,
	WARN:  colorYellow,
	ERROR: colorRed,
	FATAL: colorBold + colorRed,
}

// sink is shared between a logger and the children made with With, so they
// serialize writes to the same output.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

type Logger struct {
	sink       *sink
	mu         sync.RWMutex
	level      LogLevel
	prefix     string
	colorize   bool
	showCaller bool
	showTime   bool
	timeFormat string
	exit       func(int)
}

var (
	defaultLogger *Logger
	once          sync.Once
)

type Config struct {
	Level      LogLevel
	Prefix     string
	Colorize   bool
	ShowCaller bool
	ShowTime   bool
	TimeFormat string
	Output     io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		Colorize:   true,
		ShowTime:   true,
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stderr,
	}
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "2006-01-02 15:04:05"
	}

	return &Logger{
		sink:       &sink{out: cfg.Output},
		level:      cfg.Level,
		prefix:     cfg.Prefix,
		colorize:   cfg.Colorize,
		showCaller: cfg.ShowCaller,
		showTime:   cfg.ShowTime,
		timeFormat: cfg.TimeFormat,
		exit:       os.Exit,
	}
}

// GetLogger returns the process-wide logger. LOG_LEVEL sets its level and
// NO_COLOR disables ANSI colors.
func GetLogger() *Logger {
	once.Do(func() {
		cfg := DefaultConfig()
		if lvl, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
			cfg.Level = lvl
		}
		if os.Getenv("NO_COLOR") != "" {
			cfg.Colorize = false
		}
		defaultLogger = New(cfg)
	})
	return defaultLogger
}

// With returns a child logger that tags every line with component and
// writes to the same output.
func (l *Logger) With(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prefix := "[" + component + "]"
	if l.prefix != "" {
		prefix = l.prefix + " " + prefix
	}
	return &Logger{
		sink:       l.sink,
		level:      l.level,
		prefix:     prefix,
		colorize:   l.colorize,
		showCaller: l.showCaller,
		showTime:   l.showTime,
		timeFormat: l.timeFormat,
		exit:       l.exit,
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.out = w
}

func (l *Logger) SetColorize(colorize bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorize = colorize
}

func (l *Logger) SetShowCaller(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.showCaller = show
}

func (l *Logger) formatMessage(level LogLevel, msg string, args ...any) string {
	var b strings.Builder

	if l.showTime {
		b.WriteString(time.Now().Format(l.timeFormat))
		b.WriteByte(' ')
	}

	tag := "[" + level.String() + "]"
	if l.colorize {
		tag = levelColors[level] + tag + colorReset
	}
	b.WriteString(tag)

	if l.showCaller {
		// formatMessage <- log <- Infof/Info <- caller
		if _, file, line, ok := runtime.Caller(3); ok {
			fmt.Fprintf(&b, " %s:%d", filepath.Base(file), line)
		}
	}

	if l.prefix != "" {
		b.WriteByte(' ')
		b.WriteString(l.prefix)
	}

	b.WriteByte(' ')
	if len(args) > 0 {
		fmt.Fprintf(&b, msg, args...)
	} else {
		b.WriteString(msg)
	}
	return b.String()
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}
	line := l.formatMessage(level, msg, args...)
	exit := l.exit
	l.mu.RUnlock()

	l.sink.mu.Lock()
	fmt.Fprintln(l.sink.out, line)
	l.sink.mu.Unlock()

	if level == FATAL {
		exit(1)
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(DEBUG, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(INFO, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(WARN, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(ERROR, msg, args...)
}

// Fatal logs at FATAL level and exits the program
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(FATAL, msg, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(WARN, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(ERROR, format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.log(FATAL, format, args...)
}

// Package-level convenience functions using the default logger

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	GetLogger().Fatal(msg, args...)
}

func Debugf(format string, args ...any) {
	GetLogger().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	GetLogger().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	GetLogger().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	GetLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	GetLogger().Fatalf(format, args...)
}

func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

func SetColorize(colorize bool) {
	GetLogger().SetColorize(colorize)
}

func SetShowCaller(show bool) {
	GetLogger().SetShowCaller(show)
}
