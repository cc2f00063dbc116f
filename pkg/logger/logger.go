package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antibyte/basic64/pkg/configuration"
)

// LogLevel defines the available log levels.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var logLevelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// LogArea tags a log entry with the subsystem it came from, so areas can be
// switched on and off individually in the configuration.
type LogArea string

const (
	AreaBasic      LogArea = "basic"
	AreaTerminal   LogArea = "terminal"
	AreaWebSocket  LogArea = "websocket"
	AreaAuth       LogArea = "auth"
	AreaDatabase   LogArea = "database"
	AreaFileSystem LogArea = "filesystem"
	AreaNetwork    LogArea = "network"
	AreaSession    LogArea = "session"
	AreaConfig     LogArea = "config"
	AreaGeneral    LogArea = "general"
)

// Logger is the process-wide logging backend.
type Logger struct {
	enabled     int32              // atomic bool - checked on every call
	level       int32              // atomic LogLevel
	areaEnabled map[LogArea]*int32 // atomic bools per area
	file        *os.File
	mutex       sync.Mutex
	logPath     string
	maxSize     int64
	currentSize int64
}

var (
	globalLogger *Logger
	initOnce     sync.Once
)

// Initialize sets up the global logging system from the configuration.
func Initialize() error {
	var err error
	initOnce.Do(func() {
		globalLogger, err = newLogger()
	})
	return err
}

// Close flushes and closes the log file.
func Close() {
	if globalLogger == nil {
		return
	}
	globalLogger.mutex.Lock()
	defer globalLogger.mutex.Unlock()
	if globalLogger.file != nil {
		globalLogger.file.Close()
		globalLogger.file = nil
	}
}

func newLogger() (*Logger, error) {
	l := &Logger{
		areaEnabled: make(map[LogArea]*int32),
	}
	areas := []LogArea{
		AreaBasic, AreaTerminal, AreaWebSocket, AreaAuth, AreaDatabase,
		AreaFileSystem, AreaNetwork, AreaSession, AreaConfig, AreaGeneral,
	}
	for _, area := range areas {
		l.areaEnabled[area] = new(int32)
	}
	l.loadConfig()
	if err := l.openLogFile(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logger) loadConfig() {
	enabled := configuration.GetBool("Debug", "enable_logging", true)
	atomic.StoreInt32(&l.enabled, boolToInt32(enabled))

	level := parseLogLevel(configuration.GetString("Debug", "log_level", "info"))
	atomic.StoreInt32(&l.level, int32(level))

	l.logPath = configuration.GetString("Debug", "log_file", "debug.log")
	l.maxSize = int64(configuration.GetInt("Debug", "max_log_size", 10*1024*1024))

	for area, atomicBool := range l.areaEnabled {
		configKey := fmt.Sprintf("log_%s", string(area))
		enabled := configuration.GetBool("Debug", configKey, false)
		atomic.StoreInt32(atomicBool, boolToInt32(enabled))
	}
}

func (l *Logger) openLogFile() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		l.file.Close()
	}
	dir := filepath.Dir(l.logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = file
	if stat, err := file.Stat(); err == nil {
		l.currentSize = stat.Size()
	}
	return nil
}

// rotateLogFile moves the current file to .1 and starts fresh. Caller holds
// the mutex.
func (l *Logger) rotateLogFile() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	os.Remove(l.logPath + ".1")
	os.Rename(l.logPath, l.logPath+".1")

	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentSize = 0
	return nil
}

func (l *Logger) isEnabled() bool {
	return atomic.LoadInt32(&l.enabled) != 0
}

func (l *Logger) isAreaEnabled(area LogArea) bool {
	if atomicBool, exists := l.areaEnabled[area]; exists {
		return atomic.LoadInt32(atomicBool) != 0
	}
	return false
}

func (l *Logger) shouldLog(level LogLevel, area LogArea) bool {
	if !l.isEnabled() {
		return false
	}
	if atomic.LoadInt32(&l.level) > int32(level) {
		return false
	}
	// WARN and above always pass the area filter.
	if level >= WARN {
		return true
	}
	return l.isAreaEnabled(area)
}

func (l *Logger) writeLog(level LogLevel, area LogArea, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	_, file, line, _ := runtime.Caller(3)
	filename := filepath.Base(file)

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	logEntry := fmt.Sprintf("[%s] %s [%s:%d] [%s] %s\n",
		timestamp, logLevelNames[level], filename, line,
		strings.ToUpper(string(area)), message)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		n, err := l.file.WriteString(logEntry)
		if err == nil {
			l.currentSize += int64(n)
			if l.currentSize > l.maxSize {
				l.rotateLogFile()
			}
		}
	}

	// Mirror important entries to the standard log.
	if level >= WARN {
		log.Printf("[%s] [%s] %s", logLevelNames[level], strings.ToUpper(string(area)), message)
	}
}

func (l *Logger) logAt(level LogLevel, area LogArea, format string, args ...interface{}) {
	if !l.shouldLog(level, area) {
		return
	}
	l.writeLog(level, area, format, args...)
}

// Debug writes a debug-level entry for an area.
func Debug(area LogArea, format string, args ...interface{}) {
	if globalLogger == nil {
		return
	}
	globalLogger.logAt(DEBUG, area, format, args...)
}

// Info writes an info-level entry for an area.
func Info(area LogArea, format string, args ...interface{}) {
	if globalLogger == nil {
		return
	}
	globalLogger.logAt(INFO, area, format, args...)
}

// Warn writes a warning-level entry for an area.
func Warn(area LogArea, format string, args ...interface{}) {
	if globalLogger == nil {
		return
	}
	globalLogger.logAt(WARN, area, format, args...)
}

// Error writes an error-level entry for an area.
func Error(area LogArea, format string, args ...interface{}) {
	if globalLogger == nil {
		return
	}
	globalLogger.logAt(ERROR, area, format, args...)
}

// Fatal writes a fatal entry and terminates the process.
func Fatal(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.writeLog(FATAL, area, format, args...)
	}
	log.Fatalf("[FATAL] [%s] "+format, append([]interface{}{strings.ToUpper(string(area))}, args...)...)
}

// Convenience wrappers for the most common areas.

func BasicDebug(format string, args ...interface{}) { Debug(AreaBasic, format, args...) }
func BasicInfo(format string, args ...interface{})  { Info(AreaBasic, format, args...) }
func BasicWarn(format string, args ...interface{})  { Warn(AreaBasic, format, args...) }
func BasicError(format string, args ...interface{}) { Error(AreaBasic, format, args...) }

func AuthDebug(format string, args ...interface{}) { Debug(AreaAuth, format, args...) }
func AuthInfo(format string, args ...interface{})  { Info(AreaAuth, format, args...) }
func AuthWarn(format string, args ...interface{})  { Warn(AreaAuth, format, args...) }
func AuthError(format string, args ...interface{}) { Error(AreaAuth, format, args...) }

func NetworkInfo(format string, args ...interface{})  { Info(AreaNetwork, format, args...) }
func NetworkWarn(format string, args ...interface{})  { Warn(AreaNetwork, format, args...) }
func NetworkError(format string, args ...interface{}) { Error(AreaNetwork, format, args...) }

func ConfigInfo(format string, args ...interface{}) { Info(AreaConfig, format, args...) }

func parseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
