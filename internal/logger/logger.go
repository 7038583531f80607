package logger

import (
	"io"
	"log"
	"os"
)

// Leveled package loggers. Error always mirrors to stderr; Always writes to
// the log file regardless of the configured level.
var (
	Info   *log.Logger
	Warn   *log.Logger
	Debug  *log.Logger
	Error  *log.Logger
	Always *log.Logger
)

var levelRank = map[string]int{
	"error": 0,
	"warn":  1,
	"info":  2,
	"debug": 3,
}

const defaultLevel = "info"

// Until InitWithConfig runs, everything but errors is discarded so packages
// can log during early startup and under test.
func init() {
	Info = log.New(io.Discard, "", 0)
	Warn = log.New(io.Discard, "", 0)
	Debug = log.New(io.Discard, "", 0)
	Error = log.New(os.Stderr, "❌ ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(io.Discard, "", 0)
}

func Init() error {
	return InitWithConfig(defaultLevel, "scanner.log")
}

// InitWithConfig opens the log file and builds the leveled loggers. Levels
// above the configured one are wired to io.Discard so call sites never need
// level checks.
func InitWithConfig(logLevel, logFilePath string) error {
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	active, ok := levelRank[logLevel]
	if !ok {
		active = levelRank[defaultLevel]
	}

	sink := func(level string, flags int, prefix string) *log.Logger {
		w := io.Writer(logFile)
		if levelRank[level] > active {
			w = io.Discard
		}
		return log.New(w, prefix, flags)
	}

	Info = sink("info", log.Ldate|log.Ltime, "ℹ️  INFO: ")
	Warn = sink("warn", log.Ldate|log.Ltime|log.Lshortfile, "⚠️  WARN: ")
	Debug = sink("debug", log.Ldate|log.Ltime|log.Lshortfile, "🐛 DEBUG: ")
	Error = log.New(io.MultiWriter(os.Stderr, logFile), "❌ ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(logFile, "📝 ALWAYS: ", log.Ldate|log.Ltime)

	return nil
}
