// Package logging configures the shared logrus instance used across the
// UniCrew client.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	setupOnce sync.Once
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// Formatter renders log entries as
// [2026-01-15 10:42:03] [a1b2c3d4] [debug] message key=value.
type Formatter struct{}

// fieldOrder defines the display order for common log fields.
var fieldOrder = []string{"endpoint", "team", "user", "status", "error"}

// Format renders a single log entry.
func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	reqID := "--------"
	if id, ok := entry.Data["request_id"].(string); ok && id != "" {
		reqID = id
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	var fields string
	if len(entry.Data) > 0 {
		var parts []string
		for _, k := range fieldOrder {
			if v, ok := entry.Data[k]; ok {
				parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			}
		}
		if len(parts) > 0 {
			fields = " " + strings.Join(parts, " ")
		}
	}

	buffer.WriteString(fmt.Sprintf("[%s] [%s] [%-5s] %s%s\n", timestamp, reqID, level, message, fields))
	return buffer.Bytes(), nil
}

// Setup configures the shared logrus instance. Safe to call multiple times;
// initialization happens only once.
func Setup(debug bool) {
	setupOnce.Do(func() {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&Formatter{})
		log.RegisterExitHandler(closeLogOutput)
	})
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// ConfigureFileOutput redirects logs into dir with size-based rotation.
// An empty dir keeps logging on stderr.
func ConfigureFileOutput(dir string) error {
	writerMu.Lock()
	defer writerMu.Unlock()

	if dir == "" {
		if logWriter != nil {
			_ = logWriter.Close()
			logWriter = nil
		}
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logging: create log directory: %w", err)
	}
	if logWriter != nil {
		_ = logWriter.Close()
	}
	logWriter = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "unicrew.log"),
		MaxSize:    10,
		MaxBackups: 3,
	}
	log.SetOutput(logWriter)
	return nil
}

func closeLogOutput() {
	writerMu.Lock()
	defer writerMu.Unlock()
	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}
