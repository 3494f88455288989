package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const timestampLayout = "2006-01-02 15:04:05"

// Config selects the level, output and encoding of a logger.
type Config struct {
	// Level is parsed with logrus.ParseLevel. Unknown levels fall back to info.
	Level string
	// File appends to a log file in addition to Output.
	File string
	// JSON switches to logrus.JSONFormatter.
	JSON bool
	// Caller adds file:line to each entry.
	Caller bool
	// Output defaults to stderr.
	Output io.Writer
}

// LineFormatter writes "[time] [LEVL] [file:line] msg key=value ...".
type LineFormatter struct{}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileLine string
	if entry.HasCaller() {
		fileLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s] %s", entry.Time.Format(timestampLayout), level, fileLine, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// New builds a logrus logger from cfg.
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetReportCaller(cfg.Caller)
	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampLayout})
	} else {
		log.SetFormatter(&LineFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("logger: create log directory: %w", err)
			}
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open %s: %w", cfg.File, err)
		}
		writers = append(writers, file)
	}
	log.SetOutput(io.MultiWriter(writers...))
	return log, nil
}
