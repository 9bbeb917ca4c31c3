// Package logs builds the process logger: a terminal handler, an optional
// JSON file, and the systemd journal when running as a service.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Options struct {
	Level  string
	Format string
	File   string
	Writer io.Writer
	// Journal forces the journal handler on or off. Nil detects a systemd
	// service from the cgroup.
	Journal *bool
}

// ParseLevel maps a level name onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// New returns the logger and a closer for any file it opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	journal := isSystemdService()
	if opts.Journal != nil {
		journal = *opts.Journal
	}

	var handlers []slog.Handler
	var terminal slog.Handler
	if !journal {
		if opts.Format == "json" {
			terminal = slog.NewJSONHandler(w, hopts)
		} else {
			terminal = slog.NewTextHandler(w, hopts)
		}
		handlers = append(handlers, terminal)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = f
		handlers = append(handlers, slog.NewJSONHandler(f, hopts))
	}

	if journal {
		jh, err := slogjournal.NewHandler(&slogjournal.Options{
			Level:        level,
			ReplaceGroup: toJournalKey,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			fallback := slog.NewTextHandler(w, hopts)
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			record.Add("error", err)
			_ = fallback.Handle(context.Background(), record)
			handlers = append(handlers, fallback)
		} else {
			handlers = append(handlers, jh)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}
