package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger", func(t *testing.T) {
		t.Run("writes prefixed entries", func(t *testing.T) {
			t.Setenv(LogLevelEnv, "")
			var buf bytes.Buffer
			logger := NewLogger(&buf)
			logger.Info("hello")

			out := buf.String()
			if !strings.Contains(out, "ilas") {
				t.Errorf("expected ilas prefix in output: %q", out)
			}
			if !strings.Contains(out, "hello") {
				t.Errorf("expected message in output: %q", out)
			}
		})

		t.Run("honors level env var", func(t *testing.T) {
			t.Setenv(LogLevelEnv, "error")
			logger := NewLogger(nil)

			if logger.GetLevel() != log.ErrorLevel {
				t.Errorf("expected error level, got %v", logger.GetLevel())
			}
		})

		t.Run("ignores invalid level", func(t *testing.T) {
			t.Setenv(LogLevelEnv, "shouting")
			logger := NewLogger(nil)

			if logger.GetLevel() != log.InfoLevel {
				t.Errorf("expected default info level, got %v", logger.GetLevel())
			}
		})
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		t.Setenv(LogLevelEnv, "")
		logger := NewLogger(nil)
		SetLogLevel(logger, log.DebugLevel)

		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected a v4 uuid string, got %q", a)
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens and pings", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "session.db"), 0, 0)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			t.Errorf("database should be reachable: %v", err)
		}
	})

	t.Run("applies pool limits", func(t *testing.T) {
		db, err := NewDatabase(":memory:", 4, 2)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 4 {
			t.Errorf("expected max open conns 4, got %d", got)
		}
	})
}
