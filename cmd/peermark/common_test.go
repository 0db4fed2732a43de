package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/peermark/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestBuildConfig tests how the config file and flags combine.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	fileContent := `service:
  url: https://file.example
  clientTag: FileTag
selectors:
  - article
`

	t.Run("file values apply when flags are not set", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "peermark.yaml", fileContent)
		cmd := NewAnnotateCmd()
		if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"page.html"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ServiceURL != "https://file.example" {
			t.Errorf("expected service from file, got %q", cfg.ServiceURL)
		}
		if cfg.ClientTag != "FileTag" {
			t.Errorf("expected client tag from file, got %q", cfg.ClientTag)
		}
		if len(cfg.Selectors) != 1 || cfg.Selectors[0] != "article" {
			t.Errorf("expected selectors from file, got %v", cfg.Selectors)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected default timeout, got %v", cfg.Timeout)
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "page.html" {
			t.Errorf("expected targets from args, got %v", cfg.Targets)
		}
	})

	t.Run("explicit flags override the file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "peermark.yaml", fileContent)
		cmd := NewAnnotateCmd()
		err := cmd.ParseFlags([]string{
			"--config", path,
			"--client-tag", "Cli",
			"--selector", "div.a,div.b",
			"--timeout", "5s",
			"--batch", "2",
			"--json",
		})
		if err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ServiceURL != "https://file.example" {
			t.Errorf("expected service from file, got %q", cfg.ServiceURL)
		}
		if cfg.ClientTag != "Cli" {
			t.Errorf("expected client tag from flag, got %q", cfg.ClientTag)
		}
		if len(cfg.Selectors) != 2 || cfg.Selectors[1] != "div.b" {
			t.Errorf("expected selectors from flag, got %v", cfg.Selectors)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", cfg.Concurrency)
		}
		if !cfg.JSONReport {
			t.Error("expected JSON report")
		}
	})

	t.Run("reads TOML files", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "peermark.toml", "[service]\nclientTag = \"Toml\"\n")
		cmd := NewAnnotateCmd()
		if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ClientTag != "Toml" {
			t.Errorf("expected client tag from TOML, got %q", cfg.ClientTag)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewAnnotateCmd()
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildConfig(cmd, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})

	t.Run("invalid config file is an error", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "bad.yaml", "service: [unclosed")
		cmd := NewAnnotateCmd()
		if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error")
		}
	})
}

// TestSetupLogger tests logger selection.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("json logger writes JSON and masks the devkey", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := setupLogger(&buf, false, true)
		logger.Warn("lookup", "endpoint", "https://pubpeer.com/v3/publications?devkey=PubMedSafari")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected JSON log line, got %q", buf.String())
		}
		if strings.Contains(buf.String(), "PubMedSafari") {
			t.Errorf("expected devkey to be masked, got %q", buf.String())
		}
	})

	t.Run("debug lines need verbose", func(t *testing.T) {
		t.Parallel()

		var quiet, loud bytes.Buffer
		setupLogger(&quiet, false, false).Debug("hidden")
		setupLogger(&loud, true, false).Debug("shown")

		if quiet.Len() != 0 {
			t.Errorf("expected no debug output, got %q", quiet.String())
		}
		if !strings.Contains(loud.String(), "shown") {
			t.Errorf("expected debug output, got %q", loud.String())
		}
	})
}
