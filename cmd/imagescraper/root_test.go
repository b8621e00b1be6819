package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "imagescraper" {
			t.Errorf("expected use 'imagescraper', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log-json flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("log-json") == nil {
			t.Fatal("expected log-json flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"scrape", "history", "init", "version"} {
			if !names[want] {
				t.Errorf("expected subcommand %q", want)
			}
		}
	})
}

// TestGetBoolFlag tests flag lookup on subcommands and standalone commands.
func TestGetBoolFlag(t *testing.T) {
	t.Parallel()

	t.Run("inherited persistent flag", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		root.SetArgs([]string{"version", "--short", "-v"})
		root.SetOut(&bytes.Buffer{})
		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sub, _, err := root.Find([]string{"version"})
		if err != nil {
			t.Fatalf("failed to find subcommand: %v", err)
		}
		if !getBoolFlag(sub, "verbose") {
			t.Error("expected verbose to be true")
		}
	})

	t.Run("missing flag defaults to false", func(t *testing.T) {
		t.Parallel()

		if getBoolFlag(NewInitCmd(), "verbose") {
			t.Error("expected false for a command without the flag")
		}
	})
}

// TestNewLogger tests logger format selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		var buf bytes.Buffer
		cmd.SetErr(&buf)

		newLogger(cmd).Warn("hello", "cookie", "session=abc")
		output := buf.String()
		if !strings.Contains(output, "msg=hello") {
			t.Errorf("expected text log, got %q", output)
		}
		if strings.Contains(output, "session=abc") {
			t.Errorf("expected cookie to be masked, got %q", output)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.PersistentFlags().Set("log-json", "true"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}
		var buf bytes.Buffer
		cmd.SetErr(&buf)

		newLogger(cmd).Warn("hello")
		if !strings.Contains(buf.String(), `"msg":"hello"`) {
			t.Errorf("expected JSON log, got %q", buf.String())
		}
	})
}
