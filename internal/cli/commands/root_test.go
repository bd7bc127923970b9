package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "typesys" {
		t.Errorf("expected Use to be 'typesys', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	// Check subcommands are registered
	expectedCommands := []string{
		"version",
		"inspect",
		"types",
		"check",
		"serve",
		"watch",
		"catalog",
		"token",
	}

	for _, expected := range expectedCommands {
		found := false
		for _, cmd := range cmd.Commands() {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}

	for _, name := range []string{"manifest", "no-color", "verbose"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s", name)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	// Set test version info
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	cmd := NewVersionCommand()

	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %s", cmd.Use)
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, []string{})

	for _, want := range []string{"1.0.0-test", "abc123", "2025-01-01", "go1.23"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected version output to contain %q, got %q", want, out.String())
		}
	}
}

func TestCatalogSubcommands(t *testing.T) {
	cmd := NewCatalogCommand(&globalOptions{})

	expected := map[string]bool{"import": false, "list": false, "load": false, "remove": false, "reset": false}
	for _, sub := range cmd.Commands() {
		if _, ok := expected[sub.Name()]; ok {
			expected[sub.Name()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected catalog subcommand %s", name)
		}
	}
}
