package commands

import (
	"testing"
)

func TestWatchCommand_Creation(t *testing.T) {
	cmd := NewWatchCommand(&globalOptions{})

	if cmd == nil {
		t.Fatal("Expected watch command to be created")
	}

	if cmd.Use != "watch" {
		t.Errorf("Expected Use to be 'watch', got %q", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
}

func TestWatchCommand_Flags(t *testing.T) {
	cmd := NewWatchCommand(&globalOptions{})

	debounceFlag := cmd.Flags().Lookup("debounce")
	if debounceFlag == nil {
		t.Fatal("Expected --debounce flag to exist")
	}

	if debounceFlag.DefValue != "100" {
		t.Errorf("Expected default debounce 100, got %s", debounceFlag.DefValue)
	}
}

func TestWatchCommand_RequiresManifests(t *testing.T) {
	_, _, err := run(t, "watch", "-m", t.TempDir())
	if err == nil {
		t.Fatal("Expected an error for a directory without manifests")
	}
}

func TestServeCommand_Flags(t *testing.T) {
	cmd := NewServeCommand(&globalOptions{})

	tests := []struct {
		name string
		def  string
	}{
		{"host", "localhost"},
		{"port", "7070"},
		{"from-catalog", "false"},
		{"watch", "false"},
	}

	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		if flag == nil {
			t.Errorf("Expected --%s flag to exist", tt.name)
			continue
		}
		if flag.DefValue != tt.def {
			t.Errorf("Expected default %s for --%s, got %s", tt.def, tt.name, flag.DefValue)
		}
	}
}

func TestServeCommand_RejectsWatchWithCatalog(t *testing.T) {
	_, _, err := run(t, "serve", "--watch", "--from-catalog")
	if err == nil {
		t.Fatal("Expected --watch with --from-catalog to fail")
	}
}
