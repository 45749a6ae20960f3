package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if got := Load(""); got != Default() {
		t.Fatalf("Load() = %+v, want %+v", got, Default())
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "netmoya")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	data := "theme = \"Slate\"\nstart_view = \"LOGS\"\nfollow_logs = false\n"
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	want := Prefs{Theme: "Slate", StartView: ViewLogs, FollowLogs: false}
	if got := Load(""); got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"blank theme and unknown view", "theme = \"\"\nstart_view = \"queue\"\n"},
		{"invalid toml", "not valid toml {{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if got := Load(path); got != Default() {
				t.Fatalf("Load() = %+v, want defaults", got)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "prefs.toml")
	p := Prefs{Theme: "Slate", StartView: ViewLogs, FollowLogs: false}

	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := Load(path); got != p {
		t.Fatalf("Load() = %+v, want %+v", got, p)
	}
}
