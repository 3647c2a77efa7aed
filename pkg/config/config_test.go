package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name    string `yaml:"name"`
	Token   string `yaml:"token"`
	Port    int    `yaml:"port"`
	applied bool
}

func (s *sample) ApplyEnv() {
	s.applied = true
	if s.Token == "" {
		s.Token = os.Getenv("SAMPLE_TOKEN")
	}
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "inkwell")
	path := writeFile(t, "name: ${SAMPLE_NAME}\nport: 80\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "inkwell" {
		t.Errorf("name = %q, want %q", s.Name, "inkwell")
	}
	if !s.applied {
		t.Error("ApplyEnv should run after parsing")
	}
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeFile(t, "port: 0\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "from-env")
	s := sample{Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Port != 8080 {
		t.Errorf("port = %d, want default 8080", s.Port)
	}
	if s.Token != "from-env" {
		t.Errorf("token = %q, want env fallback", s.Token)
	}
}

func TestLoadOptional_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "port: 9090\n")
	s := sample{Port: 8080, Name: "default"}
	if err := LoadOptional(path, &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Port != 9090 || s.Name != "default" {
		t.Errorf("got %+v", s)
	}
}
