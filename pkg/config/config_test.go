package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/ctlcat/pkg/catalog"
	"github.com/coolbeans/ctlcat/pkg/source"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
title: ARS 5.0
control_class: Custom
on_structural_error: skip
trim_continuation: true
workers: 4
source:
  encoding: windows-1252
  skip_rows: 1
  columns:
    family: 0
    control_id: 1
    name: 2
    control: 5
log:
  level: debug
  format: json
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Title != "ARS 5.0" || cfg.ControlClass != "Custom" || cfg.Workers != 4 || !cfg.TrimContinuation {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.OnStructuralError != catalog.PolicySkip {
		t.Errorf("policy = %q", cfg.OnStructuralError)
	}
	if cfg.Version != catalog.DefaultVersion {
		t.Errorf("version should keep its default, got %q", cfg.Version)
	}
	if cfg.Source.Encoding != "windows-1252" || cfg.Source.SkipRows != 1 {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	if len(cfg.Source.Columns) != 4 || cfg.Source.Columns[source.FieldControl] != 5 {
		t.Errorf("columns should replace defaults, got %v", cfg.Source.Columns)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}

	opts := cfg.BuilderOptions(nil)
	if opts.Policy != catalog.PolicySkip || opts.ControlClass != "Custom" || !opts.TrimContinuation {
		t.Errorf("unexpected builder options: %+v", opts)
	}
}

func TestParseKeepsDefaultColumns(t *testing.T) {
	cfg, err := Parse([]byte("title: x\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cfg.Source.Columns) != len(source.DefaultColumnMap()) {
		t.Errorf("columns = %v", cfg.Source.Columns)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"policy", "on_structural_error: ignore", "on_structural_error"},
		{"workers", "workers: -1", "workers"},
		{"encoding", "source:\n  encoding: ebcdic", "encoding"},
		{"columns", "source:\n  columns:\n    family: 0", "missing required field"},
		{"log level", "log:\n  level: loud", "log level"},
		{"log format", "log:\n  format: xml", "log format"},
		{"yaml", "title: [unterminated", "parsing YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctlcat.yaml")
	if err := os.WriteFile(path, []byte("title: From File\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Title != "From File" {
		t.Errorf("title = %q", cfg.Title)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
