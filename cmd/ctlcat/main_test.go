package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/coolbeans/ctlcat/pkg/catalog"
	"github.com/coolbeans/ctlcat/pkg/part"
)

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd.PersistentFlags().String("config", "", "")
	cmd.PersistentFlags().String("log-level", "error", "")
	cmd.PersistentFlags().String("log-format", "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const workbook = `Controls,,,
Family,ID,Name,Control
Access Control,AC-1,Policy,"(a) Develop
1. Review"
Audit,AU-2,Event Logging,Identify events
`

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "controls.csv")
	if err := os.WriteFile(src, []byte(workbook), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "catalog.json")

	if _, err := run(t, convertCmd(), "", "--title", "Test", "--validate", "--output", output, src); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(doc.Catalog.Groups) != 2 || doc.Catalog.Groups[1].ID != "au" {
		t.Errorf("unexpected groups: %+v", doc.Catalog.Groups)
	}
}

func TestConvertRequiresTitle(t *testing.T) {
	src := filepath.Join(t.TempDir(), "controls.csv")
	if err := os.WriteFile(src, []byte(workbook), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, convertCmd(), "", src); err == nil || !strings.Contains(err.Error(), "--title") {
		t.Errorf("expected title error, got %v", err)
	}
}

func TestConvertConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "controls.csv")
	if err := os.WriteFile(src, []byte(workbook), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "ctlcat.yaml")
	if err := os.WriteFile(cfgPath, []byte("title: From Config\ncontrol_class: Baseline\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, convertCmd(), "", "--config", cfgPath, src)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	var doc catalog.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decoding stdout: %v", err)
	}
	if doc.Catalog.Metadata.Title != "From Config" || doc.Controls()[0].Class != "Baseline" {
		t.Errorf("config not applied: %+v", doc.Catalog.Metadata)
	}
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, parseCmd(), "(a) Top level text\n1. Secondary text\n", "--id", "ctl-1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var stmt part.Part
	if err := json.Unmarshal([]byte(out), &stmt); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if stmt.ID != "ctl-1" || stmt.Parts[0].Parts[0].ID != "ctl-1.a.1" {
		t.Errorf("unexpected statement: %+v", stmt)
	}
}

func TestParseCommandTree(t *testing.T) {
	out, err := run(t, parseCmd(), "(a) Top\n1. Second\nmore", "--control-id", "AC-1", "--tree")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expected := "ac-1_smt\n  a: Top\n    a.1: Second\n      | more\n"
	if out != expected {
		t.Errorf("tree output:\n%s\nwant:\n%s", out, expected)
	}
}

func TestParseCommandStructuralError(t *testing.T) {
	_, err := run(t, parseCmd(), "1. orphan", "--id", "ctl")
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected structural error, got %v", err)
	}

	if _, err := run(t, parseCmd(), "1. orphan", "--id", "ctl", "--orphans-as-prose"); err != nil {
		t.Errorf("orphans-as-prose should succeed, got %v", err)
	}
}
