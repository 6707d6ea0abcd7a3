package part

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/coolbeans/ctlcat/pkg/outline"
)

func parse(t *testing.T, text, id string) *outline.Node {
	t.Helper()
	root, err := outline.Parse(text, id)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return root
}

func TestStatementEndToEnd(t *testing.T) {
	text := "(a) Top level text\n1. Secondary text\na. Tertiary text\nmore tertiary continuation\n(b) Second top level"
	stmt := Statement(parse(t, text, "ctl-1"), "ctl-1")

	if stmt.ID != "ctl-1" || stmt.Kind != KindStatement {
		t.Fatalf("wrapper = %s/%s", stmt.ID, stmt.Kind)
	}
	if stmt.Label() != "" {
		t.Errorf("wrapper should carry no label, got %q", stmt.Label())
	}
	if len(stmt.Parts) != 2 {
		t.Fatalf("top-level parts = %d, want 2", len(stmt.Parts))
	}

	a := stmt.Parts[0]
	if a.ID != "ctl-1.a" || a.Label() != "a" || a.Prose != "Top level text" || a.Kind != KindItem {
		t.Errorf("unexpected a: %+v", a)
	}
	if len(a.Parts) != 1 {
		t.Fatalf("a parts = %d, want 1", len(a.Parts))
	}
	a1 := a.Parts[0]
	if a1.ID != "ctl-1.a.1" || a1.Label() != "1" || a1.Prose != "Secondary text" {
		t.Errorf("unexpected a.1: %+v", a1)
	}
	if len(a1.Parts) != 1 {
		t.Fatalf("a.1 parts = %d, want 1", len(a1.Parts))
	}
	a1a := a1.Parts[0]
	if a1a.ID != "ctl-1.a.1.a" || a1a.Prose != "Tertiary text\nmore tertiary continuation" {
		t.Errorf("unexpected a.1.a: %+v", a1a)
	}
	if a1a.Parts != nil {
		t.Error("leaf should have nil parts")
	}

	b := stmt.Parts[1]
	if b.ID != "ctl-1.b" || b.Prose != "Second top level" || b.Parts != nil {
		t.Errorf("unexpected b: %+v", b)
	}
}

func TestStatementOnePartPerMarker(t *testing.T) {
	text := "(a) a\n1. a1\na. a1a\nb. a1b\n2. a2\n(b) b\n1. b1"
	stmt := Statement(parse(t, text, "ac-1_smt"), "ac-1_smt")

	var ids []string
	var walk func([]Part)
	walk = func(parts []Part) {
		for _, p := range parts {
			ids = append(ids, p.ID)
			walk(p.Parts)
		}
	}
	walk(stmt.Parts)

	expected := "ac-1.a ac-1.a.1 ac-1.a.1.a ac-1.a.1.b ac-1.a.2 ac-1.b ac-1.b.1"
	if got := strings.Join(ids, " "); got != expected {
		t.Errorf("ids = %s\nwant  %s", got, expected)
	}
	if stmt.ID != "ac-1_smt" {
		t.Errorf("wrapper id = %q", stmt.ID)
	}
}

func TestStatementEmpty(t *testing.T) {
	stmt := Statement(parse(t, "", "ctl-2"), "ctl-2")
	if stmt.Parts != nil {
		t.Errorf("expected no parts, got %d", len(stmt.Parts))
	}

	nilRoot := Statement(nil, "ctl-2")
	if nilRoot.ID != "ctl-2" || nilRoot.Parts != nil {
		t.Errorf("unexpected wrapper for nil root: %+v", nilRoot)
	}

	data, err := json.Marshal(nilRoot)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"id":"ctl-2","name":"statement"}` {
		t.Errorf("json = %s", data)
	}
}

func TestStatementKeepsLeadingProse(t *testing.T) {
	stmt := Statement(parse(t, "The organization:\n(a) acts", "ctl"), "ctl")
	if stmt.Prose != "The organization:" {
		t.Errorf("wrapper prose = %q", stmt.Prose)
	}
}

func TestItemsOmitEmptyChildren(t *testing.T) {
	parts := Items(parse(t, "(a) only", "x"), "x")
	data, err := json.Marshal(parts)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	expected := `[{"id":"x.a","name":"item","props":[{"name":"label","value":"a"}],"prose":"only"}]`
	if string(data) != expected {
		t.Errorf("json = %s\nwant %s", data, expected)
	}
}

func TestAdditional(t *testing.T) {
	p := Additional("ac-1_imp", KindImplementation, "Do the thing")
	if p.ID != "ac-1_imp" || p.Kind != KindImplementation || p.Prose != "Do the thing" || p.Parts != nil {
		t.Errorf("unexpected part: %+v", p)
	}
}
