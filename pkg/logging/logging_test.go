package logging

import "testing"

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestNamedLogger(t *testing.T) {
	provider, err := New(Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger := provider.Named("catalog")
	if logger == nil {
		t.Fatal("expected a logger")
	}
	logger.Debug("suppressed", "key", "value")
}

func TestNilProviderFallsBackToNop(t *testing.T) {
	var provider *Provider
	if _, ok := provider.Named("x").(nop); !ok {
		t.Error("nil provider should hand out the no-op logger")
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warning", "error"} {
		if !ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = false", level)
		}
	}
	if ValidLevel("trace-all") {
		t.Error("ValidLevel accepted an unknown level")
	}
}
