package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("SHIPBRIDGE_LOG_FORMAT", "console")
	if got := Get("SHIPBRIDGE_LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected console got %q", got)
	}
	t.Setenv("SHIPBRIDGE_LOG_FORMAT", "")
	if got := Get("SHIPBRIDGE_LOG_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback got %q", got)
	}
}

func TestFirst(t *testing.T) {
	t.Setenv("A_KEY", "")
	t.Setenv("B_KEY", "b")
	if got := First("A_KEY", "B_KEY"); got != "b" {
		t.Fatalf("expected b got %q", got)
	}
	t.Setenv("B_KEY", "")
	if got := First("A_KEY", "B_KEY"); got != "" {
		t.Fatalf("expected empty got %q", got)
	}
}
