package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ок" {
		t.Fatalf("fallback to ru failed: %s", got)
	}
	if got := T("en", "error.generic"); got == "error.generic" {
		t.Fatalf("missing en translation")
	}
	if got := T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown key should echo, got %s", got)
	}
}
