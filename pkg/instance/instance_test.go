package instance

import "testing"

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("PAINTREF_INSTANCE_ID", "api-7")
	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "api-7" {
		t.Fatalf("expected api-7, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	for _, key := range idEnvVars {
		t.Setenv(key, "")
	}
	if got := GetID(); got != fallbackID {
		t.Fatalf("expected %q, got %q", fallbackID, got)
	}
}
