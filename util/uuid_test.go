package util

import (
	"regexp"
	"testing"
	"time"
)

func TestGenerateUUID_Format(t *testing.T) {
	u := GenerateUUID()
	if u == "" {
		t.Fatal("expected non-empty UUID")
	}
	// simple regex for UUID v4 format
	r := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !r.MatchString(u) {
		t.Fatalf("UUID %s does not match v4 format", u)
	}
	if GenerateUUID() == u {
		t.Fatal("expected distinct UUIDs")
	}
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2025, 12, 13, 13, 0, 0, 987654321, loc)
	if got := FormatTimestamp(in); got != "2025-12-13T12:00:00Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}
