package request_test

import (
	"strings"
	"testing"
	"time"

	"payflow/internal/request"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  request.Status
		ok    bool
	}{
		{"PENDING", request.StatusPending, true},
		{"approved", request.StatusApproved, true},
		{"  Rejected ", request.StatusRejected, true},
		{"WITHDRAWN", request.StatusWithdrawn, true},
		{"", "", false},
		{"unknown", "", false},
	}
	for _, tc := range cases {
		got, ok := request.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestStatusTerminality(t *testing.T) {
	if request.StatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	for _, status := range []request.Status{request.StatusApproved, request.StatusRejected, request.StatusWithdrawn} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
}

func TestParsePurpose(t *testing.T) {
	got, ok := request.ParsePurpose(" Marketing ")
	if !ok || got != request.PurposeMarketing {
		t.Fatalf("ParsePurpose = %q ok=%v", got, ok)
	}
	if _, ok := request.ParsePurpose("lobbying"); ok {
		t.Fatal("expected unknown purpose to be rejected")
	}
}

func TestGeneratorFormat(t *testing.T) {
	fixed := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	gen := request.NewGenerator("exp").WithClock(func() time.Time { return fixed })

	code, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	parts := strings.Split(code, "-")
	if len(parts) != 3 {
		t.Fatalf("unexpected code shape: %q", code)
	}
	if parts[0] != "EXP" {
		t.Fatalf("expected uppercase prefix, got %q", parts[0])
	}
	if parts[1] != "20260314" {
		t.Fatalf("expected date segment 20260314, got %q", parts[1])
	}
	if len(parts[2]) != 4 {
		t.Fatalf("expected 4-character suffix, got %q", parts[2])
	}
}

func TestGeneratorSuffixVaries(t *testing.T) {
	gen := request.NewGenerator("EXP")
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatal("expected random suffixes to vary across generations")
	}
}
