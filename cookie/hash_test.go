package cookie

import (
	"net/http/httptest"
	"testing"
)

func TestHashIsDeterministic(t *testing.T) {
	c := NewCalculator(SourceCalculate, true)

	a := c.HashForClient("desktop", "Mozilla/5.0")
	b := c.HashForClient("desktop", "Mozilla/5.0")
	if a != b {
		t.Fatalf("identical inputs must hash identically: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(a))
	}
}

func TestHashSeparatesClients(t *testing.T) {
	c := NewCalculator(SourceCalculate, true)

	desktop := c.HashForClient("desktop", "Mozilla/5.0")
	mobile := c.HashForClient("mobile", "Mozilla/5.0")
	if desktop == mobile {
		t.Fatal("different clients on one browser profile must get distinct hashes")
	}
}

func TestHashUserAgentToggle(t *testing.T) {
	with := NewCalculator(SourceCalculate, true)
	without := NewCalculator(SourceCalculate, false)

	if with.HashForClient("desktop", "ua-a") == with.HashForClient("desktop", "ua-b") {
		t.Fatal("user agent must influence the hash when enabled")
	}
	if without.HashForClient("desktop", "ua-a") != without.HashForClient("desktop", "ua-b") {
		t.Fatal("user agent must not influence the hash when disabled")
	}
}

func TestHashFromRequest(t *testing.T) {
	c := NewCalculator(SourceCalculate, true)

	r := httptest.NewRequest("GET", "/ajax/login?client=desktop", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0")

	if got, want := c.Hash(r), c.HashForClient("desktop", "Mozilla/5.0"); got != want {
		t.Fatalf("request hash mismatch: got %s want %s", got, want)
	}
}

func TestRemembered(t *testing.T) {
	if NewCalculator(SourceCalculate, true).Remembered() {
		t.Fatal("calculate source must not report remembered")
	}
	if !NewCalculator(SourceRemember, true).Remembered() {
		t.Fatal("remember source must report remembered")
	}
}
