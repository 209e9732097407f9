package internal

import "testing"

func TestSessionIDRoundTrip(t *testing.T) {
	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID failed: %v", err)
	}

	parsed, err := ParseSessionID(sid.String())
	if err != nil {
		t.Fatalf("ParseSessionID failed: %v", err)
	}
	if parsed != sid {
		t.Fatal("round trip mismatch")
	}
}

func TestParseSessionIDRejectsGarbage(t *testing.T) {
	if _, err := ParseSessionID("not base64 ***"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseSessionID("c2hvcnQ"); err == nil {
		t.Fatal("expected size error")
	}
}

func TestSecretsAreUnique(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret failed: %v", err)
	}
	b, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret failed: %v", err)
	}
	if a == b {
		t.Fatal("secrets must be unique")
	}
}

func TestConstantTimeEquals(t *testing.T) {
	if !ConstantTimeEquals("alpha", "alpha") {
		t.Fatal("equal inputs must match")
	}
	if ConstantTimeEquals("alpha", "beta") {
		t.Fatal("different inputs must not match")
	}
	if ConstantTimeEquals("alpha", "alphaalpha") {
		t.Fatal("different lengths must not match")
	}
}

func TestRememberedHashShape(t *testing.T) {
	h, err := NewRememberedHash()
	if err != nil {
		t.Fatalf("NewRememberedHash failed: %v", err)
	}
	if len(h) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(h))
	}
}
