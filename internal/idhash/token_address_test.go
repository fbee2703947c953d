package idhash

import "testing"

func TestValidateTokenAddress(t *testing.T) {
	// Wrapped SOL mint: valid 32-byte base58 address.
	decoded, err := ValidateTokenAddress("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("ValidateTokenAddress failed: %v", err)
	}
	if len(decoded) != 32 {
		t.Errorf("Expected 32 bytes, got %d", len(decoded))
	}
}

func TestValidateTokenAddress_Invalid(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{name: "empty", addr: ""},
		{name: "bad base58", addr: "0OIl"},
		{name: "wrong length", addr: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateTokenAddress(tt.addr); err == nil {
				t.Errorf("Expected error for %q", tt.addr)
			}
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	// The all-ones system address decodes to 32 zero bytes, which is the
	// identity encoding and a valid curve point.
	decoded, err := ValidateTokenAddress("11111111111111111111111111111111")
	if err != nil {
		t.Fatalf("ValidateTokenAddress failed: %v", err)
	}
	if !IsOnCurve(decoded) {
		t.Error("Zero key should decode as a curve point")
	}
}
