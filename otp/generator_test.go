package otp

import "testing"

func TestGenerateCodeLength(t *testing.T) {
	for _, digits := range []int{4, 6, 8, 10} {
		code, err := GenerateCode(digits)
		if err != nil {
			t.Fatalf("GenerateCode(%d) error: %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("GenerateCode(%d) = %q, want %d digits", digits, code, digits)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("GenerateCode(%d) = %q contains non-digit %q", digits, code, c)
			}
		}
	}
}

func TestGenerateCodeDefaultsDigits(t *testing.T) {
	code, err := GenerateCode(0)
	if err != nil {
		t.Fatalf("GenerateCode(0) error: %v", err)
	}
	if len(code) != DefaultDigits {
		t.Fatalf("GenerateCode(0) = %q, want %d digits", code, DefaultDigits)
	}

	code, err = GenerateCode(-3)
	if err != nil {
		t.Fatalf("GenerateCode(-3) error: %v", err)
	}
	if len(code) != DefaultDigits {
		t.Fatalf("GenerateCode(-3) = %q, want %d digits", code, DefaultDigits)
	}
}

func TestGenerateCodeRejectsOversize(t *testing.T) {
	if _, err := GenerateCode(11); err == nil {
		t.Fatal("expected error for 11 digits")
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		code, err := GenerateCode(8)
		if err != nil {
			t.Fatalf("GenerateCode error: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected varied codes across generations")
	}
}
