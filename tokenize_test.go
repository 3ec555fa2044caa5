package grafpe

import (
	"strings"
	"testing"
)

func TestTokenizerPreservesFormat(t *testing.T) {
	tok, err := NewTokenizer(Digits, testKey, testIV, DefaultParams(10), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create tokenizer: %v", err)
	}

	tests := []string{
		"123-45-6789",
		"4532-1234-5678-9010",
		"(555) 123-4567",
		"0",
		"2024.01.15",
	}
	for _, plaintext := range tests {
		t.Run(plaintext, func(t *testing.T) {
			tokenized, err := tok.Tokenize(plaintext, 1)
			if err != nil {
				t.Fatalf("Failed to tokenize: %v", err)
			}
			if len(tokenized) != len(plaintext) {
				t.Fatalf("Length not preserved: %q -> %q", plaintext, tokenized)
			}
			for i := 0; i < len(plaintext); i++ {
				isDigit := Digits.Contains(plaintext[i])
				if isDigit != Digits.Contains(tokenized[i]) {
					t.Errorf("Character class changed at %d: %q -> %q", i, plaintext, tokenized)
				}
				if !isDigit && plaintext[i] != tokenized[i] {
					t.Errorf("Format character changed at %d: %q -> %q", i, plaintext, tokenized)
				}
			}

			detokenized, err := tok.Detokenize(tokenized, 1)
			if err != nil {
				t.Fatalf("Failed to detokenize: %v", err)
			}
			if detokenized != plaintext {
				t.Errorf("Detokenize failed: expected %s, got %s", plaintext, detokenized)
			}
			t.Logf("%s -> %s", plaintext, tokenized)
		})
	}
}

func TestTokenizerAlphanumeric(t *testing.T) {
	tok, err := NewTokenizer(Alphanumeric, testKey, testIV, DefaultParams(62), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create tokenizer: %v", err)
	}
	plaintext := "user.name42@example.com"
	tokenized, err := tok.Encrypt(plaintext, 0)
	if err != nil {
		t.Fatalf("Failed to tokenize: %v", err)
	}
	if strings.Count(tokenized, ".") != 2 || strings.Index(tokenized, "@") != strings.Index(plaintext, "@") {
		t.Errorf("Format not preserved: %q -> %q", plaintext, tokenized)
	}
	back, err := tok.Decrypt(tokenized, 0)
	if err != nil || back != plaintext {
		t.Errorf("Round trip failed: %q, %v", back, err)
	}
}

func TestTokenizerRejectsFormatOnly(t *testing.T) {
	tok, err := NewTokenizer(Digits, testKey, testIV, DefaultParams(10), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create tokenizer: %v", err)
	}
	for _, s := range []string{"", "---", "abc"} {
		if _, err := tok.Tokenize(s, 0); err == nil {
			t.Errorf("Expected an error for %q", s)
		}
	}
}
