package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty string", ""},
		{"broker password", "futures-session-p@ss"},
		{"unicode text", "пароль сессии"},
		{"special chars", "!@#$%^&*()_+-=[]{}|;':\",./<>?"},
		{"long text", strings.Repeat("a", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := Encrypt(tt.plaintext, key)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}

			if _, err := base64.StdEncoding.DecodeString(encrypted); err != nil {
				t.Errorf("encrypted result is not valid base64: %v", err)
			}

			decrypted, err := Decrypt(encrypted, key)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if decrypted != tt.plaintext {
				t.Errorf("decrypted mismatch: got %q, want %q", decrypted, tt.plaintext)
			}
		})
	}
}

func TestEncryptDifferentNonces(t *testing.T) {
	key, _ := GenerateKey()

	encrypted1, _ := Encrypt("same password", key)
	encrypted2, _ := Encrypt("same password", key)

	if encrypted1 == encrypted2 {
		t.Error("two encryptions of the same text should produce different ciphertexts")
	}
}

func TestEncryptInvalidKeyLength(t *testing.T) {
	for _, keyLen := range []int{0, 16, 31, 33, 64} {
		key := make([]byte, keyLen)
		if _, err := Encrypt("test", key); err != ErrInvalidKeyLength {
			t.Errorf("Encrypt with %d byte key: got error %v, want %v", keyLen, err, ErrInvalidKeyLength)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	encrypted, _ := Encrypt("session password", key1)

	if _, err := Decrypt(encrypted, key2); err != ErrDecryptionFailed {
		t.Errorf("Decrypt with wrong key: got error %v, want %v", err, ErrDecryptionFailed)
	}
}

func TestDecryptMalformedInput(t *testing.T) {
	key, _ := GenerateKey()

	tests := []struct {
		name       string
		ciphertext string
		wantErr    error
	}{
		{"not base64", "not-valid-base64!!!", ErrInvalidCiphertext},
		{"shorter than nonce", "YWJj", ErrCiphertextTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.ciphertext, key); err != tt.wantErr {
				t.Errorf("Decrypt(%q): got error %v, want %v", tt.ciphertext, err, tt.wantErr)
			}
		})
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key, _ := GenerateKey()
	encrypted, _ := Encrypt("original password", key)

	decoded, _ := base64.StdEncoding.DecodeString(encrypted)
	if len(decoded) > 20 {
		decoded[20] ^= 0xFF
	}
	tampered := base64.StdEncoding.EncodeToString(decoded)

	if _, err := Decrypt(tampered, key); err != ErrDecryptionFailed {
		t.Errorf("Decrypt tampered ciphertext: got error %v, want %v", err, ErrDecryptionFailed)
	}
}

func TestGenerateKey(t *testing.T) {
	key1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if len(key1) != 32 {
		t.Errorf("GenerateKey: got %d bytes, want 32", len(key1))
	}

	key2, _ := GenerateKey()
	if string(key1) == string(key2) {
		t.Error("two generated keys should be different")
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey(make([]byte, 32)); err != nil {
		t.Errorf("ValidateKey(32 bytes): got error %v, want nil", err)
	}
	for _, keyLen := range []int{0, 16, 64} {
		if err := ValidateKey(make([]byte, keyLen)); err != ErrInvalidKeyLength {
			t.Errorf("ValidateKey(%d bytes): got error %v, want %v", keyLen, err, ErrInvalidKeyLength)
		}
	}
}

func TestKeyStringRoundTrip(t *testing.T) {
	keyString := "12345678901234567890123456789012" // ровно 32 байта

	encrypted, err := EncryptWithKeyString("broker password", keyString)
	if err != nil {
		t.Fatalf("EncryptWithKeyString failed: %v", err)
	}

	decrypted, err := DecryptWithKeyString(encrypted, keyString)
	if err != nil {
		t.Fatalf("DecryptWithKeyString failed: %v", err)
	}
	if decrypted != "broker password" {
		t.Errorf("got %q, want %q", decrypted, "broker password")
	}

	if _, err := EncryptWithKeyString("x", "short"); err != ErrInvalidKeyLength {
		t.Errorf("EncryptWithKeyString short key: got error %v, want %v", err, ErrInvalidKeyLength)
	}
}
