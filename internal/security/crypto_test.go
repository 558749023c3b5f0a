package security

import (
	"strings"
	"testing"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestFieldCipherRoundTrip(t *testing.T) {
	fc, errNew := NewFieldCipher(testHexKey)
	if errNew != nil {
		t.Fatalf("new cipher: %v", errNew)
	}

	stored, errEncrypt := fc.Encrypt("user@example.com")
	if errEncrypt != nil {
		t.Fatalf("encrypt: %v", errEncrypt)
	}
	if parts := strings.Split(stored, ":"); len(parts) != 3 {
		t.Fatalf("stored value has %d parts, want 3", len(parts))
	}

	plain, errDecrypt := fc.Decrypt(stored)
	if errDecrypt != nil {
		t.Fatalf("decrypt: %v", errDecrypt)
	}
	if plain != "user@example.com" {
		t.Fatalf("decrypt = %q, want original plaintext", plain)
	}
}

func TestFieldCipherLegacyPlaintextPassthrough(t *testing.T) {
	fc, errNew := NewFieldCipher(testHexKey)
	if errNew != nil {
		t.Fatalf("new cipher: %v", errNew)
	}

	for _, stored := range []string{"plain@example.com", "no-colons-here", "a:b"} {
		plain, errDecrypt := fc.Decrypt(stored)
		if errDecrypt != nil {
			t.Fatalf("decrypt %q: %v", stored, errDecrypt)
		}
		if plain != stored {
			t.Fatalf("decrypt %q = %q, want unchanged passthrough", stored, plain)
		}
	}
}

func TestFieldCipherTamperedCiphertextFails(t *testing.T) {
	fc, errNew := NewFieldCipher(testHexKey)
	if errNew != nil {
		t.Fatalf("new cipher: %v", errNew)
	}

	stored, errEncrypt := fc.Encrypt("secret")
	if errEncrypt != nil {
		t.Fatalf("encrypt: %v", errEncrypt)
	}
	parts := strings.Split(stored, ":")
	flipped := "00" + parts[2][2:]
	if parts[2][:2] == "00" {
		flipped = "11" + parts[2][2:]
	}
	if _, errDecrypt := fc.Decrypt(parts[0] + ":" + parts[1] + ":" + flipped); errDecrypt == nil {
		t.Fatal("decrypt of tampered ciphertext succeeded, want error")
	}
}

func TestNilFieldCipherPassesValuesThrough(t *testing.T) {
	var fc *FieldCipher

	stored, errEncrypt := fc.Encrypt("plain@example.com")
	if errEncrypt != nil {
		t.Fatalf("encrypt: %v", errEncrypt)
	}
	if stored != "plain@example.com" {
		t.Fatalf("encrypt = %q, want plaintext passthrough", stored)
	}

	plain, errDecrypt := fc.Decrypt(stored)
	if errDecrypt != nil {
		t.Fatalf("decrypt: %v", errDecrypt)
	}
	if plain != "plain@example.com" {
		t.Fatalf("decrypt = %q, want unchanged value", plain)
	}
}

func TestNewFieldCipherRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "abcd", "zz", testHexKey + "00"} {
		if _, errNew := NewFieldCipher(key); errNew == nil {
			t.Fatalf("key %q accepted, want error", key)
		}
	}
}
