package account

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"testing"
)

// encryptLocalCredentials builds a blob the way the cloud service does,
// so decryption can be verified against a known plaintext.
func encryptLocalCredentials(t *testing.T, plaintext string) string {
	t.Helper()

	padding := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := []byte(plaintext)
	for i := 0; i < padding; i++ {
		padded = append(padded, byte(padding))
	}

	block, err := aes.NewCipher(credentialKey)
	if err != nil {
		t.Fatalf("creating cipher: %v", err)
	}

	ciphertext := make([]byte, len(padded))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return base64.StdEncoding.EncodeToString(ciphertext)
}

func TestDecryptLocalCredentials(t *testing.T) {
	blob := encryptLocalCredentials(t,
		`{"serial":"NN2-EU-KKA0717A","apPasswordHash":"sOmEhAsH=="}`)

	password, err := decryptLocalCredentials(blob)
	if err != nil {
		t.Fatalf("decryptLocalCredentials() error = %v", err)
	}
	if password != "sOmEhAsH==" {
		t.Errorf("password = %q, want sOmEhAsH==", password)
	}
}

func TestDecryptLocalCredentialsErrors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", ""},
		{"partial block", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"garbage blocks", base64.StdEncoding.EncodeToString(make([]byte, 2*aes.BlockSize))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decryptLocalCredentials(tt.blob); err == nil {
				t.Error("decryptLocalCredentials() expected error")
			}
		})
	}
}

func TestDecryptLocalCredentialsMissingHash(t *testing.T) {
	blob := encryptLocalCredentials(t, `{"serial":"NN2-EU-KKA0717A"}`)

	if _, err := decryptLocalCredentials(blob); err == nil {
		t.Error("decryptLocalCredentials() expected error for missing password hash")
	}
}

func TestStripPadding(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantErr bool
	}{
		{"one byte", []byte{'a', 'b', 'c', 1}, "abc", false},
		{"full block", append([]byte("0123456789abcdef"), bytesOf(16, 16)...), "0123456789abcdef", false},
		{"zero padding byte", []byte{'a', 0}, "", true},
		{"inconsistent", []byte{'a', 2, 3}, "", true},
		{"longer than input", []byte{9}, "", true},
		{"empty", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stripPadding(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("stripPadding() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(got) != tt.want {
				t.Errorf("stripPadding() = %q, want %q", got, tt.want)
			}
		})
	}
}

func bytesOf(value byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = value
	}
	return b
}
