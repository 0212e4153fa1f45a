package account

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// The manifest's LocalCredentials blob is AES-256-CBC encrypted with a
// static key of the byte values 1..32 and an all-zero IV; the plaintext
// is a small JSON document carrying the hashed MQTT password.
var credentialKey = func() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}()

type localCredentials struct {
	Serial         string `json:"serial"`
	PasswordHashed string `json:"apPasswordHash"`
}

func decryptLocalCredentials(blob string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("decoding credential blob: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", errors.New("credential blob is not a whole number of cipher blocks")
	}

	block, err := aes.NewCipher(credentialKey)
	if err != nil {
		return "", err
	}

	plaintext := make([]byte, len(ciphertext))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = stripPadding(plaintext)
	if err != nil {
		return "", err
	}

	var creds localCredentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return "", fmt.Errorf("decoding decrypted credentials: %w", err)
	}
	if creds.PasswordHashed == "" {
		return "", errors.New("decrypted credentials carry no password hash")
	}
	return creds.PasswordHashed, nil
}

// stripPadding removes PKCS#7 padding.
func stripPadding(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
