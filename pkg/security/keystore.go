package security

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var ErrNoKeyMaterial = errors.New("no key material in file")

// LoadSigningKey reads an ECDSA private key from a PEM file. When
// passphrase is non-empty the file is expected to hold the AES-GCM
// ciphertext of the PEM bytes, sealed under DeriveKey(passphrase).
func LoadSigningKey(path, passphrase string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	if passphrase != "" {
		enc, err := NewAESEncryptor(DeriveKey(passphrase))
		if err != nil {
			return nil, err
		}
		data, err = enc.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt signing key: %w", err)
		}
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoKeyMaterial
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key is not ECDSA")
	}
	return key, nil
}
