package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// KeystoreProvider signs with an ed25519 key loaded from a keystore file.
// The file holds a JSON array of bytes: either a 64-byte private key or a
// 32-byte seed.
type KeystoreProvider struct {
	priv    ed25519.PrivateKey
	address string
}

// NewKeystoreProvider loads the keystore at path.
func NewKeystoreProvider(path string) (*KeystoreProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		// JSON arrays of numbers unmarshal into []byte only via base64;
		// keystores are written as plain int arrays.
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return nil, fmt.Errorf("failed to parse keystore: %w", err)
		}
		raw = make([]byte, len(ints))
		for i, n := range ints {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("keystore byte out of range at index %d", i)
			}
			raw[i] = byte(n)
		}
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("keystore must hold %d or %d bytes, got %d",
			ed25519.PrivateKeySize, ed25519.SeedSize, len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)
	return &KeystoreProvider{
		priv:    priv,
		address: base64.RawURLEncoding.EncodeToString(pub),
	}, nil
}

// Name returns the provider name.
func (p *KeystoreProvider) Name() string { return "keystore" }

// Connect returns the public address derived from the keystore.
func (p *KeystoreProvider) Connect(ctx context.Context) (string, error) {
	return p.address, nil
}

// SignMessage signs msg with the keystore's private key.
func (p *KeystoreProvider) SignMessage(msg []byte) ([]byte, error) {
	return ed25519.Sign(p.priv, msg), nil
}
