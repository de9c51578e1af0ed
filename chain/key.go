package chain

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160"
)

// PrivateKey is a secp256k1 (K1) chain signing key.
type PrivateKey struct {
	inner *secp256k1.PrivateKey
}

// PublicKey is a compressed secp256k1 public key.
type PublicKey struct {
	inner *secp256k1.PublicKey
}

const pubKeyPrefix = "EOS"

// NewPrivateKey generates a fresh random key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{inner: k}, nil
}

// GenKeyPair generates a key pair and returns it in text form
// (WIF private key, "EOS…" public key).
func GenKeyPair() (priv string, pub string, err error) {
	k, err := NewPrivateKey()
	if err != nil {
		return "", "", err
	}
	return k.String(), k.PublicKey().String(), nil
}

// ParsePrivateKey decodes a WIF-encoded private key.
func ParsePrivateKey(wif string) (*PrivateKey, error) {
	raw, err := base58Decode(wif)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != 37 {
		return nil, fmt.Errorf("private key has unexpected length %d", len(raw))
	}
	if raw[0] != 0x80 {
		return nil, fmt.Errorf("private key has unexpected version byte %#x", raw[0])
	}

	payload, checksum := raw[:33], raw[33:]
	digest := sha256.Sum256(payload)
	digest = sha256.Sum256(digest[:])
	if !bytes.Equal(digest[:4], checksum) {
		return nil, fmt.Errorf("private key checksum mismatch")
	}

	return &PrivateKey{inner: secp256k1.PrivKeyFromBytes(payload[1:])}, nil
}

// String encodes the key in WIF form.
func (k *PrivateKey) String() string {
	payload := append([]byte{0x80}, k.inner.Serialize()...)
	digest := sha256.Sum256(payload)
	digest = sha256.Sum256(digest[:])
	return base58Encode(append(payload, digest[:4]...))
}

// PublicKey returns the matching public key.
func (k *PrivateKey) PublicKey() PublicKey {
	return PublicKey{inner: k.inner.PubKey()}
}

// ParsePublicKey decodes an "EOS…" public key string.
func ParsePublicKey(s string) (PublicKey, error) {
	if !strings.HasPrefix(s, pubKeyPrefix) {
		return PublicKey{}, fmt.Errorf("public key %q missing %s prefix", s, pubKeyPrefix)
	}

	raw, err := base58Decode(s[len(pubKeyPrefix):])
	if err != nil {
		return PublicKey{}, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != 37 {
		return PublicKey{}, fmt.Errorf("public key has unexpected length %d", len(raw))
	}

	payload, checksum := raw[:33], raw[33:]
	if !bytes.Equal(ripemd160Checksum(payload, nil), checksum) {
		return PublicKey{}, fmt.Errorf("public key checksum mismatch")
	}

	pub, err := secp256k1.ParsePubKey(payload)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parse public key: %w", err)
	}
	return PublicKey{inner: pub}, nil
}

// String encodes the key in "EOS…" form.
func (p PublicKey) String() string {
	payload := p.inner.SerializeCompressed()
	return pubKeyPrefix + base58Encode(append(payload, ripemd160Checksum(payload, nil)...))
}

// Serialize returns the 33-byte compressed form used on the wire.
func (p PublicKey) Serialize() []byte {
	return p.inner.SerializeCompressed()
}

// ripemd160Checksum hashes payload (plus an optional suffix such as "K1")
// and returns the first 4 bytes.
func ripemd160Checksum(payload, suffix []byte) []byte {
	h := ripemd160.New()
	h.Write(payload)
	if len(suffix) > 0 {
		h.Write(suffix)
	}
	return h.Sum(nil)[:4]
}
