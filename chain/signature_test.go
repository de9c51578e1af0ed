package chain

import (
	"crypto/sha256"
	"errors"
	"strings"
	"testing"
)

func TestSignDigest(t *testing.T) {
	key, err := ParsePrivateKey(devPrivKey)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}

	// Signing is deterministic per digest, so a given digest either yields
	// a canonical signature or ErrNonCanonicalSignature. Walk digests the
	// way the transaction layer walks expirations until one signs clean.
	var sig Signature
	signed := false
	for i := 0; i < 64; i++ {
		digest := sha256.Sum256([]byte{byte(i)})
		sig, err = SignDigest(digest[:], key)
		if err == nil {
			signed = true
			break
		}
		if !errors.Is(err, ErrNonCanonicalSignature) {
			t.Fatalf("SignDigest failed: %v", err)
		}
	}
	if !signed {
		t.Fatal("no canonical signature in 64 attempts")
	}

	if !sig.IsCanonical() {
		t.Error("SignDigest returned non-canonical signature without error")
	}
	if !strings.HasPrefix(sig.String(), "SIG_K1_") {
		t.Errorf("Signature.String() = %q, want SIG_K1_ prefix", sig.String())
	}
}

func TestSignDigestBadLength(t *testing.T) {
	key, err := ParsePrivateKey(devPrivKey)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	if _, err := SignDigest([]byte("short"), key); err == nil {
		t.Error("SignDigest with short digest succeeded, want error")
	}
}

func TestIsCanonical(t *testing.T) {
	var sig Signature
	sig[1] = 0x01
	sig[33] = 0x01
	if !sig.IsCanonical() {
		t.Error("expected canonical")
	}

	sig[1] = 0x80
	if sig.IsCanonical() {
		t.Error("high bit in R should be non-canonical")
	}

	sig[1] = 0x00
	sig[2] = 0x01
	if sig.IsCanonical() {
		t.Error("zero leading R byte with clear next bit should be non-canonical")
	}

	sig[1] = 0x01
	sig[33] = 0x80
	if sig.IsCanonical() {
		t.Error("high bit in S should be non-canonical")
	}
}

func TestSigningDigest(t *testing.T) {
	chainID := []byte{1, 2, 3}
	packed := []byte{4, 5, 6}

	h := sha256.New()
	h.Write(chainID)
	h.Write(packed)
	h.Write(make([]byte, 32))
	want := h.Sum(nil)

	got := SigningDigest(chainID, packed)
	if len(got) != sha256.Size {
		t.Fatalf("digest length = %d", len(got))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("digest mismatch at byte %d", i)
		}
	}
}
