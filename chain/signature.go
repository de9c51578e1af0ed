package chain

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrNonCanonicalSignature is returned when signing produced a signature
// that the chain would reject. The transaction layer retries with a fresh
// expiration, which changes the digest and re-rolls the signature.
var ErrNonCanonicalSignature = errors.New("produced non-canonical signature")

// Signature is a 65-byte recoverable K1 signature: one recovery header
// byte followed by R and S.
type Signature [65]byte

// SignDigest signs a 32-byte digest. Signatures that are not in the
// chain's canonical form return ErrNonCanonicalSignature.
func SignDigest(digest []byte, key *PrivateKey) (Signature, error) {
	var sig Signature
	if len(digest) != sha256.Size {
		return sig, fmt.Errorf("digest must be %d bytes, got %d", sha256.Size, len(digest))
	}

	compact := ecdsa.SignCompact(key.inner, digest, true)
	copy(sig[:], compact)

	if !sig.IsCanonical() {
		return sig, ErrNonCanonicalSignature
	}
	return sig, nil
}

// IsCanonical reports whether the signature satisfies the canonical-form
// rule enforced by Leap nodes: the top bit of neither R nor S may be set,
// and neither may have a zero leading byte with a clear next bit.
func (s Signature) IsCanonical() bool {
	return s[1]&0x80 == 0 &&
		!(s[1] == 0 && s[2]&0x80 == 0) &&
		s[33]&0x80 == 0 &&
		!(s[33] == 0 && s[34]&0x80 == 0)
}

// String encodes the signature in "SIG_K1_…" form.
func (s Signature) String() string {
	return "SIG_K1_" + base58Encode(append(s[:], ripemd160Checksum(s[:], []byte("K1"))...))
}

// SigningDigest computes the digest signed for a transaction:
// sha256(chain_id ‖ packed_trx ‖ 32 zero bytes).
func SigningDigest(chainID []byte, packedTx []byte) []byte {
	h := sha256.New()
	h.Write(chainID)
	h.Write(packedTx)
	h.Write(make([]byte, 32))
	return h.Sum(nil)
}
