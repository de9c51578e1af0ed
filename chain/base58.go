package chain

import (
	"fmt"
	"math/big"
)

// Base58 codec for key and signature text encodings. The corpus carries no
// standalone base58 dependency, so the codec lives here.

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var b58Index [256]int8

func init() {
	for i := range b58Index {
		b58Index[i] = -1
	}
	for i := 0; i < len(b58Alphabet); i++ {
		b58Index[b58Alphabet[i]] = int8(i)
	}
}

func base58Encode(data []byte) string {
	x := new(big.Int).SetBytes(data)
	radix := big.NewInt(58)
	mod := new(big.Int)

	out := make([]byte, 0, len(data)*137/100+1)
	for x.Sign() > 0 {
		x.DivMod(x, radix, mod)
		out = append(out, b58Alphabet[mod.Int64()])
	}

	// Leading zero bytes map to '1'.
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, b58Alphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	x := new(big.Int)
	radix := big.NewInt(58)

	for i := 0; i < len(s); i++ {
		v := b58Index[s[i]]
		if v < 0 {
			return nil, fmt.Errorf("invalid base58 character %q", s[i])
		}
		x.Mul(x, radix)
		x.Add(x, big.NewInt(int64(v)))
	}

	out := x.Bytes()

	zeros := 0
	for zeros < len(s) && s[zeros] == b58Alphabet[0] {
		zeros++
	}
	if zeros > 0 {
		out = append(make([]byte, zeros), out...)
	}
	return out, nil
}
