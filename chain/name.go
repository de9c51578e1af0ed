package chain

import (
	"fmt"
	"math/rand"
	"strings"
)

// Name is a 64-bit Antelope account, action, or table name.
//
// Names are base32-encoded with the charset ".12345abcdefghijklmnopqrstuvwxyz",
// at most 12 characters plus an optional 13th character restricted to ".1-5a-j".
type Name uint64

const nameCharset = ".12345abcdefghijklmnopqrstuvwxyz"

// NewName parses a string into a Name. It fails on invalid characters or
// names longer than 13 characters.
func NewName(s string) (Name, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("name %q is longer than 13 characters", s)
	}

	var value uint64
	for i := 0; i < len(s); i++ {
		c := charToSymbol(s[i])
		if c < 0 {
			return 0, fmt.Errorf("name %q has invalid character %q", s, s[i])
		}
		if i < 12 {
			value |= uint64(c&0x1F) << uint(64-5*(i+1))
		} else {
			if c > 0x0F {
				return 0, fmt.Errorf("name %q: 13th character %q out of range", s, s[i])
			}
			value |= uint64(c & 0x0F)
		}
	}

	return Name(value), nil
}

// MustName parses a string into a Name and panics on error. Intended for
// compile-time constants like contract and action names.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String decodes the name back to its string form.
func (n Name) String() string {
	if n == 0 {
		return ""
	}

	var sb strings.Builder
	value := uint64(n)

	for i := 0; i < 13; i++ {
		var c byte
		if i < 12 {
			c = byte(value>>uint(64-5*(i+1))) & 0x1F
		} else {
			c = byte(value) & 0x0F
		}
		sb.WriteByte(nameCharset[c])
	}

	return strings.TrimRight(sb.String(), ".")
}

// Uint64 returns the raw name value as serialized on the wire.
func (n Name) Uint64() uint64 { return uint64(n) }

func charToSymbol(c byte) int {
	switch {
	case c == '.':
		return 0
	case c >= '1' && c <= '5':
		return int(c-'1') + 1
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 6
	default:
		return -1
	}
}

// RandomName returns a random 12-character account name using only
// characters valid in every position.
func RandomName() string {
	const alphabet = "12345abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 12)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
