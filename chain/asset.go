package chain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol identifies a token: a precision (decimal places) plus a code of
// up to 7 uppercase characters, e.g. "4,TLOS".
type Symbol struct {
	Precision uint8
	Code      string
}

// NewSymbol parses a symbol from "precision,CODE" form.
func NewSymbol(s string) (Symbol, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("symbol %q: want \"precision,CODE\"", s)
	}

	var precision uint8
	if _, err := fmt.Sscanf(parts[0], "%d", &precision); err != nil {
		return Symbol{}, fmt.Errorf("symbol %q: bad precision: %w", s, err)
	}

	if err := validateSymbolCode(parts[1]); err != nil {
		return Symbol{}, fmt.Errorf("symbol %q: %w", s, err)
	}

	return Symbol{Precision: precision, Code: parts[1]}, nil
}

// MustSymbol parses a symbol and panics on error.
func MustSymbol(s string) Symbol {
	sym, err := NewSymbol(s)
	if err != nil {
		panic(err)
	}
	return sym
}

func validateSymbolCode(code string) error {
	if len(code) == 0 || len(code) > 7 {
		return fmt.Errorf("code must be 1-7 characters, got %d", len(code))
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return fmt.Errorf("code has invalid character %q", code[i])
		}
	}
	return nil
}

// Value returns the wire encoding: precision in the low byte, code bytes above.
func (s Symbol) Value() uint64 {
	v := uint64(s.Precision)
	for i := 0; i < len(s.Code); i++ {
		v |= uint64(s.Code[i]) << uint(8*(i+1))
	}
	return v
}

// CodeValue returns the wire encoding of the bare symbol_code.
func (s Symbol) CodeValue() uint64 {
	var v uint64
	for i := 0; i < len(s.Code); i++ {
		v |= uint64(s.Code[i]) << uint(8*i)
	}
	return v
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Asset is a fixed-precision token amount, e.g. "10.0000 TLOS".
// Amount holds the value scaled by 10^Precision.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// NewAsset builds an asset from a raw scaled amount and a symbol.
func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// ParseAsset parses "10.0000 TLOS" form. The number of decimal places
// determines the symbol precision.
func ParseAsset(s string) (Asset, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("asset %q: want \"amount CODE\"", s)
	}

	if err := validateSymbolCode(parts[1]); err != nil {
		return Asset{}, fmt.Errorf("asset %q: %w", s, err)
	}

	var precision uint8
	if idx := strings.IndexByte(parts[0], '.'); idx >= 0 {
		precision = uint8(len(parts[0]) - idx - 1)
	}

	dec, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Asset{}, fmt.Errorf("asset %q: bad amount: %w", s, err)
	}

	amount := dec.Shift(int32(precision))
	if !amount.IsInteger() {
		return Asset{}, fmt.Errorf("asset %q: amount does not fit precision %d", s, precision)
	}

	return Asset{
		Amount: amount.IntPart(),
		Symbol: Symbol{Precision: precision, Code: parts[1]},
	}, nil
}

// MustParseAsset parses an asset string and panics on error.
func MustParseAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Asset) String() string {
	dec := decimal.New(a.Amount, -int32(a.Symbol.Precision))
	return fmt.Sprintf("%s %s", dec.StringFixed(int32(a.Symbol.Precision)), a.Symbol.Code)
}
