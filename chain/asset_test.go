package chain

import "testing"

func TestParseAsset(t *testing.T) {
	cases := []struct {
		in        string
		amount    int64
		precision uint8
		code      string
	}{
		{"10.0000 TLOS", 100000, 4, "TLOS"},
		{"0.0001 TLOS", 1, 4, "TLOS"},
		{"42 SYS", 42, 0, "SYS"},
		{"-5.00 ABC", -500, 2, "ABC"},
		{"420000000.0000 TLOS", 4200000000000, 4, "TLOS"},
	}

	for _, tc := range cases {
		a, err := ParseAsset(tc.in)
		if err != nil {
			t.Fatalf("ParseAsset(%q) failed: %v", tc.in, err)
		}
		if a.Amount != tc.amount {
			t.Errorf("ParseAsset(%q).Amount = %d, want %d", tc.in, a.Amount, tc.amount)
		}
		if a.Symbol.Precision != tc.precision {
			t.Errorf("ParseAsset(%q).Precision = %d, want %d", tc.in, a.Symbol.Precision, tc.precision)
		}
		if a.Symbol.Code != tc.code {
			t.Errorf("ParseAsset(%q).Code = %q, want %q", tc.in, a.Symbol.Code, tc.code)
		}
	}
}

func TestParseAssetInvalid(t *testing.T) {
	cases := []string{
		"10.0000",           // missing code
		"10.0000 tlos",      // lowercase code
		"10.0000 TOOLONGGG", // code too long
		"abc TLOS",          // not a number
	}

	for _, s := range cases {
		if _, err := ParseAsset(s); err == nil {
			t.Errorf("ParseAsset(%q) succeeded, want error", s)
		}
	}
}

func TestAssetString(t *testing.T) {
	cases := []string{
		"10.0000 TLOS",
		"0.0001 TLOS",
		"42 SYS",
		"-5.00 ABC",
	}

	for _, want := range cases {
		a, err := ParseAsset(want)
		if err != nil {
			t.Fatalf("ParseAsset(%q) failed: %v", want, err)
		}
		if got := a.String(); got != want {
			t.Errorf("Asset(%q) round trip = %q", want, got)
		}
	}
}

func TestSymbolValue(t *testing.T) {
	sym := MustSymbol("4,TLOS")

	want := uint64(4) |
		uint64('T')<<8 |
		uint64('L')<<16 |
		uint64('O')<<24 |
		uint64('S')<<32
	if got := sym.Value(); got != want {
		t.Errorf("Symbol.Value() = %#x, want %#x", got, want)
	}

	wantCode := uint64('T') |
		uint64('L')<<8 |
		uint64('O')<<16 |
		uint64('S')<<24
	if got := sym.CodeValue(); got != wantCode {
		t.Errorf("Symbol.CodeValue() = %#x, want %#x", got, wantCode)
	}
}
