package abi

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/guilledk/go-leap/chain"
)

func TestWriteVarUint32(t *testing.T) {
	cases := []struct {
		in   uint32
		want string
	}{
		{0, "00"},
		{1, "01"},
		{127, "7f"},
		{128, "8001"},
		{300, "ac02"},
		{16384, "808001"},
	}

	for _, tc := range cases {
		e := NewEncoder()
		e.WriteVarUint32(tc.in)
		if got := e.Hex(); got != tc.want {
			t.Errorf("WriteVarUint32(%d) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestWriteName(t *testing.T) {
	e := NewEncoder()
	e.WriteName(chain.MustName("eosio"))
	if got := e.Hex(); got != "0000000000ea3055" {
		t.Errorf("WriteName(eosio) = %s", got)
	}
}

func TestWriteAsset(t *testing.T) {
	e := NewEncoder()
	e.WriteAsset(chain.MustParseAsset("10.0000 TLOS"))
	if got := e.Hex(); got != "a086010000000000"+"04544c4f53000000" {
		t.Errorf("WriteAsset = %s", got)
	}
}

func TestWriteString(t *testing.T) {
	e := NewEncoder()
	e.WriteString("hi")
	if got := e.Hex(); got != "026869" {
		t.Errorf("WriteString(hi) = %s", got)
	}
}

func TestWriteChecksum(t *testing.T) {
	sum := "4667b205c6838ef70ff927f0ebd0b1cd221b06e5a36b30bcbdf8bb0e4c5a4b11"

	e := NewEncoder()
	if err := e.WriteChecksum(sum, 32); err != nil {
		t.Fatalf("WriteChecksum failed: %v", err)
	}
	if got := e.Hex(); got != sum {
		t.Errorf("WriteChecksum = %s", got)
	}

	if err := NewEncoder().WriteChecksum("abcd", 32); err == nil {
		t.Error("WriteChecksum with short input succeeded, want error")
	}
	if err := NewEncoder().WriteChecksum("zz", 1); err == nil {
		t.Error("WriteChecksum with bad hex succeeded, want error")
	}
}

func TestWriteTimePointSec(t *testing.T) {
	e := NewEncoder()
	e.WriteTimePointSec(time.Unix(0x01020304, 0))
	if got := e.Hex(); got != "04030201" {
		t.Errorf("WriteTimePointSec = %s", got)
	}
}

func TestDecoderRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteUint32(42)
	e.WriteVarUint32(300)
	e.WriteBool(true)
	e.WriteString("hello")
	e.WriteBytes([]byte{1, 2, 3})

	sum := "4667b205c6838ef70ff927f0ebd0b1cd221b06e5a36b30bcbdf8bb0e4c5a4b11"
	raw, _ := hex.DecodeString(sum)
	e.WriteRaw(raw)

	d := NewDecoder(e.Bytes())
	if v, err := d.ReadUint32(); err != nil || v != 42 {
		t.Fatalf("ReadUint32 = %d, %v", v, err)
	}
	if v, err := d.ReadVarUint32(); err != nil || v != 300 {
		t.Fatalf("ReadVarUint32 = %d, %v", v, err)
	}
	if v, err := d.ReadBool(); err != nil || !v {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := d.ReadString(); err != nil || v != "hello" {
		t.Fatalf("ReadString = %q, %v", v, err)
	}
	if v, err := d.ReadBytes(); err != nil || len(v) != 3 {
		t.Fatalf("ReadBytes = %v, %v", v, err)
	}
	if v, err := d.ReadChecksum256(); err != nil || v != sum {
		t.Fatalf("ReadChecksum256 = %q, %v", v, err)
	}
	if d.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining())
	}
}

func TestDecoderTruncated(t *testing.T) {
	d := NewDecoder([]byte{0x01})
	if _, err := d.ReadUint32(); err == nil {
		t.Error("ReadUint32 on truncated input succeeded, want error")
	}
}
