package abi

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/guilledk/go-leap/chain"
)

// Encoder writes Antelope binary serialization. All integers are
// little-endian; lengths use LEB128 varuints.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns everything written so far.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Hex returns the buffer as a hex string, the form push_transaction expects.
func (e *Encoder) Hex() string { return hex.EncodeToString(e.buf.Bytes()) }

func (e *Encoder) WriteRaw(b []byte) { e.buf.Write(b) }

func (e *Encoder) WriteUint8(v uint8) { e.buf.WriteByte(v) }

func (e *Encoder) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteInt8(v int8)   { e.WriteUint8(uint8(v)) }
func (e *Encoder) WriteInt16(v int16) { e.WriteUint16(uint16(v)) }
func (e *Encoder) WriteInt32(v int32) { e.WriteUint32(uint32(v)) }
func (e *Encoder) WriteInt64(v int64) { e.WriteUint64(uint64(v)) }

func (e *Encoder) WriteVarUint32(v uint32) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

func (e *Encoder) WriteVarInt32(v int32) {
	// zigzag
	e.WriteVarUint32(uint32((v << 1) ^ (v >> 31)))
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *Encoder) WriteFloat32(v float32) { e.WriteUint32(math.Float32bits(v)) }
func (e *Encoder) WriteFloat64(v float64) { e.WriteUint64(math.Float64bits(v)) }

func (e *Encoder) WriteString(s string) {
	e.WriteVarUint32(uint32(len(s)))
	e.buf.WriteString(s)
}

func (e *Encoder) WriteBytes(b []byte) {
	e.WriteVarUint32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *Encoder) WriteName(n chain.Name) { e.WriteUint64(n.Uint64()) }

func (e *Encoder) WriteAsset(a chain.Asset) {
	e.WriteInt64(a.Amount)
	e.WriteUint64(a.Symbol.Value())
}

func (e *Encoder) WriteSymbol(s chain.Symbol)     { e.WriteUint64(s.Value()) }
func (e *Encoder) WriteSymbolCode(s chain.Symbol) { e.WriteUint64(s.CodeValue()) }

// WriteChecksum writes a fixed-size hex-encoded hash (20, 32, or 64 bytes).
func (e *Encoder) WriteChecksum(hexStr string, size int) error {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return fmt.Errorf("decode checksum: %w", err)
	}
	if len(raw) != size {
		return fmt.Errorf("checksum is %d bytes, want %d", len(raw), size)
	}
	e.buf.Write(raw)
	return nil
}

// WritePublicKey writes a K1 public key: type tag 0 plus 33 bytes.
func (e *Encoder) WritePublicKey(p chain.PublicKey) {
	e.WriteVarUint32(0)
	e.buf.Write(p.Serialize())
}

// WriteSignature writes a K1 signature: type tag 0 plus 65 bytes.
func (e *Encoder) WriteSignature(s chain.Signature) {
	e.WriteVarUint32(0)
	e.buf.Write(s[:])
}

// WriteTimePointSec writes seconds since epoch as uint32.
func (e *Encoder) WriteTimePointSec(t time.Time) {
	e.WriteUint32(uint32(t.Unix()))
}

// WriteTimePoint writes microseconds since epoch as int64.
func (e *Encoder) WriteTimePoint(t time.Time) {
	e.WriteInt64(t.UnixMicro())
}

const blockTimestampEpochMs = 946684800000 // 2000-01-01T00:00:00 UTC

// WriteBlockTimestamp writes half-second slots since the 2000 epoch.
func (e *Encoder) WriteBlockTimestamp(t time.Time) {
	e.WriteUint32(uint32((t.UnixMilli() - blockTimestampEpochMs) / 500))
}
