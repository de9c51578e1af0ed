package abi

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

// Decoder reads Antelope binary serialization. It covers the primitives
// needed to walk the state-history envelope; arbitrary action data
// decoding is out of scope.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder wraps raw bytes.
func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

// Remaining returns the unread byte count.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes, have %d: %w", n, d.Remaining(), io.ErrUnexpectedEOF)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadVarUint32() (uint32, error) {
	var v uint32
	var shift uint
	for {
		b, err := d.ReadUint8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, fmt.Errorf("varuint32 too long")
		}
	}
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadBytes reads a varuint-prefixed byte blob.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadVarUint32()
	if err != nil {
		return nil, err
	}
	return d.take(int(n))
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadChecksum256 reads a 32-byte hash and returns it hex-encoded.
func (d *Decoder) ReadChecksum256() (string, error) {
	b, err := d.take(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
