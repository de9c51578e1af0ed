package chain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// TimeFormat is the timestamp layout used by chain APIs (UTC, no zone suffix).
const TimeFormat = "2006-01-02T15:04:05"

// FormatExpiration renders a transaction expiration timestamp.
func FormatExpiration(from time.Time, ttl time.Duration) string {
	return from.UTC().Add(ttl).Format(TimeFormat)
}

// ParseTime parses a chain API timestamp. Fractional seconds are accepted.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeFormat+".000", s); err == nil {
		return t, nil
	}
	return time.Parse(TimeFormat, s)
}

// TaposFromBlockID derives the reference block number and prefix for
// transaction-as-proof-of-stake fields from a block id (hex string,
// usually the last irreversible block id from get_info).
func TaposFromBlockID(blockID string) (refBlockNum uint16, refBlockPrefix uint32, err error) {
	raw, err := hex.DecodeString(blockID)
	if err != nil {
		return 0, 0, fmt.Errorf("decode block id: %w", err)
	}
	if len(raw) < 12 {
		return 0, 0, fmt.Errorf("block id too short: %d bytes", len(raw))
	}

	refBlockNum = uint16(binary.BigEndian.Uint32(raw[0:4]) & 0xFFFF)
	refBlockPrefix = binary.LittleEndian.Uint32(raw[8:12])
	return refBlockNum, refBlockPrefix, nil
}

// BlockNumFromID extracts the block height encoded in a block id.
func BlockNumFromID(blockID string) (uint32, error) {
	raw, err := hex.DecodeString(blockID)
	if err != nil {
		return 0, fmt.Errorf("decode block id: %w", err)
	}
	if len(raw) < 4 {
		return 0, fmt.Errorf("block id too short: %d bytes", len(raw))
	}
	return binary.BigEndian.Uint32(raw[0:4]), nil
}
