package abi

import (
	"fmt"
	"strings"
	"time"

	"github.com/guilledk/go-leap/chain"
)

// PackActionData serializes action arguments against the ABI. Arguments
// may be positional ([]any, matching struct field order) or named
// (map[string]any).
func (a *ABI) PackActionData(action chain.Name, args any) ([]byte, error) {
	s, err := a.ActionStruct(action)
	if err != nil {
		return nil, err
	}

	enc := NewEncoder()
	if err := a.packStruct(enc, s, args); err != nil {
		return nil, fmt.Errorf("pack %s: %w", action, err)
	}
	return enc.Bytes(), nil
}

func (a *ABI) packStruct(e *Encoder, s *StructDef, args any) error {
	fields, err := a.structFields(s)
	if err != nil {
		return err
	}

	switch v := args.(type) {
	case []any:
		if len(v) > len(fields) {
			return fmt.Errorf("struct %s has %d fields, got %d values", s.Name, len(fields), len(v))
		}
		for i, field := range fields {
			var val any
			if i < len(v) {
				val = v[i]
			} else if !strings.HasSuffix(field.Type, "$") && !strings.HasSuffix(field.Type, "?") {
				return fmt.Errorf("struct %s: missing value for field %s", s.Name, field.Name)
			}
			if err := a.packField(e, field, val, i >= len(v)); err != nil {
				return err
			}
		}
		return nil

	case map[string]any:
		for _, field := range fields {
			val, ok := v[field.Name]
			if !ok && !strings.HasSuffix(field.Type, "$") && !strings.HasSuffix(field.Type, "?") {
				return fmt.Errorf("struct %s: missing value for field %s", s.Name, field.Name)
			}
			if err := a.packField(e, field, val, !ok); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("struct %s: unsupported argument container %T", s.Name, args)
	}
}

func (a *ABI) packField(e *Encoder, f Field, v any, absent bool) error {
	typ := f.Type

	// Binary extension: omitted values at the tail serialize to nothing.
	if strings.HasSuffix(typ, "$") {
		if absent {
			return nil
		}
		typ = strings.TrimSuffix(typ, "$")
	}

	if strings.HasSuffix(typ, "?") {
		if absent || v == nil {
			e.WriteUint8(0)
			return nil
		}
		e.WriteUint8(1)
		typ = strings.TrimSuffix(typ, "?")
	}

	if strings.HasSuffix(typ, "[]") {
		elemType := strings.TrimSuffix(typ, "[]")
		elems, err := toSlice(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		e.WriteVarUint32(uint32(len(elems)))
		for _, elem := range elems {
			if err := a.packValue(e, elemType, elem); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	}

	if err := a.packValue(e, typ, v); err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	return nil
}

func (a *ABI) packValue(e *Encoder, typ string, v any) error {
	typ = a.ResolveType(typ)

	switch typ {
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
		e.WriteBool(b)
	case "int8":
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		e.WriteInt8(int8(n))
	case "uint8":
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		e.WriteUint8(uint8(n))
	case "int16":
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		e.WriteInt16(int16(n))
	case "uint16":
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		e.WriteUint16(uint16(n))
	case "int32":
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		e.WriteInt32(int32(n))
	case "uint32":
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		e.WriteUint32(uint32(n))
	case "int64":
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		e.WriteInt64(n)
	case "uint64":
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		e.WriteUint64(n)
	case "varuint32":
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		e.WriteVarUint32(uint32(n))
	case "varint32":
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		e.WriteVarInt32(int32(n))
	case "float32":
		n, err := toFloat64(v)
		if err != nil {
			return err
		}
		e.WriteFloat32(float32(n))
	case "float64":
		n, err := toFloat64(v)
		if err != nil {
			return err
		}
		e.WriteFloat64(n)
	case "string":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		e.WriteString(s)
	case "bytes":
		b, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("want []byte, got %T", v)
		}
		e.WriteBytes(b)
	case "name", "account_name", "action_name", "table_name", "permission_name", "scope_name":
		n, err := toName(v)
		if err != nil {
			return err
		}
		e.WriteName(n)
	case "asset":
		av, err := toAsset(v)
		if err != nil {
			return err
		}
		e.WriteAsset(av)
	case "symbol":
		sym, err := toSymbol(v)
		if err != nil {
			return err
		}
		e.WriteSymbol(sym)
	case "symbol_code":
		sym, err := toSymbol(v)
		if err != nil {
			return err
		}
		e.WriteSymbolCode(sym)
	case "checksum160":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want hex string, got %T", v)
		}
		return e.WriteChecksum(s, 20)
	case "checksum256", "transaction_id", "block_id", "digest_type":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want hex string, got %T", v)
		}
		return e.WriteChecksum(s, 32)
	case "checksum512":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want hex string, got %T", v)
		}
		return e.WriteChecksum(s, 64)
	case "public_key":
		pk, err := toPublicKey(v)
		if err != nil {
			return err
		}
		e.WritePublicKey(pk)
	case "signature":
		sig, ok := v.(chain.Signature)
		if !ok {
			return fmt.Errorf("want chain.Signature, got %T", v)
		}
		e.WriteSignature(sig)
	case "time_point_sec":
		t, err := toTime(v)
		if err != nil {
			return err
		}
		e.WriteTimePointSec(t)
	case "time_point":
		t, err := toTime(v)
		if err != nil {
			return err
		}
		e.WriteTimePoint(t)
	case "block_timestamp_type":
		t, err := toTime(v)
		if err != nil {
			return err
		}
		e.WriteBlockTimestamp(t)
	default:
		if s := a.StructFor(typ); s != nil {
			return a.packStruct(e, s, v)
		}
		if vd := a.VariantFor(typ); vd != nil {
			return a.packVariant(e, vd, v)
		}
		return fmt.Errorf("unknown abi type %q", typ)
	}
	return nil
}

// packVariant expects a two-element []any: the selected type name and its value.
func (a *ABI) packVariant(e *Encoder, vd *VariantDef, v any) error {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return fmt.Errorf("variant %s: want [type, value] pair, got %T", vd.Name, v)
	}
	selected, ok := pair[0].(string)
	if !ok {
		return fmt.Errorf("variant %s: type selector must be a string", vd.Name)
	}
	for i, t := range vd.Types {
		if t == selected {
			e.WriteVarUint32(uint32(i))
			return a.packValue(e, t, pair[1])
		}
	}
	return fmt.Errorf("variant %s has no alternative %q", vd.Name, selected)
}

// Pack serializes the ABI document itself to the binary form expected by
// the setabi system action.
func (a *ABI) Pack() ([]byte, error) {
	e := NewEncoder()
	e.WriteString(a.Version)

	e.WriteVarUint32(uint32(len(a.Types)))
	for _, t := range a.Types {
		e.WriteString(t.NewTypeName)
		e.WriteString(t.Type)
	}

	e.WriteVarUint32(uint32(len(a.Structs)))
	for _, s := range a.Structs {
		e.WriteString(s.Name)
		e.WriteString(s.Base)
		e.WriteVarUint32(uint32(len(s.Fields)))
		for _, f := range s.Fields {
			e.WriteString(f.Name)
			e.WriteString(f.Type)
		}
	}

	e.WriteVarUint32(uint32(len(a.Actions)))
	for _, ac := range a.Actions {
		n, err := chain.NewName(ac.Name)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", ac.Name, err)
		}
		e.WriteName(n)
		e.WriteString(ac.Type)
		e.WriteString(ac.RicardianContract)
	}

	e.WriteVarUint32(uint32(len(a.Tables)))
	for _, t := range a.Tables {
		n, err := chain.NewName(t.Name)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		e.WriteName(n)
		e.WriteString(t.IndexType)
		e.WriteVarUint32(uint32(len(t.KeyNames)))
		for _, k := range t.KeyNames {
			e.WriteString(k)
		}
		e.WriteVarUint32(uint32(len(t.KeyTypes)))
		for _, k := range t.KeyTypes {
			e.WriteString(k)
		}
		e.WriteString(t.Type)
	}

	e.WriteVarUint32(uint32(len(a.RicardianClauses)))
	for _, c := range a.RicardianClauses {
		e.WriteString(c.ID)
		e.WriteString(c.Body)
	}

	e.WriteVarUint32(uint32(len(a.ErrorMessages)))
	for _, m := range a.ErrorMessages {
		e.WriteUint64(m.ErrorCode)
		e.WriteString(m.ErrorMsg)
	}

	// abi_extensions
	e.WriteVarUint32(0)

	// variants are a binary extension and serialize only when present
	if len(a.Variants) > 0 {
		e.WriteVarUint32(uint32(len(a.Variants)))
		for _, v := range a.Variants {
			e.WriteString(v.Name)
			e.WriteVarUint32(uint32(len(v.Types)))
			for _, t := range v.Types {
				e.WriteString(t)
			}
		}
	}

	return e.Bytes(), nil
}

// value coercion helpers: JSON decoding and caller convenience produce a
// mix of Go types for the same abi type.

func toSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return s, nil
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want slice, got %T", v)
	}
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned type", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned type", n)
		}
		return uint64(n), nil
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, fmt.Errorf("value %v not an unsigned integer", n)
		}
		return uint64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("want unsigned integer, got %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("value %v not an integer", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("want float, got %T", v)
	}
}

func toName(v any) (chain.Name, error) {
	switch n := v.(type) {
	case chain.Name:
		return n, nil
	case string:
		return chain.NewName(n)
	default:
		return 0, fmt.Errorf("want name, got %T", v)
	}
}

func toAsset(v any) (chain.Asset, error) {
	switch a := v.(type) {
	case chain.Asset:
		return a, nil
	case string:
		return chain.ParseAsset(a)
	default:
		return chain.Asset{}, fmt.Errorf("want asset, got %T", v)
	}
}

func toSymbol(v any) (chain.Symbol, error) {
	switch s := v.(type) {
	case chain.Symbol:
		return s, nil
	case string:
		return chain.NewSymbol(s)
	default:
		return chain.Symbol{}, fmt.Errorf("want symbol, got %T", v)
	}
}

func toPublicKey(v any) (chain.PublicKey, error) {
	switch p := v.(type) {
	case chain.PublicKey:
		return p, nil
	case string:
		return chain.ParsePublicKey(p)
	default:
		return chain.PublicKey{}, fmt.Errorf("want public key, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return chain.ParseTime(t)
	default:
		return time.Time{}, fmt.Errorf("want timestamp, got %T", v)
	}
}
