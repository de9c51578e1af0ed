package abi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/guilledk/go-leap/chain"
)

func tokenABI() *ABI {
	return &ABI{
		Version: "eosio::abi/1.2",
		Structs: []StructDef{
			{
				Name: "transfer",
				Fields: []Field{
					{Name: "from", Type: "name"},
					{Name: "to", Type: "name"},
					{Name: "quantity", Type: "asset"},
					{Name: "memo", Type: "string"},
				},
			},
			{
				Name: "create",
				Fields: []Field{
					{Name: "issuer", Type: "name"},
					{Name: "maximum_supply", Type: "asset"},
				},
			},
		},
		Actions: []ActionDef{
			{Name: "transfer", Type: "transfer"},
			{Name: "create", Type: "create"},
		},
	}
}

func TestPackActionDataPositional(t *testing.T) {
	a := tokenABI()

	got, err := a.PackActionData(chain.MustName("transfer"),
		[]any{"alice", "bob", "1.0000 TLOS", "hi"})
	if err != nil {
		t.Fatalf("PackActionData failed: %v", err)
	}

	e := NewEncoder()
	e.WriteName(chain.MustName("alice"))
	e.WriteName(chain.MustName("bob"))
	e.WriteAsset(chain.MustParseAsset("1.0000 TLOS"))
	e.WriteString("hi")

	if !bytes.Equal(got, e.Bytes()) {
		t.Errorf("PackActionData = %x, want %x", got, e.Bytes())
	}
}

func TestPackActionDataNamed(t *testing.T) {
	a := tokenABI()

	positional, err := a.PackActionData(chain.MustName("transfer"),
		[]any{"alice", "bob", "1.0000 TLOS", "hi"})
	if err != nil {
		t.Fatalf("positional pack failed: %v", err)
	}

	named, err := a.PackActionData(chain.MustName("transfer"), map[string]any{
		"from":     "alice",
		"to":       "bob",
		"quantity": "1.0000 TLOS",
		"memo":     "hi",
	})
	if err != nil {
		t.Fatalf("named pack failed: %v", err)
	}

	if !bytes.Equal(positional, named) {
		t.Errorf("named pack = %x, positional = %x", named, positional)
	}
}

func TestPackActionDataMissingField(t *testing.T) {
	a := tokenABI()
	if _, err := a.PackActionData(chain.MustName("transfer"), []any{"alice"}); err == nil {
		t.Error("pack with missing fields succeeded, want error")
	}
	if _, err := a.PackActionData(chain.MustName("unknown"), []any{}); err == nil {
		t.Error("pack of unknown action succeeded, want error")
	}
}

func TestPackArrayOptionalExtension(t *testing.T) {
	a := &ABI{
		Version: "eosio::abi/1.2",
		Structs: []StructDef{
			{
				Name: "probe",
				Fields: []Field{
					{Name: "names", Type: "name[]"},
					{Name: "note", Type: "string?"},
					{Name: "extra", Type: "uint32$"},
				},
			},
		},
		Actions: []ActionDef{{Name: "probe", Type: "probe"}},
	}

	// all present
	got, err := a.PackActionData(chain.MustName("probe"),
		[]any{[]any{"alice", "bob"}, "x", 7})
	if err != nil {
		t.Fatalf("PackActionData failed: %v", err)
	}

	e := NewEncoder()
	e.WriteVarUint32(2)
	e.WriteName(chain.MustName("alice"))
	e.WriteName(chain.MustName("bob"))
	e.WriteUint8(1)
	e.WriteString("x")
	e.WriteUint32(7)
	if !bytes.Equal(got, e.Bytes()) {
		t.Errorf("full pack = %x, want %x", got, e.Bytes())
	}

	// optional nil, extension omitted
	got, err = a.PackActionData(chain.MustName("probe"),
		[]any{[]any{}, nil})
	if err != nil {
		t.Fatalf("PackActionData failed: %v", err)
	}

	e = NewEncoder()
	e.WriteVarUint32(0)
	e.WriteUint8(0)
	if !bytes.Equal(got, e.Bytes()) {
		t.Errorf("sparse pack = %x, want %x", got, e.Bytes())
	}
}

func TestPackStructRecursion(t *testing.T) {
	a := &ABI{
		Version: "eosio::abi/1.2",
		Structs: []StructDef{
			{
				Name: "key_weight",
				Fields: []Field{
					{Name: "key", Type: "public_key"},
					{Name: "weight", Type: "uint16"},
				},
			},
			{
				Name: "authority",
				Fields: []Field{
					{Name: "threshold", Type: "uint32"},
					{Name: "keys", Type: "key_weight[]"},
				},
			},
			{
				Name: "setauth",
				Fields: []Field{
					{Name: "account", Type: "name"},
					{Name: "auth", Type: "authority"},
				},
			},
		},
		Actions: []ActionDef{{Name: "setauth", Type: "setauth"}},
	}

	const pub = "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"

	got, err := a.PackActionData(chain.MustName("setauth"), []any{
		"alice",
		map[string]any{
			"threshold": 1,
			"keys": []any{
				map[string]any{"key": pub, "weight": 1},
			},
		},
	})
	if err != nil {
		t.Fatalf("PackActionData failed: %v", err)
	}

	parsed, err := chain.ParsePublicKey(pub)
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}

	e := NewEncoder()
	e.WriteName(chain.MustName("alice"))
	e.WriteUint32(1)
	e.WriteVarUint32(1)
	e.WritePublicKey(parsed)
	e.WriteUint16(1)
	if !bytes.Equal(got, e.Bytes()) {
		t.Errorf("pack = %x, want %x", got, e.Bytes())
	}
}

func TestPackABI(t *testing.T) {
	packed, err := tokenABI().Pack()
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	d := NewDecoder(packed)
	version, err := d.ReadString()
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != "eosio::abi/1.2" {
		t.Errorf("version = %q", version)
	}

	typeCount, err := d.ReadVarUint32()
	if err != nil || typeCount != 0 {
		t.Errorf("type count = %d, %v", typeCount, err)
	}
	structCount, err := d.ReadVarUint32()
	if err != nil || structCount != 2 {
		t.Errorf("struct count = %d, %v", structCount, err)
	}
}

func TestPackABIBadName(t *testing.T) {
	a := tokenABI()
	a.Actions = append(a.Actions, ActionDef{Name: "Transfer!", Type: "transfer"})
	if _, err := a.Pack(); err == nil {
		t.Error("Pack with invalid action name succeeded, want error")
	}

	a = tokenABI()
	a.Tables = []TableDef{{Name: "ACCOUNTS", IndexType: "i64", Type: "account"}}
	if _, err := a.Pack(); err == nil {
		t.Error("Pack with invalid table name succeeded, want error")
	}
}

func TestPackChecksumWantsHexString(t *testing.T) {
	a := &ABI{
		Version: "eosio::abi/1.2",
		Structs: []StructDef{
			{
				Name: "digests",
				Fields: []Field{
					{Name: "h160", Type: "checksum160"},
					{Name: "h512", Type: "checksum512"},
				},
			},
		},
		Actions: []ActionDef{{Name: "digests", Type: "digests"}},
	}

	if _, err := a.PackActionData(chain.MustName("digests"),
		[]any{42, strings.Repeat("ab", 64)}); err == nil {
		t.Error("non-string checksum160 succeeded, want error")
	}
	if _, err := a.PackActionData(chain.MustName("digests"),
		[]any{strings.Repeat("ab", 20), 42}); err == nil {
		t.Error("non-string checksum512 succeeded, want error")
	}
	if _, err := a.PackActionData(chain.MustName("digests"),
		[]any{strings.Repeat("ab", 20), strings.Repeat("ab", 64)}); err != nil {
		t.Errorf("valid checksums failed: %v", err)
	}
}

func TestPackTransaction(t *testing.T) {
	tx := &Transaction{
		Expiration:     "2024-03-01T12:15:00",
		RefBlockNum:    0x010a,
		RefBlockPrefix: 0x04030201,
		MaxCPUUsageMS:  255,
		Actions: []Action{
			{
				Account: chain.MustName("eosio.token"),
				Name:    chain.MustName("transfer"),
				Authorization: []PermissionLevel{
					{Actor: chain.MustName("alice"), Permission: chain.MustName("active")},
				},
				Data: []byte{0xde, 0xad},
			},
		},
	}

	packed, err := PackTransaction(tx)
	if err != nil {
		t.Fatalf("PackTransaction failed: %v", err)
	}

	d := NewDecoder(packed)
	if _, err := d.ReadUint32(); err != nil { // expiration
		t.Fatalf("read expiration: %v", err)
	}
	num, _ := d.ReadUint16()
	if num != 0x010a {
		t.Errorf("ref_block_num = %#x", num)
	}
	prefix, _ := d.ReadUint32()
	if prefix != 0x04030201 {
		t.Errorf("ref_block_prefix = %#x", prefix)
	}
	if words, _ := d.ReadVarUint32(); words != 0 {
		t.Errorf("max_net_usage_words = %d", words)
	}
	if cpu, _ := d.ReadUint8(); cpu != 255 {
		t.Errorf("max_cpu_usage_ms = %d", cpu)
	}
	if delay, _ := d.ReadVarUint32(); delay != 0 {
		t.Errorf("delay_sec = %d", delay)
	}
	if cfa, _ := d.ReadVarUint32(); cfa != 0 {
		t.Errorf("context_free_actions = %d", cfa)
	}
	actions, _ := d.ReadVarUint32()
	if actions != 1 {
		t.Fatalf("actions = %d", actions)
	}
	account, _ := d.ReadUint64()
	if chain.Name(account).String() != "eosio.token" {
		t.Errorf("account = %s", chain.Name(account))
	}

	if _, err := PackTransaction(&Transaction{Expiration: "bogus"}); err == nil {
		t.Error("PackTransaction with bad expiration succeeded, want error")
	}
}
