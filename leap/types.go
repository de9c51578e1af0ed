package leap

import "encoding/json"

// Info is the response of /v1/chain/get_info.
type Info struct {
	ServerVersion            string `json:"server_version"`
	ChainID                  string `json:"chain_id"`
	HeadBlockNum             uint32 `json:"head_block_num"`
	LastIrreversibleBlockNum uint32 `json:"last_irreversible_block_num"`
	LastIrreversibleBlockID  string `json:"last_irreversible_block_id"`
	HeadBlockID              string `json:"head_block_id"`
	HeadBlockTime            string `json:"head_block_time"`
	HeadBlockProducer        string `json:"head_block_producer"`
	VirtualBlockCPULimit     uint64 `json:"virtual_block_cpu_limit"`
	VirtualBlockNetLimit     uint64 `json:"virtual_block_net_limit"`
	ServerVersionString      string `json:"server_version_string"`
}

// TableQuery selects rows from a contract table. Code, Scope, and Table
// are required; the rest narrow or page the scan.
type TableQuery struct {
	Code          string `json:"code"`
	Scope         string `json:"scope"`
	Table         string `json:"table"`
	JSON          bool   `json:"json"`
	LowerBound    string `json:"lower_bound,omitempty"`
	UpperBound    string `json:"upper_bound,omitempty"`
	IndexPosition string `json:"index_position,omitempty"`
	KeyType       string `json:"key_type,omitempty"`
	Limit         uint32 `json:"limit,omitempty"`
}

// TableRows is one page of get_table_rows results.
type TableRows struct {
	Rows    []json.RawMessage `json:"rows"`
	More    bool              `json:"more"`
	NextKey string            `json:"next_key"`
}

// ProtocolFeature describes an activated or supported protocol feature.
type ProtocolFeature struct {
	FeatureDigest      string `json:"feature_digest"`
	ActivationOrdinal  int    `json:"activation_ordinal"`
	ActivationBlockNum uint32 `json:"activation_block_num"`
	DescriptionDigest  string `json:"description_digest"`
	Specification      []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"specification"`
}

// SpecName returns the feature's human name from its specification entry.
func (f ProtocolFeature) SpecName() string {
	if len(f.Specification) == 0 {
		return ""
	}
	return f.Specification[0].Value
}

// PushResult is the response of a successful push_transaction.
type PushResult struct {
	TransactionID string          `json:"transaction_id"`
	Processed     json.RawMessage `json:"processed"`
}

// TokenStats is a row of a token contract's stat table.
type TokenStats struct {
	Supply    string `json:"supply"`
	MaxSupply string `json:"max_supply"`
	Issuer    string `json:"issuer"`
}

// Authority is a permission authority in JSON API form. The abi package
// packs it via the system ABI's authority struct from map form; this
// type builds those maps.
type Authority struct {
	Threshold uint32
	Keys      []KeyWeight
	Accounts  []PermissionWeight
	Waits     []WaitWeight
}

// KeyWeight pairs a public key with a weight.
type KeyWeight struct {
	Key    string
	Weight uint16
}

// PermissionWeight pairs an actor@permission with a weight.
type PermissionWeight struct {
	Actor      string
	Permission string
	Weight     uint16
}

// WaitWeight pairs a delay with a weight.
type WaitWeight struct {
	WaitSec uint32
	Weight  uint16
}

// asArgs renders the authority as the map form the ABI packer consumes.
func (a Authority) asArgs() map[string]any {
	keys := make([]any, len(a.Keys))
	for i, k := range a.Keys {
		keys[i] = map[string]any{"key": k.Key, "weight": k.Weight}
	}
	accounts := make([]any, len(a.Accounts))
	for i, p := range a.Accounts {
		accounts[i] = map[string]any{
			"permission": map[string]any{"actor": p.Actor, "permission": p.Permission},
			"weight":     p.Weight,
		}
	}
	waits := make([]any, len(a.Waits))
	for i, w := range a.Waits {
		waits[i] = map[string]any{"wait_sec": w.WaitSec, "weight": w.Weight}
	}
	return map[string]any{
		"threshold": a.Threshold,
		"keys":      keys,
		"accounts":  accounts,
		"waits":     waits,
	}
}

// soloKeyAuthority is the single-key threshold-1 authority used for new
// accounts.
func soloKeyAuthority(pub string) Authority {
	return Authority{
		Threshold: 1,
		Keys:      []KeyWeight{{Key: pub, Weight: 1}},
	}
}
