package abi

import (
	"fmt"

	"github.com/guilledk/go-leap/chain"
)

// PermissionLevel is an actor@permission authorization.
type PermissionLevel struct {
	Actor      chain.Name `json:"actor"`
	Permission chain.Name `json:"permission"`
}

// Action is a contract action with already-packed argument data.
type Action struct {
	Account       chain.Name        `json:"account"`
	Name          chain.Name        `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          []byte            `json:"data"`
}

// Transaction is the signable transaction body.
type Transaction struct {
	Expiration         string   `json:"expiration"`
	RefBlockNum        uint16   `json:"ref_block_num"`
	RefBlockPrefix     uint32   `json:"ref_block_prefix"`
	MaxNetUsageWords   uint32   `json:"max_net_usage_words"`
	MaxCPUUsageMS      uint8    `json:"max_cpu_usage_ms"`
	DelaySec           uint32   `json:"delay_sec"`
	ContextFreeActions []Action `json:"context_free_actions"`
	Actions            []Action `json:"actions"`
}

// PackTransaction serializes a transaction to the bytes hashed for signing
// and submitted as packed_trx.
func PackTransaction(tx *Transaction) ([]byte, error) {
	expiration, err := chain.ParseTime(tx.Expiration)
	if err != nil {
		return nil, fmt.Errorf("parse expiration: %w", err)
	}

	e := NewEncoder()
	e.WriteTimePointSec(expiration)
	e.WriteUint16(tx.RefBlockNum)
	e.WriteUint32(tx.RefBlockPrefix)
	e.WriteVarUint32(tx.MaxNetUsageWords)
	e.WriteUint8(tx.MaxCPUUsageMS)
	e.WriteVarUint32(tx.DelaySec)

	packActions(e, tx.ContextFreeActions)
	packActions(e, tx.Actions)

	// transaction_extensions
	e.WriteVarUint32(0)

	return e.Bytes(), nil
}

func packActions(e *Encoder, actions []Action) {
	e.WriteVarUint32(uint32(len(actions)))
	for _, act := range actions {
		e.WriteName(act.Account)
		e.WriteName(act.Name)
		e.WriteVarUint32(uint32(len(act.Authorization)))
		for _, auth := range act.Authorization {
			e.WriteName(auth.Actor)
			e.WriteName(auth.Permission)
		}
		e.WriteBytes(act.Data)
	}
}
