// Package abi implements the Antelope ABI document model and the binary
// serialization used for action data, ABI definitions, and transactions.
package abi

import (
	"encoding/json"
	"fmt"

	"github.com/guilledk/go-leap/chain"
)

// ABI describes a contract's types, actions, and tables. It mirrors the
// JSON .abi files produced by the contract toolchain.
type ABI struct {
	Version          string         `json:"version"`
	Types            []TypeDef      `json:"types"`
	Structs          []StructDef    `json:"structs"`
	Actions          []ActionDef    `json:"actions"`
	Tables           []TableDef     `json:"tables"`
	RicardianClauses []ClausePair   `json:"ricardian_clauses,omitempty"`
	ErrorMessages    []ErrorMessage `json:"error_messages,omitempty"`
	Variants         []VariantDef   `json:"variants,omitempty"`
}

// TypeDef aliases an existing type under a new name.
type TypeDef struct {
	NewTypeName string `json:"new_type_name"`
	Type        string `json:"type"`
}

// Field is a single struct member.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StructDef describes a serializable struct, optionally extending a base.
type StructDef struct {
	Name   string  `json:"name"`
	Base   string  `json:"base"`
	Fields []Field `json:"fields"`
}

// ActionDef binds an action name to the struct describing its arguments.
type ActionDef struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	RicardianContract string `json:"ricardian_contract"`
}

// TableDef describes a contract table.
type TableDef struct {
	Name      string   `json:"name"`
	IndexType string   `json:"index_type"`
	KeyNames  []string `json:"key_names"`
	KeyTypes  []string `json:"key_types"`
	Type      string   `json:"type"`
}

// ClausePair is a ricardian clause.
type ClausePair struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// ErrorMessage maps an on-chain error code to text.
type ErrorMessage struct {
	ErrorCode uint64 `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// VariantDef is a tagged union of types.
type VariantDef struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// Parse decodes an ABI from its JSON form.
func Parse(data []byte) (*ABI, error) {
	var a ABI
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse abi json: %w", err)
	}
	return &a, nil
}

// ResolveType follows typedefs until it reaches a concrete type name.
func (a *ABI) ResolveType(name string) string {
	for depth := 0; depth < 16; depth++ {
		resolved := false
		for _, td := range a.Types {
			if td.NewTypeName == name {
				name = td.Type
				resolved = true
				break
			}
		}
		if !resolved {
			return name
		}
	}
	return name
}

// StructFor returns the struct definition for a type name, nil if absent.
func (a *ABI) StructFor(name string) *StructDef {
	for i := range a.Structs {
		if a.Structs[i].Name == name {
			return &a.Structs[i]
		}
	}
	return nil
}

// VariantFor returns the variant definition for a type name, nil if absent.
func (a *ABI) VariantFor(name string) *VariantDef {
	for i := range a.Variants {
		if a.Variants[i].Name == name {
			return &a.Variants[i]
		}
	}
	return nil
}

// ActionStruct returns the struct describing an action's arguments.
func (a *ABI) ActionStruct(action chain.Name) (*StructDef, error) {
	name := action.String()
	for _, ad := range a.Actions {
		if ad.Name == name {
			s := a.StructFor(a.ResolveType(ad.Type))
			if s == nil {
				return nil, fmt.Errorf("abi action %s references unknown struct %q", name, ad.Type)
			}
			return s, nil
		}
	}
	// Fall back to a struct with the action's own name, matching how the
	// toolchain emits most contracts.
	if s := a.StructFor(name); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("abi has no action %s", name)
}

// structFields returns a struct's fields with base struct fields first.
func (a *ABI) structFields(s *StructDef) ([]Field, error) {
	if s.Base == "" {
		return s.Fields, nil
	}
	base := a.StructFor(a.ResolveType(s.Base))
	if base == nil {
		return nil, fmt.Errorf("abi struct %s has unknown base %q", s.Name, s.Base)
	}
	baseFields, err := a.structFields(base)
	if err != nil {
		return nil, err
	}
	return append(append([]Field{}, baseFields...), s.Fields...), nil
}
