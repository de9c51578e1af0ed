package leap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
)

// DeployError reports a deployed contract whose code hash does not match
// the one published on the remote chain.
type DeployError struct {
	Account    chain.Name
	LocalHash  string
	RemoteHash string
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("contract %s hash mismatch: local %s remote %s",
		e.Account, e.LocalHash, e.RemoteHash)
}

// DeployOptions tunes DeployContract.
type DeployOptions struct {
	// CreateAccount creates the contract account before deploying.
	CreateAccount bool
	// StakedDeploy creates the account with staked resources instead of
	// unlimited eosio-owned ones.
	StakedDeploy bool
	// Privileged marks the account privileged after deploying.
	Privileged bool
	// VerifyHash checks the local code hash against the remote chain.
	VerifyHash bool
}

// DeployContract publishes WASM and ABI to an account in one transaction
// and registers the ABI for subsequent action packing.
func (c *Client) DeployContract(ctx context.Context, account chain.Name, wasm []byte, contractABI *abi.ABI, opts DeployOptions) (*PushResult, error) {
	if opts.CreateAccount {
		var err error
		if opts.StakedDeploy {
			_, err = c.CreateAccountStaked(ctx, eosioName, account, StakeConfig{})
		} else {
			_, err = c.CreateAccount(ctx, eosioName, account, "")
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.Privileged {
		if _, err := c.SetPrivileged(ctx, account); err != nil {
			return nil, err
		}
	}

	// give the contract authority to author inline actions
	pub, err := c.PublicKeyFor(account.String())
	if err != nil {
		return nil, err
	}
	codeAuth := soloKeyAuthority(pub)
	codeAuth.Accounts = []PermissionWeight{{
		Actor:      account.String(),
		Permission: "eosio.code",
		Weight:     1,
	}}
	if _, err := c.AddPermission(ctx, account, "active", "owner", codeAuth); err != nil {
		return nil, fmt.Errorf("grant eosio.code to %s: %w", account, err)
	}

	sum := sha256.Sum256(wasm)
	localHash := hex.EncodeToString(sum[:])
	c.logger.Info("deploying contract",
		"account", account.String(),
		"hash", localHash,
		"wasm_bytes", len(wasm),
	)

	if opts.VerifyHash {
		remoteHash, _, err := c.GetCode(ctx, account, c.remoteURL)
		if err != nil {
			return nil, fmt.Errorf("fetch remote code hash: %w", err)
		}
		if remoteHash != localHash {
			return nil, &DeployError{Account: account, LocalHash: localHash, RemoteHash: remoteHash}
		}
	}

	abiBytes, err := contractABI.Pack()
	if err != nil {
		return nil, fmt.Errorf("pack abi for %s: %w", account, err)
	}

	key, err := c.PrivateKeyFor(account.String())
	if err != nil {
		return nil, err
	}

	auth := []abi.PermissionLevel{{Actor: account, Permission: activeName}}
	res, err := c.PushActions(ctx, key, []ActionReq{
		{
			Account:       eosioName,
			Name:          chain.MustName("setcode"),
			Args:          []any{account, uint8(0), uint8(0), wasm},
			Authorization: auth,
		},
		{
			Account:       eosioName,
			Name:          chain.MustName("setabi"),
			Args:          []any{account, abiBytes},
			Authorization: auth,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", account, err)
	}

	c.LoadABI(account, contractABI)
	return res, nil
}

// DeployContractFromPath deploys <dir>/<base>.wasm and <dir>/<base>.abi
// where base is the directory name.
func (c *Client) DeployContractFromPath(ctx context.Context, account chain.Name, dir string, opts DeployOptions) (*PushResult, error) {
	base := filepath.Base(dir)

	wasm, err := os.ReadFile(filepath.Join(dir, base+".wasm"))
	if err != nil {
		return nil, fmt.Errorf("read wasm: %w", err)
	}

	contractABI, err := LoadABIFile(filepath.Join(dir, base+".abi"))
	if err != nil {
		return nil, err
	}

	return c.DeployContract(ctx, account, wasm, contractABI, opts)
}

// DownloadContract fetches an account's code and ABI from target and
// writes <name>.wasm and <name>.abi under dir.
func (c *Client) DownloadContract(ctx context.Context, account chain.Name, target, dir string) error {
	_, wasm, err := c.GetCode(ctx, account, target)
	if err != nil {
		return err
	}

	contractABI, err := c.GetABI(ctx, account, target)
	if err != nil {
		return err
	}
	abiJSON, err := json.MarshalIndent(contractABI, "", "    ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	name := account.String()
	if err := os.WriteFile(filepath.Join(dir, name+".wasm"), wasm, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".abi"), abiJSON, 0o644)
}

// LoadABIFile parses an ABI JSON file.
func LoadABIFile(path string) (*abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abi: %w", err)
	}
	parsed, err := abi.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", path, err)
	}
	return parsed, nil
}

// SetPrivileged flips an account's privileged flag on.
func (c *Client) SetPrivileged(ctx context.Context, account chain.Name) (*PushResult, error) {
	return c.PushAction(ctx, eosioName, chain.MustName("setpriv"),
		[]any{account, uint8(1)}, eosioName)
}
