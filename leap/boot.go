package leap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
)

var chainActivate = chain.MustName("activate")

// BootConfig tunes BootSequence.
type BootConfig struct {
	// ContractsDir holds one subdirectory per contract, each with
	// <name>.wasm and <name>.abi inside.
	ContractsDir string
	// RAMAmount is the initial system RAM, 16 GB when zero.
	RAMAmount uint64
	// ActivationsNode is the endpoint whose protocol feature activations
	// are cloned; the client's remote endpoint when empty.
	ActivationsNode string
	// VerifyHash checks each deployed contract against the remote chain.
	VerifyHash bool
	// Telos also sets up telos.decide and exrsrv.tf.
	Telos bool
}

// systemAccounts are created before any contract deploys.
var systemAccounts = []string{
	"eosio.bpay",
	"eosio.names",
	"eosio.ram",
	"eosio.ramfee",
	"eosio.saving",
	"eosio.stake",
	"eosio.vpay",
	"eosio.rex",

	"eosio.tedp",
	"works.decide",
	"amend.decide",
}

// BootSequence takes a freshly started producer node to a fully working
// chain: system accounts, token/msig/wrap contracts, system token supply,
// protocol feature activations cloned from a reference node, and the
// system contract initialized.
func (c *Client) BootSequence(ctx context.Context, cfg BootConfig) error {
	if cfg.ContractsDir == "" {
		cfg.ContractsDir = "tests/contracts"
	}
	if cfg.RAMAmount == 0 {
		cfg.RAMAmount = 16_000_000_000
	}
	if cfg.ActivationsNode == "" {
		cfg.ActivationsNode = c.remoteURL
	}

	contractPath := func(name string) string {
		return filepath.Join(cfg.ContractsDir, name)
	}

	for _, name := range systemAccounts {
		account := chain.MustName(name)
		if _, err := c.CreateAccount(ctx, eosioName, account, ""); err != nil {
			return fmt.Errorf("boot: %w", err)
		}
	}

	deploy := func(account, contract string, create bool) error {
		_, err := c.DeployContractFromPath(ctx, chain.MustName(account), contractPath(contract), DeployOptions{
			CreateAccount: create,
			VerifyHash:    cfg.VerifyHash,
		})
		if err != nil {
			return fmt.Errorf("boot: deploy %s: %w", contract, err)
		}
		return nil
	}

	if err := deploy("eosio.token", "eosio.token", true); err != nil {
		return err
	}
	if err := deploy("eosio.msig", "eosio.msig", true); err != nil {
		return err
	}
	if err := deploy("eosio.wrap", "eosio.wrap", true); err != nil {
		return err
	}

	if err := c.InitSysToken(ctx); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	if err := c.ActivateFeatureV1(ctx, "PREACTIVATE_FEATURE"); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	if err := deploy("eosio", "eosio.bios", false); err != nil {
		return err
	}

	if err := c.CloneNodeActivations(ctx, cfg.ActivationsNode); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	if err := deploy("eosio", "eosio.system", false); err != nil {
		return err
	}

	for _, priv := range []string{"eosio.msig", "eosio.wrap"} {
		if _, err := c.SetPrivileged(ctx, chain.MustName(priv)); err != nil {
			return fmt.Errorf("boot: setpriv %s: %w", priv, err)
		}
	}

	if _, err := c.PushAction(ctx, eosioName, chain.MustName("init"),
		[]any{uint64(0), DefaultSysTokenSymbol}, eosioName); err != nil {
		return fmt.Errorf("boot: init system contract: %w", err)
	}

	if _, err := c.PushAction(ctx, eosioName, chain.MustName("setram"),
		[]any{cfg.RAMAmount}, eosioName); err != nil {
		return fmt.Errorf("boot: setram: %w", err)
	}

	if cfg.Telos {
		decide := chain.MustName("telos.decide")
		if _, err := c.CreateAccountStaked(ctx, eosioName, decide, StakeConfig{RAMBytes: 4_475_000}); err != nil {
			return fmt.Errorf("boot: %w", err)
		}
		if err := deploy("telos.decide", "telos.decide", false); err != nil {
			return err
		}
		if _, err := c.CreateAccountStaked(ctx, eosioName, chain.MustName("exrsrv.tf"), StakeConfig{}); err != nil {
			return fmt.Errorf("boot: %w", err)
		}
	}

	c.logger.Info("boot sequence complete", "endpoint", c.url)
	return nil
}

// CloneNodeActivations activates on this chain every protocol feature the
// target node has active, in activation order and in one transaction.
func (c *Client) CloneNodeActivations(ctx context.Context, target string) error {
	features, err := c.GetActivatedProtocolFeatures(ctx, target)
	if err != nil {
		return err
	}

	names := make([]string, len(features))
	reqs := make([]ActionReq, len(features))
	for i, f := range features {
		names[i] = f.SpecName()
		reqs[i] = ActionReq{
			Account: eosioName,
			Name:    chainActivate,
			Args:    []any{f.FeatureDigest},
			Authorization: []abi.PermissionLevel{
				{Actor: eosioName, Permission: activeName},
			},
		}
	}

	c.logger.Info("activating features", "count", len(names), "features", names)

	key, err := c.PrivateKeyFor("eosio")
	if err != nil {
		return err
	}
	if _, err := c.PushActions(ctx, key, reqs); err != nil {
		return fmt.Errorf("activate features: %w", err)
	}

	c.logger.Info("features activated")
	return nil
}

// DiffProtocolActivations returns the feature names active on nodeA but
// not on nodeB.
func (c *Client) DiffProtocolActivations(ctx context.Context, nodeA, nodeB string) ([]string, error) {
	featuresA, err := c.GetActivatedProtocolFeatures(ctx, nodeA)
	if err != nil {
		return nil, err
	}
	featuresB, err := c.GetActivatedProtocolFeatures(ctx, nodeB)
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool, len(featuresB))
	for _, f := range featuresB {
		active[f.SpecName()] = true
	}

	var diff []string
	for _, f := range featuresA {
		if !active[f.SpecName()] {
			diff = append(diff, f.SpecName())
		}
	}
	return diff, nil
}
