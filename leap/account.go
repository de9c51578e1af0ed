package leap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
	"github.com/shopspring/decimal"
)

var (
	eosioName  = chain.MustName("eosio")
	activeName = chain.MustName("active")
)

// AddPermission updates an account permission under the given parent.
func (c *Client) AddPermission(ctx context.Context, account chain.Name, permission, parent string, auth Authority) (*PushResult, error) {
	return c.PushAction(ctx, eosioName, chain.MustName("updateauth"),
		[]any{account, permission, parent, auth.asArgs()}, account)
}

// CreateAccount creates an unstaked account owned by owner. When pub is
// empty a fresh key pair is generated and imported for the new account.
func (c *Client) CreateAccount(ctx context.Context, owner, name chain.Name, pub string) (*PushResult, error) {
	pub, err := c.keyForNewAccount(name, pub)
	if err != nil {
		return nil, err
	}

	auth := soloKeyAuthority(pub).asArgs()
	res, err := c.PushAction(ctx, eosioName, chain.MustName("newaccount"),
		[]any{owner, name, auth, auth}, owner)
	if err != nil {
		return nil, fmt.Errorf("create account %s: %w", name, err)
	}
	return res, nil
}

// StakeConfig holds the resources bought for a staked account.
type StakeConfig struct {
	Net      chain.Asset
	CPU      chain.Asset
	RAMBytes uint32
	Pub      string
}

// DefaultStake returns the stake used when callers pass a zero config.
func DefaultStake() StakeConfig {
	return StakeConfig{
		Net:      chain.NewAsset(100000, DefaultSysTokenSymbol), // 10.0000
		CPU:      chain.NewAsset(100000, DefaultSysTokenSymbol),
		RAMBytes: 10_000_000,
	}
}

// CreateAccountStaked creates an account and buys it RAM, NET, and CPU
// in a single transaction.
func (c *Client) CreateAccountStaked(ctx context.Context, owner, name chain.Name, stake StakeConfig) (*PushResult, error) {
	def := DefaultStake()
	if stake.Net.Amount == 0 {
		stake.Net = def.Net
	}
	if stake.CPU.Amount == 0 {
		stake.CPU = def.CPU
	}
	if stake.RAMBytes == 0 {
		stake.RAMBytes = def.RAMBytes
	}

	pub, err := c.keyForNewAccount(name, stake.Pub)
	if err != nil {
		return nil, err
	}

	ownerKey, err := c.PrivateKeyFor(owner.String())
	if err != nil {
		return nil, err
	}

	auth := soloKeyAuthority(pub).asArgs()
	ownerAuth := []abi.PermissionLevel{{Actor: owner, Permission: activeName}}

	res, err := c.PushActions(ctx, ownerKey, []ActionReq{
		{
			Account:       eosioName,
			Name:          chain.MustName("newaccount"),
			Args:          []any{owner, name, auth, auth},
			Authorization: ownerAuth,
		},
		{
			Account:       eosioName,
			Name:          chain.MustName("buyrambytes"),
			Args:          []any{owner, name, stake.RAMBytes},
			Authorization: ownerAuth,
		},
		{
			Account:       eosioName,
			Name:          chain.MustName("delegatebw"),
			Args:          []any{owner, name, stake.Net, stake.CPU, true},
			Authorization: ownerAuth,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create staked account %s: %w", name, err)
	}
	return res, nil
}

// keyForNewAccount imports a fresh key or assigns an existing one, and
// returns the public key the new account will use.
func (c *Client) keyForNewAccount(name chain.Name, pub string) (string, error) {
	if pub == "" {
		priv, generated, err := chain.GenKeyPair()
		if err != nil {
			return "", err
		}
		if err := c.ImportKey(name.String(), priv); err != nil {
			return "", err
		}
		return generated, nil
	}
	if err := c.AssignKey(name.String(), pub); err != nil {
		return "", err
	}
	return pub, nil
}

// NewAccount creates a staked account under a random name (or the given
// one) owned by eosio and returns the name.
func (c *Client) NewAccount(ctx context.Context, name string) (chain.Name, error) {
	if name == "" {
		name = chain.RandomName()
	}
	account, err := chain.NewName(name)
	if err != nil {
		return 0, err
	}
	if _, err := c.CreateAccountStaked(ctx, eosioName, account, StakeConfig{}); err != nil {
		return 0, err
	}
	return account, nil
}

// BuyRAMBytes buys RAM for receiver, paid by payer. An empty receiver
// buys for the payer itself.
func (c *Client) BuyRAMBytes(ctx context.Context, payer chain.Name, amount uint32, receiver chain.Name) (*PushResult, error) {
	if receiver == 0 {
		receiver = payer
	}
	return c.PushAction(ctx, eosioName, chain.MustName("buyrambytes"),
		[]any{payer, receiver, amount}, payer)
}

// DelegateBandwidth stakes NET and CPU from one account to another.
func (c *Client) DelegateBandwidth(ctx context.Context, from, to chain.Name, net, cpu chain.Asset, transfer bool) (*PushResult, error) {
	return c.PushAction(ctx, eosioName, chain.MustName("delegatebw"),
		[]any{from, to, net, cpu, transfer}, from)
}

// REXDeposit moves core tokens into the REX fund.
func (c *Client) REXDeposit(ctx context.Context, owner chain.Name, quantity chain.Asset) (*PushResult, error) {
	return c.PushAction(ctx, eosioName, chain.MustName("deposit"),
		[]any{owner, quantity}, owner)
}

// REXBuy buys REX with funds previously deposited.
func (c *Client) REXBuy(ctx context.Context, from chain.Name, quantity chain.Asset) (*PushResult, error) {
	return c.PushAction(ctx, eosioName, chain.MustName("buyrex"),
		[]any{from, quantity}, from)
}

// RegisterProducer registers an account as a block producer using its
// imported public key.
func (c *Client) RegisterProducer(ctx context.Context, producer chain.Name, url string, location uint16) (*PushResult, error) {
	pub, err := c.PublicKeyFor(producer.String())
	if err != nil {
		return nil, err
	}
	return c.PushAction(ctx, eosioName, chain.MustName("regproducer"),
		[]any{producer, pub, url, location}, producer)
}

// VoteProducers votes for up to 30 producers, or delegates to a proxy.
func (c *Client) VoteProducers(ctx context.Context, voter, proxy chain.Name, producers []chain.Name) (*PushResult, error) {
	names := make([]any, len(producers))
	for i, p := range producers {
		names[i] = p
	}
	return c.PushAction(ctx, eosioName, chain.MustName("voteproducer"),
		[]any{voter, proxy, names}, voter)
}

// ClaimRewards claims producer pay.
func (c *Client) ClaimRewards(ctx context.Context, owner chain.Name) (*PushResult, error) {
	return c.PushAction(ctx, eosioName, chain.MustName("claimrewards"),
		[]any{owner}, owner)
}

// GetResources fetches an account's userres rows.
func (c *Client) GetResources(ctx context.Context, account chain.Name) ([]json.RawMessage, error) {
	return c.GetTable(ctx, TableQuery{
		Code:  "eosio",
		Scope: account.String(),
		Table: "userres",
	})
}

// GetGlobalState fetches the eosio global table row.
func (c *Client) GetGlobalState(ctx context.Context) (json.RawMessage, error) {
	rows, err := c.GetTable(ctx, TableQuery{Code: "eosio", Scope: "eosio", Table: "global"})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("global table is empty")
	}
	return rows[0], nil
}

// GetProducers fetches every producers table row.
func (c *Client) GetProducers(ctx context.Context) ([]json.RawMessage, error) {
	return c.GetTable(ctx, TableQuery{Code: "eosio", Scope: "eosio", Table: "producers"})
}

// GetProducer fetches one producer's row, nil when not registered.
func (c *Client) GetProducer(ctx context.Context, producer chain.Name) (json.RawMessage, error) {
	rows, err := c.GetTable(ctx, TableQuery{
		Code:       "eosio",
		Scope:      "eosio",
		Table:      "producers",
		KeyType:    "name",
		LowerBound: producer.String(),
		UpperBound: producer.String(),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetSchedule fetches the current producer schedule.
func (c *Client) GetSchedule(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, "/v1/chain/get_producer_schedule", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPayrate fetches the payrate table row, nil when unset.
func (c *Client) GetPayrate(ctx context.Context) (json.RawMessage, error) {
	rows, err := c.GetTable(ctx, TableQuery{Code: "eosio", Scope: "eosio", Table: "payrate"})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetRAMPrice computes the current price of 1 KiB of RAM from the
// rammarket bancor balances, in system tokens including the 0.5% fee.
func (c *Client) GetRAMPrice(ctx context.Context) (chain.Asset, error) {
	var rows []struct {
		Quote struct {
			Balance string `json:"balance"`
		} `json:"quote"`
		Base struct {
			Balance string `json:"balance"`
		} `json:"base"`
	}
	err := c.getTableInto(ctx, TableQuery{Code: "eosio", Scope: "eosio", Table: "rammarket"}, &rows)
	if err != nil {
		return chain.Asset{}, err
	}
	if len(rows) == 0 {
		return chain.Asset{}, fmt.Errorf("rammarket table is empty")
	}

	quote, err := chain.ParseAsset(rows[0].Quote.Balance)
	if err != nil {
		return chain.Asset{}, fmt.Errorf("parse quote balance: %w", err)
	}
	base, err := chain.ParseAsset(rows[0].Base.Balance)
	if err != nil {
		return chain.Asset{}, fmt.Errorf("parse base balance: %w", err)
	}

	sym := c.SysTokenSupply().Symbol
	price := decimal.NewFromInt(quote.Amount).
		Div(decimal.NewFromInt(base.Amount)).
		Mul(decimal.NewFromInt(1024)).
		Div(decimal.NewFromFloat(0.995))

	amount := price.Truncate(0).Mul(decimal.New(1, int32(sym.Precision)))
	return chain.NewAsset(amount.IntPart(), sym), nil
}
