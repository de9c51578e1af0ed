package leap

import (
	"context"
	"fmt"

	"github.com/guilledk/go-leap/chain"
)

var tokenContract = chain.MustName("eosio.token")

// CreateToken creates a currency on the token contract.
func (c *Client) CreateToken(ctx context.Context, issuer chain.Name, maxSupply chain.Asset) (*PushResult, error) {
	return c.PushAction(ctx, tokenContract, chain.MustName("create"),
		[]any{issuer, maxSupply}, tokenContract)
}

// IssueToken issues tokens to the issuer's own balance.
func (c *Client) IssueToken(ctx context.Context, issuer chain.Name, quantity chain.Asset, memo string) (*PushResult, error) {
	return c.PushAction(ctx, tokenContract, chain.MustName("issue"),
		[]any{issuer, quantity, memo}, issuer)
}

// TransferToken moves tokens between accounts.
func (c *Client) TransferToken(ctx context.Context, from, to chain.Name, quantity chain.Asset, memo string) (*PushResult, error) {
	return c.PushAction(ctx, tokenContract, chain.MustName("transfer"),
		[]any{from, to, quantity, memo}, from)
}

// GiveToken transfers system tokens from eosio to an account.
func (c *Client) GiveToken(ctx context.Context, to chain.Name, quantity chain.Asset, memo string) (*PushResult, error) {
	return c.TransferToken(ctx, eosioName, to, quantity, memo)
}

// RetireToken burns tokens from the issuer's balance.
func (c *Client) RetireToken(ctx context.Context, issuer chain.Name, quantity chain.Asset, memo string) (*PushResult, error) {
	return c.PushAction(ctx, tokenContract, chain.MustName("retire"),
		[]any{quantity, memo}, issuer)
}

// OpenToken opens a zero balance row for owner, paid by payer.
func (c *Client) OpenToken(ctx context.Context, owner chain.Name, sym chain.Symbol, payer chain.Name) (*PushResult, error) {
	return c.PushAction(ctx, tokenContract, chain.MustName("open"),
		[]any{owner, sym, payer}, payer)
}

// CloseToken deletes owner's zero balance row.
func (c *Client) CloseToken(ctx context.Context, owner chain.Name, sym chain.Symbol) (*PushResult, error) {
	return c.PushAction(ctx, tokenContract, chain.MustName("close"),
		[]any{owner, sym}, owner)
}

// GetBalance returns an account's token balance, nil when the account
// holds no row for the symbol.
func (c *Client) GetBalance(ctx context.Context, account chain.Name, sym chain.Symbol) (*chain.Asset, error) {
	var balances []string
	err := c.post(ctx, "/v1/chain/get_currency_balance", map[string]any{
		"code":    tokenContract.String(),
		"account": account.String(),
		"symbol":  sym.Code,
	}, &balances)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		return nil, nil
	}

	asset, err := chain.ParseAsset(balances[0])
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balances[0], err)
	}
	return &asset, nil
}

// GetTokenStats fetches the stat row for a symbol.
func (c *Client) GetTokenStats(ctx context.Context, sym chain.Symbol) (*TokenStats, error) {
	var stats map[string]TokenStats
	err := c.post(ctx, "/v1/chain/get_currency_stats", map[string]any{
		"code":   tokenContract.String(),
		"symbol": sym.Code,
	}, &stats)
	if err != nil {
		return nil, err
	}

	row, ok := stats[sym.Code]
	if !ok {
		return nil, fmt.Errorf("no stats for symbol %s", sym.Code)
	}
	return &row, nil
}

// InitSysToken creates and issues the system token supply. Calling it
// again is a no-op; it is safe from concurrent goroutines.
func (c *Client) InitSysToken(ctx context.Context) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.sysTokenInit {
		return nil
	}

	sym := DefaultSysTokenSymbol
	maxSupply := chain.NewAsset(420_000_000*pow10(sym.Precision), sym)

	if _, err := c.CreateToken(ctx, eosioName, maxSupply); err != nil {
		return fmt.Errorf("create system token: %w", err)
	}
	if _, err := c.IssueToken(ctx, eosioName, maxSupply, "init"); err != nil {
		return fmt.Errorf("issue system token: %w", err)
	}

	c.mu.Lock()
	c.sysTokenSupply = maxSupply
	c.mu.Unlock()
	c.sysTokenInit = true
	c.logger.Info("system token initialized", "supply", maxSupply.String())
	return nil
}

// SysTokenSupply returns the supply issued by InitSysToken, a zero
// amount of the default symbol before initialization.
func (c *Client) SysTokenSupply() chain.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sysTokenSupply
}

func pow10(n uint8) int64 {
	v := int64(1)
	for i := uint8(0); i < n; i++ {
		v *= 10
	}
	return v
}
