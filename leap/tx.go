package leap

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
)

// ActionReq is an action with not-yet-packed arguments. Args follow the
// forms abi.PackActionData accepts; RawData short-circuits packing when
// the caller already has wire bytes (setcode/setabi payloads).
type ActionReq struct {
	Account       chain.Name
	Name          chain.Name
	Args          any
	RawData       []byte
	Authorization []abi.PermissionLevel
}

// txConfig collects per-transaction tuning.
type txConfig struct {
	maxCPUUsageMS    uint8
	maxNetUsageWords uint32
	expiration       time.Duration
	retries          int
}

// TxOption tunes a single transaction push.
type TxOption func(*txConfig)

// WithMaxCPUUsageMS caps the transaction's CPU billing.
func WithMaxCPUUsageMS(ms uint8) TxOption {
	return func(cfg *txConfig) { cfg.maxCPUUsageMS = ms }
}

// WithMaxNetUsageWords caps the transaction's NET billing.
func WithMaxNetUsageWords(words uint32) TxOption {
	return func(cfg *txConfig) { cfg.maxNetUsageWords = words }
}

// WithExpiration sets how far in the future the transaction expires.
func WithExpiration(d time.Duration) TxOption {
	return func(cfg *txConfig) { cfg.expiration = d }
}

// WithTxRetries sets how many times a rejected transaction is rebuilt
// and re-pushed.
func WithTxRetries(n int) TxOption {
	return func(cfg *txConfig) { cfg.retries = n }
}

func defaultTxConfig() txConfig {
	return txConfig{
		maxCPUUsageMS: 255,
		expiration:    15 * time.Minute,
		retries:       2,
	}
}

// packActionReqs resolves each action's loaded ABI and packs its args.
func (c *Client) packActionReqs(reqs []ActionReq) ([]abi.Action, error) {
	actions := make([]abi.Action, 0, len(reqs))
	for _, req := range reqs {
		data := req.RawData
		if data == nil {
			contractABI, err := c.LoadedABI(req.Account)
			if err != nil {
				return nil, err
			}
			data, err = contractABI.PackActionData(req.Name, req.Args)
			if err != nil {
				return nil, fmt.Errorf("pack %s::%s: %w", req.Account, req.Name, err)
			}
		}
		actions = append(actions, abi.Action{
			Account:       req.Account,
			Name:          req.Name,
			Authorization: req.Authorization,
			Data:          data,
		})
	}
	return actions, nil
}

// pushTx builds, signs, and pushes a transaction carrying the given
// actions. Chain rejections rebuild with a fresh expiration and retry
// up to the configured limit; non-canonical signatures re-roll the
// digest as often as needed without spending that limit.
func (c *Client) pushTx(ctx context.Context, reqs []ActionReq, key *chain.PrivateKey, opts ...TxOption) (*PushResult, error) {
	cfg := defaultTxConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	actions, err := c.packActionReqs(reqs)
	if err != nil {
		return nil, err
	}

	info, err := c.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain info: %w", err)
	}

	refBlockNum, refBlockPrefix, err := chain.TaposFromBlockID(info.LastIrreversibleBlockID)
	if err != nil {
		return nil, fmt.Errorf("tapos: %w", err)
	}

	chainID, err := hex.DecodeString(info.ChainID)
	if err != nil {
		return nil, fmt.Errorf("decode chain id: %w", err)
	}

	var lastErr error
	signAttempt := 0
	for attempt := 0; attempt <= cfg.retries; attempt++ {
		// Non-canonical signatures are a coin flip per digest, not a node
		// problem, so re-signing bumps the expiration for a fresh digest
		// without consuming the rejection budget.
		var packed []byte
		var sig chain.Signature
		for {
			tx := &abi.Transaction{
				Expiration:       chain.FormatExpiration(time.Now(), cfg.expiration+time.Duration(signAttempt)*time.Second),
				RefBlockNum:      refBlockNum,
				RefBlockPrefix:   refBlockPrefix,
				MaxNetUsageWords: cfg.maxNetUsageWords,
				MaxCPUUsageMS:    cfg.maxCPUUsageMS,
				Actions:          actions,
			}
			signAttempt++

			packed, err = abi.PackTransaction(tx)
			if err != nil {
				return nil, fmt.Errorf("pack transaction: %w", err)
			}

			sig, err = chain.SignDigest(chain.SigningDigest(chainID, packed), key)
			if errors.Is(err, chain.ErrNonCanonicalSignature) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("sign transaction: %w", err)
			}
			break
		}

		body := map[string]any{
			"signatures":               []string{sig.String()},
			"compression":              0,
			"packed_context_free_data": "",
			"packed_trx":               hex.EncodeToString(packed),
		}

		c.logger.Debug("pushing tx", "endpoint", c.url, "actions", len(actions))

		var result PushResult
		err = c.post(ctx, "/v1/chain/push_transaction", body, &result)
		if err == nil {
			return &result, nil
		}

		lastErr = err

		var chainErr *ChainError
		if errors.As(err, &chainErr) {
			c.logger.Debug("tx rejected",
				"code", chainErr.Code,
				"name", chainErr.Name,
				"attempt", attempt,
			)
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("push transaction: %w", lastErr)
}

// PushAction signs and pushes a single action authored by actor@active
// using the actor's imported key.
func (c *Client) PushAction(ctx context.Context, account, action chain.Name, args any, actor chain.Name, opts ...TxOption) (*PushResult, error) {
	return c.PushActionWithPermission(ctx, account, action, args, actor, chain.MustName("active"), opts...)
}

// PushActionWithPermission is PushAction under an explicit permission.
func (c *Client) PushActionWithPermission(ctx context.Context, account, action chain.Name, args any, actor, permission chain.Name, opts ...TxOption) (*PushResult, error) {
	key, err := c.PrivateKeyFor(actor.String())
	if err != nil {
		return nil, err
	}

	return c.pushTx(ctx, []ActionReq{{
		Account: account,
		Name:    action,
		Args:    args,
		Authorization: []abi.PermissionLevel{
			{Actor: actor, Permission: permission},
		},
	}}, key, opts...)
}

// PushActions signs all actions with one key and pushes them in a single
// transaction.
func (c *Client) PushActions(ctx context.Context, key *chain.PrivateKey, reqs []ActionReq, opts ...TxOption) (*PushResult, error) {
	return c.pushTx(ctx, reqs, key, opts...)
}
