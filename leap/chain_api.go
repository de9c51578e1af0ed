package leap

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
)

// GetInfo fetches chain statistics from the node.
func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.get(ctx, "/v1/chain/get_info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetTableRows fetches a single page of table rows.
func (c *Client) GetTableRows(ctx context.Context, q TableQuery) (*TableRows, error) {
	q.JSON = true
	var page TableRows
	if err := c.post(ctx, "/v1/chain/get_table_rows", q, &page); err != nil {
		return nil, fmt.Errorf("get_table_rows %s %s %s: %w", q.Code, q.Scope, q.Table, err)
	}
	return &page, nil
}

// GetTable fetches all rows matching a query, following pagination.
func (c *Client) GetTable(ctx context.Context, q TableQuery) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	for {
		page, err := c.GetTableRows(ctx, q)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page.Rows...)
		if !page.More {
			return rows, nil
		}
		q.LowerBound = page.NextKey
	}
}

// getTableInto unmarshals all rows of a query into out (pointer to slice).
func (c *Client) getTableInto(ctx context.Context, q TableQuery, out any) error {
	rows, err := c.GetTable(ctx, q)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// GetABI fetches a contract's ABI from the node (or the remote endpoint
// when target is non-empty).
func (c *Client) GetABI(ctx context.Context, account chain.Name, target string) (*abi.ABI, error) {
	if target == "" {
		target = c.url
	}

	var resp struct {
		ABI *abi.ABI `json:"abi"`
	}
	err := c.postTo(ctx, target, "/v1/chain/get_abi",
		map[string]any{"account_name": account.String()}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ABI == nil {
		return nil, fmt.Errorf("account %s has no abi", account)
	}
	return resp.ABI, nil
}

// GetCode fetches an account's WASM and returns its sha256 hex digest
// alongside the raw bytes.
func (c *Client) GetCode(ctx context.Context, account chain.Name, target string) (string, []byte, error) {
	if target == "" {
		target = c.url
	}

	var resp struct {
		WASM string `json:"wasm"`
	}
	err := c.postTo(ctx, target, "/v1/chain/get_raw_code_and_abi",
		map[string]any{"account_name": account.String()}, &resp)
	if err != nil {
		return "", nil, err
	}

	wasm, err := base64.StdEncoding.DecodeString(resp.WASM)
	if err != nil {
		return "", nil, fmt.Errorf("decode wasm: %w", err)
	}

	sum := sha256.Sum256(wasm)
	return hex.EncodeToString(sum[:]), wasm, nil
}

// GetActivatedProtocolFeatures fetches every activated protocol feature
// from target (the node itself when empty), sorted by activation order
// and with PREACTIVATE_FEATURE dropped.
func (c *Client) GetActivatedProtocolFeatures(ctx context.Context, target string) ([]ProtocolFeature, error) {
	if target == "" {
		target = c.url
	}

	const step = 250
	lowerBound := 0
	var features []ProtocolFeature

	for {
		var resp struct {
			ActivatedProtocolFeatures []ProtocolFeature `json:"activated_protocol_features"`
			More                      *int              `json:"more"`
		}
		err := c.postTo(ctx, target, "/v1/chain/get_activated_protocol_features",
			map[string]any{
				"limit":       step,
				"lower_bound": lowerBound,
				"upper_bound": lowerBound + step,
			}, &resp)
		if err != nil {
			return nil, err
		}

		features = append(features, resp.ActivatedProtocolFeatures...)
		if resp.More == nil {
			break
		}
		lowerBound += step
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].ActivationOrdinal < features[j].ActivationOrdinal
	})

	// drop PREACTIVATE_FEATURE, always ordinal 0
	if len(features) > 0 {
		features = features[1:]
	}
	return features, nil
}

// WaitBlocks blocks until the chain head advances n blocks.
func (c *Client) WaitBlocks(ctx context.Context, n uint32) error {
	info, err := c.GetInfo(ctx)
	if err != nil {
		return err
	}
	target := info.HeadBlockNum + n

	for {
		info, err := c.GetInfo(ctx)
		if err != nil {
			return err
		}
		if info.HeadBlockNum >= target {
			return nil
		}

		remaining := target - info.HeadBlockNum
		wait := time.Duration(remaining) * 500 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
