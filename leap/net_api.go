package leap

import (
	"context"
	"encoding/json"
)

// ConnectedNodes lists the node's current p2p connections.
func (c *Client) ConnectedNodes(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, "/v1/net/connections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConnectNode asks the node to open a p2p connection to endpoint.
func (c *Client) ConnectNode(ctx context.Context, endpoint string) (string, error) {
	var out string
	if err := c.post(ctx, "/v1/net/connect", endpoint, &out); err != nil {
		return "", err
	}
	return out, nil
}

// DisconnectNode asks the node to drop its p2p connection to endpoint.
func (c *Client) DisconnectNode(ctx context.Context, endpoint string) (string, error) {
	var out string
	if err := c.post(ctx, "/v1/net/disconnect", endpoint, &out); err != nil {
		return "", err
	}
	return out, nil
}
