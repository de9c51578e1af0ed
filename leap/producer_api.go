package leap

import (
	"context"
	"encoding/json"
	"fmt"
)

// IsProductionPaused reports whether the node has block production paused.
func (c *Client) IsProductionPaused(ctx context.Context) (bool, error) {
	var paused bool
	if err := c.post(ctx, "/v1/producer/paused", nil, &paused); err != nil {
		return false, err
	}
	return paused, nil
}

// PauseProduction pauses block production on the node.
func (c *Client) PauseProduction(ctx context.Context) error {
	return c.post(ctx, "/v1/producer/pause", nil, nil)
}

// ResumeProduction resumes block production on the node.
func (c *Client) ResumeProduction(ctx context.Context) error {
	return c.post(ctx, "/v1/producer/resume", nil, nil)
}

// CreateSnapshot asks the node to write a state snapshot.
func (c *Client) CreateSnapshot(ctx context.Context, body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, "/v1/producer/create_snapshot", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleSnapshot schedules a snapshot on the node.
func (c *Client) ScheduleSnapshot(ctx context.Context, body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, "/v1/producer/schedule_snapshot", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSupportedProtocolFeatures lists the features the node knows about.
func (c *Client) GetSupportedProtocolFeatures(ctx context.Context) ([]ProtocolFeature, error) {
	var features []ProtocolFeature
	err := c.post(ctx, "/v1/producer/get_supported_protocol_features",
		map[string]any{}, &features)
	if err != nil {
		return nil, err
	}
	return features, nil
}

// GetFeatureDigest resolves a protocol feature name to its digest.
func (c *Client) GetFeatureDigest(ctx context.Context, name string) (string, error) {
	features, err := c.GetSupportedProtocolFeatures(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range features {
		if f.SpecName() == name {
			c.logger.Debug("feature digest", "name", name, "digest", f.FeatureDigest)
			return f.FeatureDigest, nil
		}
	}
	return "", fmt.Errorf("protocol feature %q not found", name)
}

// ScheduleProtocolFeatureActivations schedules digests for activation on
// the producer, used before the chain can process activate actions.
func (c *Client) ScheduleProtocolFeatureActivations(ctx context.Context, digests []string) error {
	var resp struct {
		Result string `json:"result"`
	}
	err := c.post(ctx, "/v1/producer/schedule_protocol_feature_activations",
		map[string]any{"protocol_features_to_activate": digests}, &resp)
	if err != nil {
		return err
	}
	if resp.Result != "ok" {
		return fmt.Errorf("schedule activations: result %q", resp.Result)
	}
	return nil
}

// ActivateFeatureV1 activates a feature by name through the producer API.
func (c *Client) ActivateFeatureV1(ctx context.Context, name string) error {
	digest, err := c.GetFeatureDigest(ctx, name)
	if err != nil {
		return err
	}
	if err := c.ScheduleProtocolFeatureActivations(ctx, []string{digest}); err != nil {
		return err
	}
	c.logger.Info("feature scheduled", "name", name, "digest", digest)
	return nil
}

// ActivateFeatureWithDigest activates a feature through the eosio
// activate action.
func (c *Client) ActivateFeatureWithDigest(ctx context.Context, digest string) error {
	if _, err := c.PushAction(ctx, eosioName, chainActivate, []any{digest}, eosioName); err != nil {
		return err
	}
	c.logger.Info("feature active", "digest", digest)
	return nil
}

// ActivateFeature resolves a feature name and activates it on chain.
func (c *Client) ActivateFeature(ctx context.Context, name string) error {
	digest, err := c.GetFeatureDigest(ctx, name)
	if err != nil {
		return err
	}
	return c.ActivateFeatureWithDigest(ctx, digest)
}
