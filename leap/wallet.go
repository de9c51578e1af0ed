package leap

import (
	"fmt"

	"github.com/guilledk/go-leap/chain"
)

// ImportKey registers a private key for an account. Transactions authored
// by the account sign with it.
func (c *Client) ImportKey(account string, wif string) error {
	key, err := chain.ParsePrivateKey(wif)
	if err != nil {
		return fmt.Errorf("import key for %s: %w", account, err)
	}

	pub := key.PublicKey().String()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[account] = pub
	c.privKeys[account] = key
	c.keyAccounts[pub] = append(c.keyAccounts[pub], account)
	return nil
}

// AssignKey points a new account at a public key some already-imported
// account owns.
func (c *Client) AssignKey(account string, pub string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	owners, ok := c.keyAccounts[pub]
	if !ok || len(owners) == 0 {
		return fmt.Errorf("public key %s not found on any imported account", pub)
	}

	owner := owners[0]
	c.keys[account] = c.keys[owner]
	c.privKeys[account] = c.privKeys[owner]
	c.keyAccounts[pub] = append(c.keyAccounts[pub], account)
	return nil
}

// PublicKeyFor returns the public key registered for an account.
func (c *Client) PublicKeyFor(account string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pub, ok := c.keys[account]
	if !ok {
		return "", fmt.Errorf("no key imported for %s", account)
	}
	return pub, nil
}

// PrivateKeyFor returns the signing key registered for an account.
func (c *Client) PrivateKeyFor(account string) (*chain.PrivateKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.privKeys[account]
	if !ok {
		return nil, fmt.Errorf("no key imported for %s", account)
	}
	return key, nil
}

// CreateKeyPair generates a key pair without attaching it to an account.
func (c *Client) CreateKeyPair() (priv string, pub string, err error) {
	return chain.GenKeyPair()
}

// CreateKeyPairs generates n key pairs.
func (c *Client) CreateKeyPairs(n int) ([][2]string, error) {
	pairs := make([][2]string, 0, n)
	for i := 0; i < n; i++ {
		priv, pub, err := chain.GenKeyPair()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{priv, pub})
	}
	c.logger.Info("created key pairs", "count", n)
	return pairs, nil
}
