// Package leap is an HTTP client for Antelope (Leap) blockchain nodes:
// chain, producer, and net APIs, transaction signing, token and system
// contract helpers, contract deployment, and chain bootstrapping.
package leap

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
)

// DefaultSysTokenSymbol is the system token created by InitSysToken.
var DefaultSysTokenSymbol = chain.MustSymbol("4,TLOS")

//go:embed system_abi.json
var systemABIJSON []byte

// Client provides access to a Leap node's HTTP APIs.
type Client struct {
	url        string
	remoteURL  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	mu          sync.RWMutex
	keys        map[string]string            // account -> public key
	privKeys    map[string]*chain.PrivateKey // account -> private key
	keyAccounts map[string][]string          // public key -> accounts
	abis        map[string]*abi.ABI          // account -> loaded abi

	tokenMu        sync.Mutex
	sysTokenInit   bool
	sysTokenSupply chain.Asset // guarded by mu
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the given node endpoint.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:       url,
		remoteURL: "https://mainnet.telos.net",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:         slog.Default(),
		maxRetries:     5,
		retryBackoff:   100 * time.Millisecond,
		keys:           make(map[string]string),
		privKeys:       make(map[string]*chain.PrivateKey),
		keyAccounts:    make(map[string][]string),
		abis:           make(map[string]*abi.ABI),
		sysTokenSupply: chain.NewAsset(0, DefaultSysTokenSymbol),
	}

	sysABI, err := abi.Parse(systemABIJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded system abi: %v", err))
	}
	c.abis["eosio"] = sysABI

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithRemote sets the endpoint used to verify contract hashes and clone
// protocol feature activations.
func WithRemote(url string) ClientOption {
	return func(c *Client) {
		c.remoteURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration for transport-level failures.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// URL returns the node endpoint this client talks to.
func (c *Client) URL() string { return c.url }

// RemoteURL returns the remote verification endpoint.
func (c *Client) RemoteURL() string { return c.remoteURL }

// LoadABI registers a contract ABI for action packing.
func (c *Client) LoadABI(account chain.Name, a *abi.ABI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abis[account.String()] = a
}

// LoadedABI returns the ABI registered for an account.
func (c *Client) LoadedABI(account chain.Name) (*abi.ABI, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.abis[account.String()]
	if !ok {
		return nil, fmt.Errorf("abi for %s not loaded", account)
	}
	return a, nil
}
