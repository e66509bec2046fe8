package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"token-dapp-tui/helpers"
)

// Config represents the application configuration
type Config struct {
	RPCURLs        []RPCUrl `json:"rpc_urls"`
	NetworkID      string   `json:"network_id"`
	TokenAddress   string   `json:"token_address"`
	PollIntervalMs int      `json:"poll_interval_ms"`
	Logger         bool     `json:"logger"`
}

// RPCUrl represents an RPC endpoint
type RPCUrl struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Deployment mirrors the contract-address.json artifact written by the deploy
// script. Only the token address is read from it.
type Deployment struct {
	Token string `json:"Token"`
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RPCURLs: []RPCUrl{
			{
				Name:   "Hardhat",
				URL:    "http://127.0.0.1:8545",
				Active: true,
			},
		},
		NetworkID: "31337",
		// First contract deployed by a fresh Hardhat node, which is where
		// the boilerplate deploy script puts the token.
		TokenAddress:   "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		PollIntervalMs: 1000,
		Logger:         false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}

	return cfg
}

// ActiveRPC returns the endpoint marked active, falling back to the first one
func (c Config) ActiveRPC() RPCUrl {
	for _, r := range c.RPCURLs {
		if r.Active {
			return r
		}
	}
	if len(c.RPCURLs) > 0 {
		return c.RPCURLs[0]
	}
	return RPCUrl{}
}

// HasRPC reports whether an endpoint with this name is already configured.
// Names are compared case-insensitively.
func (c Config) HasRPC(name string) bool {
	names := make([]string, 0, len(c.RPCURLs))
	for _, r := range c.RPCURLs {
		names = append(names, r.Name)
	}
	return helpers.Contains(names, name)
}

// SetActiveRPC marks the endpoint with the given URL active, adding it first
// if it is not in the list yet.
func (c *Config) SetActiveRPC(url string) {
	found := false
	for i := range c.RPCURLs {
		c.RPCURLs[i].Active = c.RPCURLs[i].URL == url
		if c.RPCURLs[i].Active {
			found = true
		}
	}
	if !found {
		c.RPCURLs = append([]RPCUrl{{Name: "env", URL: url, Active: true}}, c.RPCURLs...)
	}
}

// ApplyEnv overlays environment variables on top of the file config.
// TOKEN_DAPP_CONTRACTS points at a contract-address.json deployment artifact
// and takes precedence over TOKEN_DAPP_TOKEN_ADDRESS.
func (c *Config) ApplyEnv() {
	if url := os.Getenv("TOKEN_DAPP_RPC_URL"); url != "" {
		c.SetActiveRPC(url)
	}
	if id := os.Getenv("TOKEN_DAPP_NETWORK_ID"); id != "" {
		c.NetworkID = id
	}
	if addr := os.Getenv("TOKEN_DAPP_TOKEN_ADDRESS"); addr != "" {
		c.TokenAddress = addr
	}
	if path := os.Getenv("TOKEN_DAPP_CONTRACTS"); path != "" {
		if d, err := LoadDeployment(path); err == nil && d.Token != "" {
			c.TokenAddress = d.Token
		}
	}
	if ms := os.Getenv("TOKEN_DAPP_POLL_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			c.PollIntervalMs = n
		}
	}
}

// LoadDeployment reads a contract-address.json artifact
func LoadDeployment(path string) (Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Deployment{}, err
	}
	var d Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return Deployment{}, err
	}
	return d, nil
}

// Keys returns the dev wallet private keys from TOKEN_DAPP_KEYS
// (comma-separated hex strings). Unset returns nil so the caller can fall
// back to built-in dev keys; set-but-empty returns an empty non-nil slice,
// which gives a wallet with no accounts at all.
func Keys() []string {
	raw, ok := os.LookupEnv("TOKEN_DAPP_KEYS")
	if !ok {
		return nil
	}
	keys := []string{}
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
