// Package config loads the Mini Store service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IPFSConfig holds content-store endpoints.
type IPFSConfig struct {
	Gateway string `yaml:"gateway"`
	PinURL  string `yaml:"pin_url"`
	PinKey  string `yaml:"pin_key"`
}

// Config is the service configuration.
type Config struct {
	Listen      string     `yaml:"listen"`
	RPCURL      string     `yaml:"rpc_url"`
	ChainID     uint64     `yaml:"chain_id"`
	Account     string     `yaml:"account"`
	IPFS        IPFSConfig `yaml:"ipfs"`
	CatalogPath string     `yaml:"catalog_path"`
}

// Default returns the configuration for LUKSO mainnet with the public
// Universal Profile gateway.
func Default() *Config {
	return &Config{
		Listen:  ":8080",
		RPCURL:  "https://42.rpc.thirdweb.com",
		ChainID: 42,
		IPFS: IPFSConfig{
			Gateway: "https://api.universalprofile.cloud/ipfs",
		},
	}
}

// Load reads configuration from a YAML file, filling unset fields with
// defaults and applying environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from path, or returns defaults (plus
// environment overrides) when path is empty or the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"MINISTORE_LISTEN":  &c.Listen,
		"MINISTORE_RPC_URL": &c.RPCURL,
		"MINISTORE_ACCOUNT": &c.Account,
		"MINISTORE_GATEWAY": &c.IPFS.Gateway,
		"MINISTORE_PIN_URL": &c.IPFS.PinURL,
		"MINISTORE_PIN_KEY": &c.IPFS.PinKey,
		"MINISTORE_CATALOG": &c.CatalogPath,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("config: rpc_url is required")
	}
	if c.IPFS.Gateway == "" {
		return fmt.Errorf("config: ipfs.gateway is required")
	}
	return nil
}
