package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Fatalf("unexpected listen %q", cfg.Listen)
	}
	if cfg.ChainID != 42 {
		t.Fatalf("unexpected chain id %d", cfg.ChainID)
	}
	if cfg.RPCURL == "" || cfg.IPFS.Gateway == "" {
		t.Fatalf("defaults incomplete: %#v", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `listen: ":9090"
rpc_url: https://rpc.example
chain_id: 4201
ipfs:
  gateway: https://gateway.example/ipfs
  pin_url: https://pin.example
  pin_key: secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.RPCURL != "https://rpc.example" || cfg.ChainID != 4201 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.IPFS.PinKey != "secret" {
		t.Fatalf("ipfs config not parsed: %#v", cfg.IPFS)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":7070\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7070" {
		t.Fatalf("override lost: %q", cfg.Listen)
	}
	if cfg.RPCURL != Default().RPCURL {
		t.Fatalf("default not preserved: %q", cfg.RPCURL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rpc_url: \"\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty rpc_url")
	}

	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Fatalf("unexpected config: %#v", cfg)
	}

	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.RPCURL != Default().RPCURL {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MINISTORE_LISTEN", ":6060")
	t.Setenv("MINISTORE_ACCOUNT", "0xabc")

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":6060" || cfg.Account != "0xabc" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
}
