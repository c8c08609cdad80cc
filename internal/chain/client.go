// Package chain provides LUKSO (EVM) JSON-RPC interaction for the Mini Store.
package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Client provides LUKSO JSON-RPC client functionality.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	chainID    uint64
	nextID     atomic.Int64
}

// Config holds client configuration.
type Config struct {
	RPCURL  string
	ChainID uint64 // LUKSO mainnet: 42, testnet: 4201
	Timeout time.Duration
}

// NewClient creates a new LUKSO RPC client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		rpcURL: cfg.RPCURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		chainID: cfg.ChainID,
	}, nil
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() uint64 {
	return c.chainID
}

// RPCRequest is a JSON-RPC 2.0 request.
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int64           `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call makes a JSON-RPC call to the configured node.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	req := RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// CallMsg describes an eth_call request.
type CallMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// EthCall executes a read-only contract call at the latest block and returns
// the raw return data.
func (c *Client) EthCall(ctx context.Context, to string, calldata []byte) ([]byte, error) {
	msg := CallMsg{To: to, Data: EncodeHex(calldata)}
	result, err := c.Call(ctx, "eth_call", []any{msg, "latest"})
	if err != nil {
		return nil, err
	}

	var hexData string
	if err := json.Unmarshal(result, &hexData); err != nil {
		return nil, fmt.Errorf("unmarshal call result: %w", err)
	}
	return DecodeHex(hexData)
}

// EncodeHex renders bytes as a 0x-prefixed hex string.
func EncodeHex(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// DecodeHex parses a 0x-prefixed hex string.
func DecodeHex(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	data, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode hex %q: %w", s, err)
	}
	return data, nil
}
