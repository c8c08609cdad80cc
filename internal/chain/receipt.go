package chain

import (
	"context"
	"encoding/json"
	"time"
)

// Receipt is the subset of an EVM transaction receipt the store cares about.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Status          string `json:"status"` // "0x1" success, "0x0" reverted
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == "0x1"
}

// GetTransactionReceipt returns the receipt for a mined transaction, or nil
// if the transaction is not yet included in a block.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", []any{txHash})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var receipt Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// DefaultTxWaitTimeout is the default timeout for waiting for a transaction
// to be included in a block.
const DefaultTxWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the default interval for polling transaction status.
const DefaultPollInterval = 2 * time.Second

// WaitForReceipt polls for a transaction receipt until it is available or the
// context is done. A pending transaction is treated as transient and retried
// until the context deadline expires.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string, pollInterval time.Duration) (*Receipt, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := c.GetTransactionReceipt(ctx, txHash)
			if err != nil {
				return nil, err
			}
			if receipt == nil {
				continue
			}
			return receipt, nil
		}
	}
}
