package wallet

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/deliquified/ministore/internal/chain"
)

// StaticProvider is a Provider with a fixed account list, driven by explicit
// SetAccounts/SetChainID calls. Used for development deployments where the
// account is configured, and for tests.
type StaticProvider struct {
	mu       sync.RWMutex
	accounts []string
	chainID  uint64
	signer   Signer
	subs     map[int]chan Event
	nextSub  int
}

// NewStaticProvider creates a provider pre-connected to the given accounts.
func NewStaticProvider(accounts []string, chainID uint64, signer Signer) *StaticProvider {
	return &StaticProvider{
		accounts: append([]string(nil), accounts...),
		chainID:  chainID,
		signer:   signer,
		subs:     make(map[int]chan Event),
	}
}

func (p *StaticProvider) Accounts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.accounts...)
}

func (p *StaticProvider) ChainID() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chainID
}

func (p *StaticProvider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.accounts) > 0
}

func (p *StaticProvider) Signer() (Signer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.accounts) == 0 || p.signer == nil {
		return nil, ErrNotConnected
	}
	return p.signer, nil
}

func (p *StaticProvider) Subscribe() (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	ch := make(chan Event, 4)
	p.subs[id] = ch
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
}

// SetAccounts replaces the connected account list and notifies subscribers.
func (p *StaticProvider) SetAccounts(accounts []string) {
	p.mu.Lock()
	p.accounts = append([]string(nil), accounts...)
	event := Event{Kind: EventAccountsChanged, Accounts: p.accountsLocked(), ChainID: p.chainID}
	p.mu.Unlock()
	p.broadcast(event)
}

// SetChainID replaces the chain id and notifies subscribers.
func (p *StaticProvider) SetChainID(chainID uint64) {
	p.mu.Lock()
	p.chainID = chainID
	event := Event{Kind: EventChainChanged, Accounts: p.accountsLocked(), ChainID: chainID}
	p.mu.Unlock()
	p.broadcast(event)
}

// accountsLocked returns a copy of the account slice; callers must hold mu.
func (p *StaticProvider) accountsLocked() []string {
	return append([]string(nil), p.accounts...)
}

func (p *StaticProvider) broadcast(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// NodeSigner submits transactions through a node-managed account via
// eth_sendTransaction. Only suitable for development nodes holding the key.
type NodeSigner struct {
	client *chain.Client
}

// NewNodeSigner creates a signer backed by the node's own accounts.
func NewNodeSigner(client *chain.Client) *NodeSigner {
	return &NodeSigner{client: client}
}

func (s *NodeSigner) SendTransaction(ctx context.Context, tx Tx) (string, error) {
	params := map[string]string{
		"from": tx.From,
		"to":   tx.To,
		"data": chain.EncodeHex(tx.Data),
	}
	if tx.Value != "" {
		params["value"] = tx.Value
	}

	result, err := s.client.Call(ctx, "eth_sendTransaction", []any{params})
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", err
	}
	return txHash, nil
}
