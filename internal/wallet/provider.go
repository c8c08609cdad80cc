// Package wallet abstracts the Universal Profile wallet capability provider:
// connected accounts, chain id, change notifications, and the
// transaction-signing capability used for on-chain writes.
package wallet

import (
	"context"
	"errors"
)

// ErrNotConnected is returned when an operation requires a connected account
// and none is available.
var ErrNotConnected = errors.New("wallet: no connected account")

// EventKind classifies provider change notifications.
type EventKind string

const (
	EventAccountsChanged EventKind = "accountsChanged"
	EventChainChanged    EventKind = "chainChanged"
	EventConnected       EventKind = "connect"
	EventDisconnected    EventKind = "disconnect"
)

// Event is a provider change notification.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  uint64
}

// Tx is an unsigned transaction handed to the signing capability. The wallet
// is responsible for gas, nonce, and signature.
type Tx struct {
	From  string
	To    string
	Data  []byte
	Value string
}

// Signer sends a signed transaction and returns its hash. Submission errors
// (user rejection, broadcast failure) are returned synchronously; inclusion
// is not awaited.
type Signer interface {
	SendTransaction(ctx context.Context, tx Tx) (string, error)
}

// Provider exposes the connected wallet state. Implementations emit an Event
// on every accounts or chain change.
type Provider interface {
	// Accounts returns the currently connected account addresses, primary
	// first. Empty when no wallet is connected.
	Accounts() []string

	// ChainID returns the chain the wallet is connected to, 0 if unknown.
	ChainID() uint64

	// Connected reports whether a wallet session is active.
	Connected() bool

	// Signer returns the transaction-signing capability, or an error when
	// not connected.
	Signer() (Signer, error)

	// Subscribe registers for change notifications. The returned cancel
	// function releases the subscription.
	Subscribe() (<-chan Event, func())
}

// PrimaryAccount returns the provider's first connected account, or
// ErrNotConnected.
func PrimaryAccount(p Provider) (string, error) {
	if !p.Connected() {
		return "", ErrNotConnected
	}
	accounts := p.Accounts()
	if len(accounts) == 0 {
		return "", ErrNotConnected
	}
	return accounts[0], nil
}
