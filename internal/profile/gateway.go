// Package profile wraps the ERC725Y key-value storage of a Universal Profile
// for the single key the Mini Store owns: LSP28TheGrid, a Singleton key whose
// value is a VerifiableURI pointing at the profile's grid document.
package profile

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/deliquified/ministore/internal/chain"
	"github.com/deliquified/ministore/internal/wallet"
	"github.com/deliquified/ministore/pkg/logger"
)

// GridKeyHex is the LSP28TheGrid Singleton data key.
const GridKeyHex = "0x724141d9918ce69e6b8afcf53a91748466086ba2c74b94cab43c649ae2ac23ff"

// TxHandle references a submitted but not necessarily confirmed transaction.
type TxHandle struct {
	Hash string
}

// Gateway reads and writes the grid pointer on a profile's own contract
// storage. It keeps no local state; every WritePointer is exactly one
// on-chain setData call.
type Gateway struct {
	client *chain.Client
	log    *logger.Logger

	gridKey []byte
}

// NewGateway creates a profile storage gateway over the given RPC client.
func NewGateway(client *chain.Client, log *logger.Logger) (*Gateway, error) {
	if log == nil {
		log = logger.NewDefault("profile")
	}
	key, err := chain.DecodeHex(GridKeyHex)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("grid key: %w", err)
	}
	return &Gateway{client: client, log: log, gridKey: key}, nil
}

// ReadPointer looks up the grid key under account's storage and decodes it as
// a VerifiableURI. It returns (nil, nil) when the key is unset or the stored
// bytes do not decode: an absent pointer is the valid "no grid yet" state,
// not an error.
func (g *Gateway) ReadPointer(ctx context.Context, account string) (*VerifiableURI, error) {
	calldata := encodeGetData(g.gridKey)
	ret, err := g.client.EthCall(ctx, account, calldata)
	if err != nil {
		return nil, fmt.Errorf("getData: %w", err)
	}

	value, err := decodeBytesReturn(ret)
	if err != nil {
		g.log.WithError(err).WithField("account", account).Warn("undecodable getData return")
		return nil, nil
	}
	if len(value) == 0 {
		return nil, nil
	}

	uri, err := DecodeVerifiableURI(value)
	if err != nil {
		g.log.WithError(err).WithField("account", account).Warn("stored grid pointer is not a verifiable uri")
		return nil, nil
	}
	return uri, nil
}

// WritePointer encodes locator as a VerifiableURI value for the grid key and
// submits a setData transaction signed by signer, targeting the account's own
// contract. It returns immediately after submission; confirmation is the
// caller's concern.
func (g *Gateway) WritePointer(ctx context.Context, account string, signer wallet.Signer, locator string, content []byte) (TxHandle, error) {
	uri := VerifiableURI{
		Verification: Verification{
			Method: VerificationMethodKeccak256UTF8,
			Data:   Keccak256(content),
		},
		URL: locator,
	}
	value, err := EncodeVerifiableURI(uri)
	if err != nil {
		return TxHandle{}, fmt.Errorf("encode pointer: %w", err)
	}

	calldata := encodeSetData(g.gridKey, value)
	txHash, err := signer.SendTransaction(ctx, wallet.Tx{
		From: account,
		To:   account,
		Data: calldata,
	})
	if err != nil {
		return TxHandle{}, fmt.Errorf("submit setData: %w", err)
	}

	g.log.WithField("tx", txHash).WithField("account", account).Info("grid pointer update submitted")
	return TxHandle{Hash: txHash}, nil
}

// encodeGetData builds calldata for ERC725Y getData(bytes32).
func encodeGetData(key []byte) []byte {
	calldata := make([]byte, 0, 4+32)
	calldata = append(calldata, methodID("getData(bytes32)")...)
	calldata = append(calldata, key...)
	return calldata
}

// encodeSetData builds calldata for ERC725Y setData(bytes32,bytes). The
// value is ABI-encoded as dynamic bytes: head holds the key and the tail
// offset, the tail holds length plus right-padded data.
func encodeSetData(key, value []byte) []byte {
	padded := len(value)
	if rem := padded % 32; rem != 0 {
		padded += 32 - rem
	}

	calldata := make([]byte, 0, 4+32+32+32+padded)
	calldata = append(calldata, methodID("setData(bytes32,bytes)")...)
	calldata = append(calldata, key...)
	calldata = append(calldata, abiUint(64)...)
	calldata = append(calldata, abiUint(uint64(len(value)))...)
	calldata = append(calldata, value...)
	calldata = append(calldata, make([]byte, padded-len(value))...)
	return calldata
}

// decodeBytesReturn unpacks a single ABI-encoded dynamic bytes return value.
// Offset and length come from the wire, so both are checked by subtraction;
// adding them first could wrap around and slip past the bounds check.
func decodeBytesReturn(ret []byte) ([]byte, error) {
	if len(ret) == 0 {
		return nil, nil
	}
	if len(ret) < 64 {
		return nil, fmt.Errorf("abi return too short (%d bytes)", len(ret))
	}
	total := uint64(len(ret))
	offset := binary.BigEndian.Uint64(ret[24:32])
	if offset > total-32 {
		return nil, fmt.Errorf("abi offset out of range")
	}
	start := offset + 32
	length := binary.BigEndian.Uint64(ret[offset+24 : offset+32])
	if length > total-start {
		return nil, fmt.Errorf("abi length out of range")
	}
	return ret[start : start+length], nil
}

func abiUint(v uint64) []byte {
	word := make([]byte, 32)
	binary.BigEndian.PutUint64(word[24:], v)
	return word
}
