package erc20

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Canonical ERC-20 surface this client uses. The contract itself is a deploy
// artifact; only its ABI and address are known here.
const abiJSON = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const receiptPollInterval = 500 * time.Millisecond

// Backend is the node surface the client needs: contract calls plus receipt
// lookups. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TransactOptsFn supplies signing options for a write; the wallet owns it.
type TransactOptsFn func(ctx context.Context) (*bind.TransactOpts, error)

// Client is a typed facade over one deployed ERC-20 token
type Client struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  Backend
	signerFn TransactOptsFn
}

// NewClient binds the token at address on the given backend. signerFn may be
// nil for a read-only client.
func NewClient(backend Backend, address common.Address, signerFn TransactOptsFn) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("erc20: nil backend")
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}
	return &Client{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
		signerFn: signerFn,
	}, nil
}

// Address returns the bound contract address
func (c *Client) Address() common.Address {
	return c.address
}

// Name reads the token name
func (c *Client) Name(ctx context.Context) (string, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "name"); err != nil {
		return "", fmt.Errorf("call name: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Symbol reads the token symbol
func (c *Client) Symbol(ctx context.Context) (string, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "symbol"); err != nil {
		return "", fmt.Errorf("call symbol: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// BalanceOf reads the balance of owner in the token's smallest unit
func (c *Client) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Transfer submits transfer(to, amount) signed by the wallet and returns the
// transaction hash once the node accepts it. Wallet refusals surface
// unchanged, so callers can classify them with errors.Is.
func (c *Client) Transfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	if c.signerFn == nil {
		return common.Hash{}, fmt.Errorf("erc20: read-only client")
	}
	opts, err := c.signerFn(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signer: %w", err)
	}
	tx, err := c.contract.Transact(opts, "transfer", to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("transfer: %w", err)
	}
	return tx.Hash(), nil
}

// WaitMined polls for the receipt of txHash until it is mined or ctx ends.
// A missing receipt means the transaction is still in flight and is not an
// error.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
