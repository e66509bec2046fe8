package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"token-dapp-tui/rpc"
)

// Sentinel errors mirroring the two ways wallets refuse a dapp.
var (
	ErrUnavailable  = errors.New("wallet: not available")
	ErrUserRejected = errors.New("wallet: user rejected request")
)

// Event is a wallet-originated notification.
type Event interface{ walletEvent() }

// AccountsChangedEvent announces the active account. Address is nil when the
// wallet no longer exposes any account.
type AccountsChangedEvent struct {
	Address *common.Address
}

// NetworkChangedEvent announces that the wallet is talking to a different
// network. NetworkID may be empty when the new node could not be queried.
type NetworkChangedEvent struct {
	NetworkID string
}

func (AccountsChangedEvent) walletEvent() {}
func (NetworkChangedEvent) walletEvent()  {}

// Provider is the narrow wallet surface the session layer consumes.
type Provider interface {
	// RequestAccounts asks the wallet for access and returns the active
	// account. ErrUnavailable when there is no wallet, ErrUserRejected
	// when the request is declined.
	RequestAccounts(ctx context.Context) (common.Address, error)

	// NetworkID returns the wallet's network id as a decimal string.
	NetworkID(ctx context.Context) (string, error)

	// TransactOpts returns signing options bound to the active account.
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)

	// Events streams account and network changes.
	Events() <-chan Event
}

// ApprovalRequest describes an action awaiting wallet approval.
type ApprovalRequest struct {
	Kind    string // "connect" or "transaction"
	Account common.Address
	Detail  string
}

// Approver decides whether the wallet approves a request. Returning false
// rejects it with ErrUserRejected. A nil Approver approves everything.
type Approver func(ApprovalRequest) bool

// Local is an in-process dev wallet: hot keys bound to one RPC endpoint. It
// stands in for the browser wallet when driving a dapp from a terminal, so
// it also emits the account/network change events a dapp subscribes to.
type Local struct {
	mu       sync.Mutex
	node     *rpc.Client
	accounts []account
	active   int // -1 when locked
	approve  Approver
	events   chan Event
}

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewLocal builds a dev wallet from hex private keys. The wallet starts
// locked; RequestAccounts activates the first account.
func NewLocal(node *rpc.Client, hexKeys []string, approve Approver) (*Local, error) {
	w := &Local{
		node:    node,
		active:  -1,
		approve: approve,
		events:  make(chan Event, 16),
	}
	for _, hk := range hexKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hk, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		w.accounts = append(w.accounts, account{
			key:  key,
			addr: crypto.PubkeyToAddress(key.PublicKey),
		})
	}
	return w, nil
}

// RequestAccounts activates the wallet and returns the active address
func (w *Local) RequestAccounts(ctx context.Context) (common.Address, error) {
	w.mu.Lock()
	if len(w.accounts) == 0 || w.node == nil {
		w.mu.Unlock()
		return common.Address{}, ErrUnavailable
	}
	if w.active < 0 {
		w.active = 0
	}
	acct := w.accounts[w.active]
	approve := w.approve
	w.mu.Unlock()

	if approve != nil && !approve(ApprovalRequest{Kind: "connect", Account: acct.addr}) {
		return common.Address{}, ErrUserRejected
	}
	return acct.addr, nil
}

// NetworkID queries the bound node for its network id
func (w *Local) NetworkID(ctx context.Context) (string, error) {
	w.mu.Lock()
	node := w.node
	w.mu.Unlock()
	if node == nil {
		return "", ErrUnavailable
	}
	return node.NetworkVersion(ctx)
}

// TransactOpts returns a keyed transactor for the active account. The
// approval hook runs at signing time, so declining there rejects the
// transaction before it is sent.
func (w *Local) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	w.mu.Lock()
	if w.active < 0 || w.active >= len(w.accounts) || w.node == nil {
		w.mu.Unlock()
		return nil, ErrUnavailable
	}
	acct := w.accounts[w.active]
	node := w.node
	approve := w.approve
	w.mu.Unlock()

	chainID, err := node.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(acct.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx

	if approve != nil {
		inner := opts.Signer
		opts.Signer = func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			detail := "contract creation"
			if tx.To() != nil {
				detail = tx.To().Hex()
			}
			if !approve(ApprovalRequest{Kind: "transaction", Account: addr, Detail: detail}) {
				return nil, ErrUserRejected
			}
			return inner(addr, tx)
		}
	}
	return opts, nil
}

// Events streams account and network changes
func (w *Local) Events() <-chan Event {
	return w.events
}

// Backend exposes the wallet's node connection for contract binding
func (w *Local) Backend() *ethclient.Client {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.node == nil || w.node.Client == nil {
		return nil
	}
	return w.node.Client
}

// Accounts lists the wallet's addresses in order
func (w *Local) Accounts() []common.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	addrs := make([]common.Address, len(w.accounts))
	for i, a := range w.accounts {
		addrs[i] = a.addr
	}
	return addrs
}

// Active returns the active address, or nil when the wallet is locked
func (w *Local) Active() *common.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active < 0 || w.active >= len(w.accounts) {
		return nil
	}
	addr := w.accounts[w.active].addr
	return &addr
}

// Switch makes the account at index i active and announces the change
func (w *Local) Switch(i int) error {
	w.mu.Lock()
	if i < 0 || i >= len(w.accounts) {
		w.mu.Unlock()
		return fmt.Errorf("no account at index %d", i)
	}
	if i == w.active {
		w.mu.Unlock()
		return nil
	}
	w.active = i
	addr := w.accounts[i].addr
	w.mu.Unlock()

	w.emit(AccountsChangedEvent{Address: &addr})
	return nil
}

// Lock deactivates the wallet and announces an absent address
func (w *Local) Lock() {
	w.mu.Lock()
	if w.active < 0 {
		w.mu.Unlock()
		return
	}
	w.active = -1
	w.mu.Unlock()

	w.emit(AccountsChangedEvent{Address: nil})
}

// ImportKey adds a hex private key and returns the derived address
func (w *Local) ImportKey(hexKey string) (common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("parse private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	w.mu.Lock()
	w.accounts = append(w.accounts, account{key: key, addr: addr})
	w.mu.Unlock()
	return addr, nil
}

// SwitchEndpoint rebinds the wallet to a different node and announces the
// network change. The announced id is empty when the new node cannot be
// queried; the session resets either way.
func (w *Local) SwitchEndpoint(ctx context.Context, node *rpc.Client) error {
	w.mu.Lock()
	w.node = node
	w.mu.Unlock()

	var id string
	var err error
	if node != nil {
		id, err = node.NetworkVersion(ctx)
	}
	w.emit(NetworkChangedEvent{NetworkID: id})
	return err
}

// emit never blocks a wallet call on a slow consumer: when the buffer is
// full the oldest event is dropped.
func (w *Local) emit(ev Event) {
	for {
		select {
		case w.events <- ev:
			return
		default:
			select {
			case <-w.events:
			default:
			}
		}
	}
}
