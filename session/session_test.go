package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-dapp-tui/wallet"
)

const (
	addrA = "0x00000000000000000000000000000000000000Aa"
	addrB = "0x00000000000000000000000000000000000000bB"
)

// fakeProvider implements wallet.Provider with canned responses.
type fakeProvider struct {
	mu     sync.Mutex
	addr   common.Address
	netID  string
	reqErr error
	events chan wallet.Event
}

func newFakeProvider(addr, netID string) *fakeProvider {
	return &fakeProvider{
		addr:   common.HexToAddress(addr),
		netID:  netID,
		events: make(chan wallet.Event, 8),
	}
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reqErr != nil {
		return common.Address{}, f.reqErr
	}
	return f.addr, nil
}

func (f *fakeProvider) NetworkID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.netID, nil
}

func (f *fakeProvider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return nil, nil
}

func (f *fakeProvider) Events() <-chan wallet.Event {
	return f.events
}

func (f *fakeProvider) setAccount(addr string) {
	f.mu.Lock()
	f.addr = common.HexToAddress(addr)
	f.mu.Unlock()
}

// fakeToken implements TokenClient over an in-memory balance table. owner is
// the account debited by Transfer.
type fakeToken struct {
	mu            sync.Mutex
	name, symbol  string
	owner         common.Address
	balances      map[common.Address]*big.Int
	nameCalls     int
	symbolCalls   int
	balanceCalls  int
	balanceErr    error
	balanceGate   chan struct{} // when set, BalanceOf blocks until closed
	transferErr   error
	receiptStatus uint64
	waitGate      chan struct{} // when set, WaitMined blocks until closed
	transfers     []fakeTransfer
}

type fakeTransfer struct {
	to     common.Address
	amount *big.Int
}

func newFakeToken() *fakeToken {
	return &fakeToken{
		name:          "Foo",
		symbol:        "FOO",
		balances:      map[common.Address]*big.Int{},
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (f *fakeToken) setBalance(addr common.Address, n int64) {
	f.mu.Lock()
	f.balances[addr] = big.NewInt(n)
	f.mu.Unlock()
}

func (f *fakeToken) Name(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameCalls++
	return f.name, nil
}

func (f *fakeToken) Symbol(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbolCalls++
	return f.symbol, nil
}

func (f *fakeToken) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	gate := f.balanceGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if b, ok := f.balances[owner]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeToken) Transfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return common.Hash{}, f.transferErr
	}
	f.transfers = append(f.transfers, fakeTransfer{to: to, amount: new(big.Int).Set(amount)})
	if b, ok := f.balances[f.owner]; ok {
		b.Sub(b, amount)
	}
	return common.HexToHash(fmt.Sprintf("0x%064x", len(f.transfers))), nil
}

func (f *fakeToken) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	gate := f.waitGate
	status := f.receiptStatus
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &types.Receipt{Status: status, TxHash: txHash}, nil
}

func (f *fakeToken) counts() (name, symbol, balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameCalls, f.symbolCalls, f.balanceCalls
}

func (f *fakeToken) sentTransfers() []fakeTransfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeTransfer, len(f.transfers))
	copy(out, f.transfers)
	return out
}

func newTestController(t *testing.T, fp *fakeProvider, ft *fakeToken) *Controller {
	t.Helper()
	cfg := Config{
		AcceptedNetworkID: "31337",
		PollInterval:      20 * time.Millisecond,
		RPCTimeout:        time.Second,
		ConfirmTimeout:    2 * time.Second,
	}
	c := New(cfg, fp, func(ctx context.Context) (TokenClient, error) { return ft, nil }, log.New(io.Discard))
	t.Cleanup(c.Close)
	return c
}

// waitState consumes snapshots until one matches cond.
func waitState(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-c.Updates():
			if !ok {
				t.Fatal("updates channel closed while waiting")
			}
			if cond(st) {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for session state")
		}
	}
}

func TestConnectHappyPath(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	c := newTestController(t, fp, ft)

	c.Connect()
	st := waitState(t, c, State.Ready)

	assert.Equal(t, StatusConnected, st.Status)
	assert.Equal(t, common.HexToAddress(addrA), st.Address)
	assert.Equal(t, "31337", st.NetworkID)
	assert.Equal(t, TokenInfo{Name: "Foo", Symbol: "FOO"}, st.Token)
	assert.Equal(t, "100", st.Balance.String())
	assert.Nil(t, st.Pending)
	assert.Empty(t, st.TxError)
	assert.Empty(t, st.NetworkError)
	assert.False(t, st.NoWallet)
}

func TestTokenInfoFetchedOncePerSession(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, State.Ready)

	// let the poller run a few rounds
	require.Eventually(t, func() bool {
		_, _, balance := ft.counts()
		return balance >= 3
	}, time.Second, 5*time.Millisecond)

	name, symbol, _ := ft.counts()
	assert.Equal(t, 1, name)
	assert.Equal(t, 1, symbol)
}

func TestFirstBalanceDoesNotWaitForPollInterval(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)

	// An interval this long never fires during the test, so the first read
	// has to come from the connect sequence itself.
	cfg := Config{
		AcceptedNetworkID: "31337",
		PollInterval:      time.Hour,
		RPCTimeout:        time.Second,
		ConfirmTimeout:    2 * time.Second,
	}
	factoryGate := make(chan struct{})
	c := New(cfg, fp, func(ctx context.Context) (TokenClient, error) {
		select {
		case <-factoryGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return ft, nil
	}, log.New(io.Discard))
	t.Cleanup(c.Close)

	c.Connect()
	waitState(t, c, func(s State) bool { return s.Status == StatusConnected })

	// hold the token back until the poller's immediate tick has come and gone
	time.Sleep(50 * time.Millisecond)
	close(factoryGate)

	st := waitState(t, c, State.Ready)
	assert.Equal(t, "100", st.Balance.String())
}

func TestWrongNetwork(t *testing.T) {
	fp := newFakeProvider(addrA, "1")
	ft := newFakeToken()
	c := newTestController(t, fp, ft)

	c.Connect()
	st := waitState(t, c, func(s State) bool { return s.Status == StatusNetworkMismatch })

	assert.Contains(t, st.NetworkError, "31337")
	assert.Equal(t, "1", st.NetworkID)
	assert.Equal(t, common.Address{}, st.Address, "no account is stored on mismatch")

	time.Sleep(80 * time.Millisecond)
	name, _, balance := ft.counts()
	assert.Zero(t, name, "token is never fetched on mismatch")
	assert.Zero(t, balance, "polling never starts on mismatch")
}

func TestConnectRejectedIsSurfaced(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	fp.reqErr = wallet.ErrUserRejected
	c := newTestController(t, fp, newFakeToken())

	c.Connect()
	st := waitState(t, c, func(s State) bool {
		return s.Status == StatusDisconnected && s.NetworkError != ""
	})
	assert.Contains(t, st.NetworkError, "rejected")
	assert.False(t, st.NoWallet)
}

func TestNoWalletIsItsOwnState(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	fp.reqErr = wallet.ErrUnavailable
	c := newTestController(t, fp, newFakeToken())

	c.Connect()
	st := waitState(t, c, func(s State) bool { return s.NoWallet })
	assert.Equal(t, StatusDisconnected, st.Status)
	assert.Empty(t, st.NetworkError)
}

func TestAccountsChangedReconnects(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(common.HexToAddress(addrA), 100)
	ft.setBalance(common.HexToAddress(addrB), 5)
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, State.Ready)

	next := common.HexToAddress(addrB)
	fp.setAccount(addrB)
	fp.events <- wallet.AccountsChangedEvent{Address: &next}

	st := waitState(t, c, func(s State) bool { return s.Ready() && s.Address == next })
	assert.Equal(t, "5", st.Balance.String())

	name, _, _ := ft.counts()
	assert.Equal(t, 2, name, "token info is refetched for the new session")
}

func TestAccountsChangedAbsentResetsEverything(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, State.Ready)

	fp.events <- wallet.AccountsChangedEvent{Address: nil}
	st := waitState(t, c, func(s State) bool { return s.Status == StatusDisconnected })

	// the reset snapshot is indistinguishable from the initial state
	assert.Equal(t, common.Address{}, st.Address)
	assert.Empty(t, st.NetworkID)
	assert.Equal(t, TokenInfo{}, st.Token)
	assert.Nil(t, st.Balance)
	assert.Nil(t, st.Pending)
	assert.Empty(t, st.TxError)
	assert.Empty(t, st.NetworkError)
	assert.False(t, st.NoWallet)
}

func TestNetworkChangedResetsWithoutReconnect(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, State.Ready)

	fp.events <- wallet.NetworkChangedEvent{NetworkID: "1"}
	waitState(t, c, func(s State) bool { return s.Status == StatusDisconnected })

	// nothing may reconnect on its own
	select {
	case st, ok := <-c.Updates():
		if ok {
			assert.Equal(t, StatusDisconnected, st.Status)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDismissalsAreIndependent(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, State.Ready)

	// provoke one error of each kind
	ft.mu.Lock()
	ft.transferErr = errors.New("out of gas")
	ft.mu.Unlock()
	c.Transfer(common.HexToAddress(addrB), big.NewInt(1))
	waitState(t, c, func(s State) bool { return s.TxError != "" })

	ft.mu.Lock()
	ft.balanceErr = errors.New("node unreachable")
	ft.mu.Unlock()
	waitState(t, c, func(s State) bool { return s.NetworkError != "" })
	ft.mu.Lock()
	ft.balanceErr = nil
	ft.mu.Unlock()

	c.DismissTransactionError()
	st := waitState(t, c, func(s State) bool { return s.TxError == "" })
	assert.NotEmpty(t, st.NetworkError, "dismissing one error must not clear the other")

	c.DismissNetworkError()
	waitState(t, c, func(s State) bool { return s.NetworkError == "" })
}

func TestStaleBalanceDiscardedAfterReset(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	gate := make(chan struct{})
	ft.balanceGate = gate
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, func(s State) bool {
		return s.Status == StatusConnected && s.Token.Name == "Foo"
	})

	// reset while the first balance read is still blocked
	fp.events <- wallet.NetworkChangedEvent{NetworkID: "1"}
	waitState(t, c, func(s State) bool { return s.Status == StatusDisconnected })

	close(gate)
	time.Sleep(50 * time.Millisecond)

	select {
	case st, ok := <-c.Updates():
		if ok {
			assert.Nil(t, st.Balance, "stale read must not surface after reset")
			assert.Equal(t, StatusDisconnected, st.Status)
		}
	default:
	}
}

func TestCloseStopsPollingWithoutReset(t *testing.T) {
	fp := newFakeProvider(addrA, "31337")
	ft := newFakeToken()
	ft.owner = common.HexToAddress(addrA)
	ft.setBalance(ft.owner, 100)
	c := newTestController(t, fp, ft)

	c.Connect()
	waitState(t, c, State.Ready)

	c.Close()
	c.Close() // repeat close is fine

	// channel closes once the loop drains
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Updates():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// polling has stopped: the count settles
	time.Sleep(60 * time.Millisecond)
	_, _, before := ft.counts()
	time.Sleep(120 * time.Millisecond)
	_, _, after := ft.counts()
	assert.Equal(t, before, after)
}
