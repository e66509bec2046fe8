package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-dapp-tui/rpc"
)

// First two accounts of a default Hardhat node. These keys are printed by
// `npx hardhat node` and hold no real funds anywhere.
const (
	hardhatKey0  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hardhatAddr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	hardhatKey1  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	hardhatAddr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func stubNode() *rpc.Client {
	return &rpc.Client{URL: "stub"}
}

func newTestWallet(t *testing.T, approve Approver, keys ...string) *Local {
	t.Helper()
	w, err := NewLocal(stubNode(), keys, approve)
	require.NoError(t, err)
	return w
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no wallet event")
		return nil
	}
}

func TestNewLocalRejectsBadKey(t *testing.T) {
	_, err := NewLocal(stubNode(), []string{"not-a-key"}, nil)
	assert.Error(t, err)
}

func TestRequestAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("derives the hardhat address", func(t *testing.T) {
		w := newTestWallet(t, nil, hardhatKey0, hardhatKey1)
		addr, err := w.RequestAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, hardhatAddr0, addr.Hex())
	})

	t.Run("accepts 0x-prefixed keys", func(t *testing.T) {
		w := newTestWallet(t, nil, "0x"+hardhatKey0)
		addr, err := w.RequestAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, hardhatAddr0, addr.Hex())
	})

	t.Run("unavailable without keys", func(t *testing.T) {
		w := newTestWallet(t, nil)
		_, err := w.RequestAccounts(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unavailable without a node", func(t *testing.T) {
		w, err := NewLocal(nil, []string{hardhatKey0}, nil)
		require.NoError(t, err)
		_, err = w.RequestAccounts(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("rejected by the approver", func(t *testing.T) {
		var seen ApprovalRequest
		w := newTestWallet(t, func(req ApprovalRequest) bool {
			seen = req
			return false
		}, hardhatKey0)

		_, err := w.RequestAccounts(ctx)
		assert.ErrorIs(t, err, ErrUserRejected)
		assert.Equal(t, "connect", seen.Kind)
		assert.Equal(t, hardhatAddr0, seen.Account.Hex())
	})
}

func TestSwitchEmitsAccountsChanged(t *testing.T) {
	w := newTestWallet(t, nil, hardhatKey0, hardhatKey1)
	_, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.Switch(1))
	ev := nextEvent(t, w.Events())
	changed, ok := ev.(AccountsChangedEvent)
	require.True(t, ok, "expected AccountsChangedEvent, got %T", ev)
	require.NotNil(t, changed.Address)
	assert.Equal(t, hardhatAddr1, changed.Address.Hex())

	// same index again is not a change
	require.NoError(t, w.Switch(1))
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %T", ev)
	case <-time.After(50 * time.Millisecond):
	}

	assert.Error(t, w.Switch(7))
}

func TestLockEmitsAbsentAddress(t *testing.T) {
	w := newTestWallet(t, nil, hardhatKey0)
	_, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)

	w.Lock()
	ev := nextEvent(t, w.Events())
	changed, ok := ev.(AccountsChangedEvent)
	require.True(t, ok)
	assert.Nil(t, changed.Address)
	assert.Nil(t, w.Active())

	// already locked, no second event
	w.Lock()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %T", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestImportKey(t *testing.T) {
	w := newTestWallet(t, nil, hardhatKey0)

	addr, err := w.ImportKey(hardhatKey1)
	require.NoError(t, err)
	assert.Equal(t, hardhatAddr1, addr.Hex())
	assert.Len(t, w.Accounts(), 2)

	_, err = w.ImportKey("zz")
	assert.Error(t, err)
}

func TestNetworkIDWithoutNode(t *testing.T) {
	w, err := NewLocal(nil, []string{hardhatKey0}, nil)
	require.NoError(t, err)
	_, err = w.NetworkID(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTransactOptsWhenLocked(t *testing.T) {
	w := newTestWallet(t, nil, hardhatKey0)
	_, err := w.TransactOpts(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
