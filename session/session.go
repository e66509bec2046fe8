package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"token-dapp-tui/wallet"
)

// Status is the connection phase of the wallet session
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusNetworkMismatch
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusNetworkMismatch:
		return "wrong network"
	default:
		return "unknown"
	}
}

// TokenInfo is the token identity, fetched once per session
type TokenInfo struct {
	Name   string
	Symbol string
}

// PendingTx identifies the transfer awaiting confirmation
type PendingTx struct {
	Hash        string
	SubmittedAt time.Time
}

// State is one immutable snapshot of the session. Consumers receive it on
// the Updates stream and never share memory with the controller.
type State struct {
	Status    Status
	NoWallet  bool // connect failed because there is no wallet at all
	Address   common.Address
	NetworkID string
	Token     TokenInfo
	Balance   *big.Int // nil until the first read of this session
	BalanceAt time.Time
	Pending   *PendingTx

	// The two error surfaces are independent and individually dismissible.
	TxError      string
	NetworkError string
}

// Ready reports whether the session has everything the dashboard needs
func (s State) Ready() bool {
	return s.Status == StatusConnected && s.Token != (TokenInfo{}) && s.Balance != nil
}

func (s State) clone() State {
	out := s
	if s.Balance != nil {
		out.Balance = new(big.Int).Set(s.Balance)
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}

// TxOutcome classifies how a transfer ended
type TxOutcome int

const (
	TxConfirmed TxOutcome = iota
	TxRejectedByUser
	TxFailed
)

func (o TxOutcome) String() string {
	switch o {
	case TxConfirmed:
		return "confirmed"
	case TxRejectedByUser:
		return "rejected by user"
	case TxFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenClient is the contract surface the session drives. *erc20.Client
// satisfies it; tests substitute fakes.
type TokenClient interface {
	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TokenClientFactory builds the token client for a fresh session
type TokenClientFactory func(ctx context.Context) (TokenClient, error)

// Config tunes the controller
type Config struct {
	// AcceptedNetworkID is the single network this dapp works on ("31337"
	// for a local Hardhat node).
	AcceptedNetworkID string
	// PollInterval is the balance refresh cadence.
	PollInterval time.Duration
	// RPCTimeout bounds individual reads and the submission call.
	RPCTimeout time.Duration
	// ConfirmTimeout bounds the wait for a transfer receipt.
	ConfirmTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.RPCTimeout <= 0 {
		c.RPCTimeout = 10 * time.Second
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 5 * time.Minute
	}
	return c
}

// Controller owns the wallet session. All state lives on its run loop;
// user actions, wallet events and async results arrive there as messages,
// so no snapshot a consumer sees can be half-updated.
type Controller struct {
	cfg      Config
	provider wallet.Provider
	factory  TokenClientFactory
	logger   *log.Logger

	inbox   chan msg
	updates chan State
	quit    chan struct{}
	closed  sync.Once

	// Everything below is owned by run() and untouched elsewhere.
	st         State
	gen        uint64
	sessCancel context.CancelFunc
	sessCtx    context.Context
	token      TokenClient
	poller     *Poller
	inFlight   bool
	balSeq     uint64
	balDone    uint64
}

// New starts a controller. Close releases it.
func New(cfg Config, provider wallet.Provider, factory TokenClientFactory, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := &Controller{
		cfg:      cfg.withDefaults(),
		provider: provider,
		factory:  factory,
		logger:   logger,
		inbox:    make(chan msg, 64),
		updates:  make(chan State, 32),
		quit:     make(chan struct{}),
		st:       State{Status: StatusDisconnected},
	}
	go c.run()
	return c
}

// Updates is the ordered snapshot stream. Under backpressure the oldest
// snapshot is dropped, never the newest. The channel closes on Close.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

// Connect starts the connection entry sequence
func (c *Controller) Connect() {
	c.post(connectMsg{})
}

// Transfer submits transfer(to, amount). Validation is the caller's job;
// the controller refuses a second transfer while one is outstanding.
func (c *Controller) Transfer(to common.Address, amount *big.Int) {
	c.post(transferMsg{To: to, Amount: amount})
}

// DismissTransactionError clears the transaction error and nothing else
func (c *Controller) DismissTransactionError() {
	c.post(dismissTxErrMsg{})
}

// DismissNetworkError clears the network error and nothing else
func (c *Controller) DismissNetworkError() {
	c.post(dismissNetErrMsg{})
}

// Close stops background work and the run loop. State is not reset:
// teardown is not a reset. Safe to call more than once.
func (c *Controller) Close() {
	c.closed.Do(func() { close(c.quit) })
}

func (c *Controller) post(m msg) {
	select {
	case c.inbox <- m:
	case <-c.quit:
	}
}

// postNonBlocking is for poller ticks: a dropped tick just means the next
// one does the work.
func (c *Controller) postNonBlocking(m msg) {
	select {
	case c.inbox <- m:
	default:
	}
}

// -------------------- run loop --------------------

func (c *Controller) run() {
	events := c.provider.Events()
	c.publish()

	for {
		select {
		case m := <-c.inbox:
			c.handle(m)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.handleWalletEvent(ev)
		case <-c.quit:
			if c.poller != nil {
				c.poller.Stop()
			}
			if c.sessCancel != nil {
				c.sessCancel()
			}
			close(c.updates)
			return
		}
	}
}

func (c *Controller) handle(m msg) {
	switch m := m.(type) {
	case connectMsg:
		c.startConnect()
	case connectedMsg:
		c.finishConnect(m)
	case tokenReadyMsg:
		c.finishTokenInit(m)
	case refreshMsg:
		if m.gen == c.gen {
			c.startRefresh(false)
		}
	case balanceMsg:
		c.applyBalance(m)
	case transferMsg:
		c.startTransfer(m)
	case txSubmittedMsg:
		c.applyTxSubmitted(m)
	case txSettledMsg:
		c.applyTxSettled(m)
	case dismissTxErrMsg:
		c.st.TxError = ""
		c.publish()
	case dismissNetErrMsg:
		c.st.NetworkError = ""
		c.publish()
	}
}

// publish pushes a snapshot without ever blocking the loop: when the buffer
// is full the oldest snapshot gives way.
func (c *Controller) publish() {
	snap := c.st.clone()
	for {
		select {
		case c.updates <- snap:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}

// resetTo atomically replaces the session: background work stops, in-flight
// results are invalidated by the generation bump, and consumers see a single
// transition to next.
func (c *Controller) resetTo(next State) {
	c.gen++
	if c.poller != nil {
		c.poller.Stop()
		c.poller = nil
	}
	if c.sessCancel != nil {
		c.sessCancel()
		c.sessCancel = nil
	}
	c.token = nil
	c.inFlight = false
	c.balSeq, c.balDone = 0, 0
	c.st = next
	c.publish()
}

// -------------------- connect sequence --------------------

func (c *Controller) startConnect() {
	if c.st.Status == StatusConnecting {
		return
	}
	c.resetTo(State{Status: StatusConnecting})
	c.sessCtx, c.sessCancel = context.WithCancel(context.Background())

	gen := c.gen
	sess := c.sessCtx
	c.logger.Info("connecting wallet")

	go func() {
		ctx, cancel := context.WithTimeout(sess, c.cfg.RPCTimeout)
		defer cancel()

		addr, err := c.provider.RequestAccounts(ctx)
		if err != nil {
			c.post(connectedMsg{gen: gen, err: err})
			return
		}
		netID, err := c.provider.NetworkID(ctx)
		if err != nil {
			c.post(connectedMsg{gen: gen, err: fmt.Errorf("network id: %w", err)})
			return
		}
		c.post(connectedMsg{gen: gen, addr: addr, netID: netID})
	}()
}

func (c *Controller) finishConnect(m connectedMsg) {
	if m.gen != c.gen {
		return
	}
	if m.err != nil {
		switch {
		case errors.Is(m.err, wallet.ErrUnavailable):
			c.logger.Warn("no wallet available")
			c.st = State{Status: StatusDisconnected, NoWallet: true}
		case errors.Is(m.err, wallet.ErrUserRejected):
			c.logger.Info("wallet connection rejected")
			c.st = State{Status: StatusDisconnected, NetworkError: "Wallet connection was rejected."}
		default:
			c.logger.Error("connect failed", "err", m.err)
			c.st = State{Status: StatusDisconnected, NetworkError: "Could not connect: " + m.err.Error()}
		}
		c.publish()
		return
	}

	if m.netID != c.cfg.AcceptedNetworkID {
		c.logger.Warn("wrong network", "got", m.netID, "want", c.cfg.AcceptedNetworkID)
		c.st = State{
			Status:    StatusNetworkMismatch,
			NetworkID: m.netID,
			NetworkError: fmt.Sprintf("Please connect your wallet to network %s (currently on %s).",
				c.cfg.AcceptedNetworkID, m.netID),
		}
		c.publish()
		return
	}

	c.logger.Info("wallet connected", "addr", m.addr.Hex(), "network", m.netID)
	c.st = State{Status: StatusConnected, Address: m.addr, NetworkID: m.netID}
	c.publish()
	c.initToken()
	c.startPolling()
}

func (c *Controller) initToken() {
	gen := c.gen
	sess := c.sessCtx

	go func() {
		ctx, cancel := context.WithTimeout(sess, c.cfg.RPCTimeout)
		defer cancel()

		client, err := c.factory(ctx)
		if err != nil {
			c.post(tokenReadyMsg{gen: gen, err: fmt.Errorf("bind token: %w", err)})
			return
		}
		name, err := client.Name(ctx)
		if err != nil {
			c.post(tokenReadyMsg{gen: gen, err: fmt.Errorf("token name: %w", err)})
			return
		}
		symbol, err := client.Symbol(ctx)
		if err != nil {
			c.post(tokenReadyMsg{gen: gen, err: fmt.Errorf("token symbol: %w", err)})
			return
		}
		c.post(tokenReadyMsg{gen: gen, client: client, info: TokenInfo{Name: name, Symbol: symbol}})
	}()
}

func (c *Controller) finishTokenInit(m tokenReadyMsg) {
	if m.gen != c.gen {
		return
	}
	if m.err != nil {
		// Without the token client the session cannot function; back out
		// and let the user retry from the connect screen.
		c.logger.Error("token init failed", "err", m.err)
		c.resetTo(State{Status: StatusDisconnected, NetworkError: "Failed to load token: " + m.err.Error()})
		return
	}
	c.logger.Info("token loaded", "name", m.info.Name, "symbol", m.info.Symbol)
	c.token = m.client
	c.st.Token = m.info
	c.publish()
	// Ticks so far were dropped for lack of a token; the first read happens
	// now, not at the next interval.
	c.startRefresh(true)
}

// -------------------- balance polling --------------------

func (c *Controller) startPolling() {
	gen := c.gen
	c.poller = NewPoller(c.cfg.PollInterval, func() {
		c.postNonBlocking(refreshMsg{gen: gen})
	})
	c.poller.Start()
}

// startRefresh spawns one balance read. Ticks are skipped while a read is
// outstanding; forced refreshes (token just loaded, transfer just confirmed)
// are not.
func (c *Controller) startRefresh(force bool) {
	if c.token == nil {
		return
	}
	if !force && c.balSeq > c.balDone {
		return
	}
	c.balSeq++
	gen, seq := c.gen, c.balSeq
	token, addr := c.token, c.st.Address
	sess := c.sessCtx

	go func() {
		ctx, cancel := context.WithTimeout(sess, c.cfg.RPCTimeout)
		defer cancel()

		bal, err := token.BalanceOf(ctx, addr)
		c.post(balanceMsg{gen: gen, seq: seq, balance: bal, err: err})
	}()
}

func (c *Controller) applyBalance(m balanceMsg) {
	if m.gen != c.gen || m.seq <= c.balDone {
		return
	}
	c.balDone = m.seq
	if m.err != nil {
		c.logger.Warn("balance refresh failed", "err", m.err)
		c.st.NetworkError = "Could not refresh balance: " + m.err.Error()
		c.publish()
		return
	}
	c.st.Balance = new(big.Int).Set(m.balance)
	c.st.BalanceAt = time.Now()
	c.publish()
}

// -------------------- wallet events --------------------

func (c *Controller) handleWalletEvent(ev wallet.Event) {
	switch ev := ev.(type) {
	case wallet.AccountsChangedEvent:
		if ev.Address == nil {
			c.logger.Info("wallet deauthorized")
			c.resetTo(State{Status: StatusDisconnected})
			return
		}
		c.logger.Info("account changed", "addr", ev.Address.Hex())
		c.resetTo(State{Status: StatusDisconnected})
		c.startConnect()
	case wallet.NetworkChangedEvent:
		c.logger.Info("network changed", "id", ev.NetworkID)
		c.resetTo(State{Status: StatusDisconnected})
	}
}
