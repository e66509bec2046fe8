package session

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Everything that can happen to a session arrives at the run loop as one of
// these messages: user actions, wallet events and async results alike.
type msg interface{ sessionMsg() }

// user actions

type connectMsg struct{}

type transferMsg struct {
	To     common.Address
	Amount *big.Int
}

type dismissTxErrMsg struct{}

type dismissNetErrMsg struct{}

// async results, tagged with the generation that started them

type connectedMsg struct {
	gen   uint64
	addr  common.Address
	netID string
	err   error
}

type tokenReadyMsg struct {
	gen    uint64
	client TokenClient
	info   TokenInfo
	err    error
}

type refreshMsg struct {
	gen uint64
}

type balanceMsg struct {
	gen     uint64
	seq     uint64
	balance *big.Int
	err     error
}

type txSubmittedMsg struct {
	gen  uint64
	hash common.Hash
}

type txSettledMsg struct {
	gen     uint64
	outcome TxOutcome
	errText string
}

func (connectMsg) sessionMsg()       {}
func (transferMsg) sessionMsg()      {}
func (dismissTxErrMsg) sessionMsg()  {}
func (dismissNetErrMsg) sessionMsg() {}
func (connectedMsg) sessionMsg()     {}
func (tokenReadyMsg) sessionMsg()    {}
func (refreshMsg) sessionMsg()       {}
func (balanceMsg) sessionMsg()       {}
func (txSubmittedMsg) sessionMsg()   {}
func (txSettledMsg) sessionMsg()     {}
