package session

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"token-dapp-tui/wallet"
)

// The transfer lifecycle, in order: clear the stale error, submit, record
// the pending hash, await the receipt, classify it, refresh the balance on
// success, and always drop the pending hash at the end.

func (c *Controller) startTransfer(m transferMsg) {
	if c.st.Status != StatusConnected || c.token == nil {
		c.logger.Warn("transfer ignored: no active session")
		return
	}
	if c.inFlight {
		c.logger.Warn("transfer ignored: another one is outstanding")
		return
	}
	if m.Amount == nil || m.Amount.Sign() <= 0 {
		c.logger.Warn("transfer ignored: bad amount")
		return
	}

	c.inFlight = true
	c.st.TxError = ""
	c.publish()
	c.logger.Info("submitting transfer", "to", m.To.Hex(), "amount", m.Amount.String())

	go c.runTransfer(c.gen, c.sessCtx, c.token, m.To, m.Amount)
}

func (c *Controller) runTransfer(gen uint64, sess context.Context, token TokenClient, to common.Address, amount *big.Int) {
	submitCtx, cancel := context.WithTimeout(sess, c.cfg.RPCTimeout)
	hash, err := token.Transfer(submitCtx, to, amount)
	cancel()
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			c.post(txSettledMsg{gen: gen, outcome: TxRejectedByUser})
			return
		}
		c.post(txSettledMsg{gen: gen, outcome: TxFailed, errText: err.Error()})
		return
	}
	c.post(txSubmittedMsg{gen: gen, hash: hash})

	waitCtx, cancel := context.WithTimeout(sess, c.cfg.ConfirmTimeout)
	defer cancel()
	receipt, err := token.WaitMined(waitCtx, hash)
	if err != nil {
		c.post(txSettledMsg{gen: gen, outcome: TxFailed, errText: "Transaction not confirmed: " + err.Error()})
		return
	}
	if receipt.Status == types.ReceiptStatusFailed {
		c.post(txSettledMsg{gen: gen, outcome: TxFailed, errText: "Transaction failed"})
		return
	}
	c.post(txSettledMsg{gen: gen, outcome: TxConfirmed})
}

func (c *Controller) applyTxSubmitted(m txSubmittedMsg) {
	if m.gen != c.gen {
		return
	}
	c.logger.Info("transfer accepted", "tx", m.hash.Hex())
	c.st.Pending = &PendingTx{Hash: m.hash.Hex(), SubmittedAt: time.Now()}
	c.publish()
}

func (c *Controller) applyTxSettled(m txSettledMsg) {
	if m.gen != c.gen {
		return
	}
	c.inFlight = false
	c.st.Pending = nil

	switch m.outcome {
	case TxRejectedByUser:
		// The user declined in their wallet; they know, nothing to surface.
		c.logger.Info("transfer rejected by user")
	case TxFailed:
		c.logger.Error("transfer failed", "err", m.errText)
		c.st.TxError = m.errText
	case TxConfirmed:
		c.logger.Info("transfer confirmed")
		c.startRefresh(true)
	}
	c.publish()
}
