package main

import (
	"fmt"
	"strings"
	"time"

	"token-dapp-tui/config"
	"token-dapp-tui/helpers"
	"token-dapp-tui/rpc"
	"token-dapp-tui/session"
	"token-dapp-tui/views/home"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempTransferTo     string
	tempTransferAmount string
	tempRPCFormName    string
	tempRPCFormURL     string
)

func (m *model) createTransferForm() {
	tempTransferTo = ""
	tempTransferAmount = ""

	m.transferForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Recipient").
				Description("Enter a valid Ethereum address (Ctrl+v to paste)").
				Value(&tempTransferTo).
				Placeholder("0x...").
				Validate(func(s string) error {
					if !helpers.IsValidEthAddress(strings.TrimSpace(s)) {
						return fmt.Errorf("invalid ethereum address")
					}
					return nil
				}),

			huh.NewInput().
				Title("Amount of "+m.st.Token.Symbol).
				Description("Available: "+helpers.FormatAmount(m.st.Balance, m.st.Token.Symbol)).
				Value(&tempTransferAmount).
				Placeholder("1").
				Validate(func(s string) error {
					n, err := helpers.ParseAmount(s)
					if err != nil {
						return err
					}
					if m.st.Balance != nil && n.Cmp(m.st.Balance) > 0 {
						return fmt.Errorf("amount exceeds balance")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.transferForm.Init()
}

func (m *model) createAddRPCForm() {
	tempRPCFormName = ""
	tempRPCFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Description("A friendly name for this RPC endpoint").
				Value(&tempRPCFormName).
				Placeholder("Hardhat").
				Validate(func(s string) error {
					if m.cfg.HasRPC(strings.TrimSpace(s)) {
						return fmt.Errorf("an endpoint with this name already exists")
					}
					return nil
				}),

			huh.NewInput().
				Title("RPC URL").
				Description("The complete RPC URL (http://...)").
				Value(&tempRPCFormURL).
				Placeholder("http://127.0.0.1:8545"),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

func (m *model) createEditRPCForm(idx int) {
	if idx < 0 || idx >= len(m.cfg.RPCURLs) {
		return
	}

	entry := m.cfg.RPCURLs[idx]
	tempRPCFormName = entry.Name
	tempRPCFormURL = entry.URL

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Value(&tempRPCFormName).
				Placeholder("My Node"),

			huh.NewInput().
				Title("RPC URL").
				Value(&tempRPCFormURL).
				Placeholder("http://..."),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

// logStateChanges mirrors controller transitions into the log panel
func (m *model) logStateChanges(prev session.State) {
	st := m.st

	if st.Status != prev.Status {
		m.addLog("info", fmt.Sprintf("Session: %s → %s", prev.Status, st.Status))
	}
	if st.Status == session.StatusConnected && st.Address != prev.Address {
		m.addLog("success", fmt.Sprintf("Connected as `%s` on network %s", helpers.ShortenAddr(st.Address.Hex()), st.NetworkID))
	}
	if st.Token != prev.Token && st.Token.Symbol != "" {
		m.addLog("success", fmt.Sprintf("Token loaded: %s (%s)", st.Token.Name, st.Token.Symbol))
	}
	if st.Pending != nil && prev.Pending == nil {
		m.addLog("info", fmt.Sprintf("Transaction submitted: %s", st.Pending.Hash))
	}
	if prev.Pending != nil && st.Pending == nil {
		if st.TxError != "" {
			m.addLog("error", st.TxError)
		} else {
			m.addLog("success", "Transaction confirmed")
		}
	}
	if st.TxError != "" && st.TxError != prev.TxError && prev.Pending == nil {
		m.addLog("error", st.TxError)
	}
	if st.NetworkError != "" && st.NetworkError != prev.NetworkError {
		m.addLog("error", st.NetworkError)
	}
	if st.Balance != nil && (prev.Balance == nil || st.Balance.Cmp(prev.Balance) != 0) {
		m.addLog("debug", fmt.Sprintf("Balance: %s", helpers.FormatAmount(st.Balance, st.Token.Symbol)))
	}
}

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Session and app lifecycle messages come first: an open form must never
	// swallow a snapshot, or the update stream would stall.
	switch msg := msg.(type) {

	case stateUpdateMsg:
		prev := m.st
		m.st = msg.state
		m.logStateChanges(prev)
		// Keep the receive QR in step with the active account
		if m.st.Status == session.StatusConnected && m.st.Address != m.receiveQRAddr {
			m.receiveQR = rpc.GenerateQRCode("ethereum:" + m.st.Address.Hex())
			m.receiveQRAddr = m.st.Address
		}
		return m, waitForState(m.updates)

	case sessionClosedMsg:
		return m, tea.Quit

	case endpointConnectedMsg:
		m.rpcSwitching = false
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Endpoint switch failed: %s", msg.err.Error()))
		} else if msg.client != nil {
			m.addLog("success", fmt.Sprintf("Wallet now on `%s`", msg.client.URL))
		}
		return m, nil

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logReady = true
		m.addLog("info", "Logger enabled")
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height

		if m.logEnabled {
			// Width accounts for border and padding
			m.logViewport.Width = max(0, msg.Width-6)
			if m.logReady {
				m.updateLogViewport()
			}
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied to clipboard"
		m.copiedMsgTime = time.Now()
		return m, clearClipboardMsg()
	}

	// Home menu form
	if m.activePage == config.PageHome && m.homeForm != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.homeForm = nil
			m.activePage = config.PageDashboard
			return m, nil
		}

		form, cmd := m.homeForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.homeForm = f

			if m.homeForm.State == huh.StateCompleted {
				selection := home.TempSelection
				m.homeForm = nil
				switch selection {
				case "dashboard":
					m.activePage = config.PageDashboard
				case "accounts":
					m.activePage = config.PageAccounts
					m.selectedAccount = 0
				case "settings":
					m.activePage = config.PageSettings
					m.settingsMode = "list"
				case "receive":
					m.activePage = config.PageReceive
				case "quit":
					m.sess.Close()
					return m, tea.Quit
				default:
					m.activePage = config.PageDashboard
				}
				return m, nil
			}

			if m.homeForm.State == huh.StateAborted {
				m.homeForm = nil
				m.activePage = config.PageDashboard
				return m, nil
			}
		}
		return m, cmd
	}

	// Transfer form on the dashboard
	if m.activePage == config.PageDashboard && m.showTransferForm && m.transferForm != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.showTransferForm = false
			m.transferForm = nil
			return m, nil
		}

		form, cmd := m.transferForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.transferForm = f

			if m.transferForm.State == huh.StateCompleted {
				to := common.HexToAddress(strings.TrimSpace(tempTransferTo))
				amount, err := helpers.ParseAmount(tempTransferAmount)
				m.showTransferForm = false
				m.transferForm = nil
				if err != nil {
					// The form validated this already; a failure here means
					// the inputs changed under us, so just drop the attempt.
					m.addLog("error", fmt.Sprintf("Bad amount: %v", err))
					return m, nil
				}
				m.confirmTo = to.Hex()
				m.confirmAmount = amount
				m.confirmYesSelected = true
				m.showConfirmDialog = true
				return m, nil
			}

			if m.transferForm.State == huh.StateAborted {
				m.showTransferForm = false
				m.transferForm = nil
				return m, nil
			}
		}
		return m, cmd
	}

	// RPC add/edit form on the settings page
	if m.activePage == config.PageSettings && (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.settingsMode = "list"
			m.form = nil
			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f

			if m.form.State == huh.StateCompleted {
				if m.settingsMode == "add" {
					if tempRPCFormName != "" && tempRPCFormURL != "" {
						m.cfg.RPCURLs = append(m.cfg.RPCURLs, config.RPCUrl{Name: tempRPCFormName, URL: tempRPCFormURL})
						config.Save(m.configPath, m.cfg)
						m.addLog("success", fmt.Sprintf("Added RPC endpoint: `%s` (%s)", tempRPCFormName, tempRPCFormURL))
					}
				} else if m.settingsMode == "edit" {
					if m.selectedRPCIdx >= 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
						m.cfg.RPCURLs[m.selectedRPCIdx].Name = tempRPCFormName
						m.cfg.RPCURLs[m.selectedRPCIdx].URL = tempRPCFormURL
						config.Save(m.configPath, m.cfg)
						m.addLog("success", fmt.Sprintf("Updated RPC endpoint: `%s`", tempRPCFormName))
					}
				}
				m.settingsMode = "list"
				m.form = nil
				// Return without the form's cmd to ensure we're back in list mode
				return m, nil
			}

			if m.form.State == huh.StateAborted {
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}
		}
		return m, cmd
	}

	switch msg := msg.(type) {

	case tea.KeyMsg:
		// Transfer confirmation dialog eats all keys while open
		if m.showConfirmDialog {
			switch msg.String() {
			case "left", "right", "tab":
				m.confirmYesSelected = !m.confirmYesSelected
				return m, nil
			case "enter":
				if m.confirmYesSelected && m.confirmAmount != nil {
					to := common.HexToAddress(m.confirmTo)
					m.addLog("info", fmt.Sprintf("Sending %s to %s", helpers.FormatAmount(m.confirmAmount, m.st.Token.Symbol), helpers.ShortenAddr(m.confirmTo)))
					m.sess.Transfer(to, m.confirmAmount)
				}
				m.showConfirmDialog = false
				m.confirmAmount = nil
				return m, nil
			case "esc":
				m.showConfirmDialog = false
				m.confirmAmount = nil
				return m, nil
			}
			return m, nil
		}

		// RPC delete dialog
		if m.activePage == config.PageSettings && m.showRPCDeleteDialog {
			switch msg.String() {
			case "left", "right", "tab":
				m.deleteRPCDialogYesSelected = !m.deleteRPCDialogYesSelected
				return m, nil
			case "enter":
				if m.deleteRPCDialogYesSelected {
					idx := m.deleteRPCDialogIdx
					deletedName := m.deleteRPCDialogName
					if idx >= 0 && idx < len(m.cfg.RPCURLs) {
						m.cfg.RPCURLs = append(m.cfg.RPCURLs[:idx], m.cfg.RPCURLs[idx+1:]...)
						if m.selectedRPCIdx >= len(m.cfg.RPCURLs) && m.selectedRPCIdx > 0 {
							m.selectedRPCIdx--
						}
						config.Save(m.configPath, m.cfg)
						m.addLog("warning", fmt.Sprintf("Deleted RPC endpoint `%s`", deletedName))
					}
				}
				m.showRPCDeleteDialog = false
				return m, nil
			case "esc":
				m.showRPCDeleteDialog = false
				return m, nil
			}
			return m, nil
		}

		allowMenuHotkeys := !m.textInputActive()
		// global keys
		if allowMenuHotkeys {
			switch msg.String() {
			case "ctrl+c", "q":
				m.sess.Close()
				return m, tea.Quit

			case "l", "L":
				// Toggle logger
				m.logEnabled = !m.logEnabled
				m.cfg.Logger = m.logEnabled
				config.Save(m.configPath, m.cfg)
				if m.logEnabled {
					if m.w > 0 {
						m.logViewport.Width = m.w - 6
					}
					m.logReady = false
					return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
				}
				// Hide the panel and drop its backlog. The logger itself
				// stays up because the session controller shares it.
				if m.logBuffer != nil {
					m.logBuffer.Reset()
				}
				m.logReady = false
				return m, nil

			case "pageup", "pagedown":
				// Allow scrolling in log viewport when enabled
				if m.logEnabled && m.logReady {
					var cmd tea.Cmd
					m.logViewport, cmd = m.logViewport.Update(msg)
					return m, cmd
				}
			}
		}

		// page-specific behavior
		switch m.activePage {

		case config.PageHome:
			// Form handles its own keys; nothing to do without one
			return m, nil

		case config.PageDashboard:
			switch msg.String() {
			case "c", "C", "enter":
				if m.st.Status == session.StatusDisconnected || m.st.Status == session.StatusNetworkMismatch {
					m.addLog("info", "Connecting wallet…")
					m.sess.Connect()
				}
				return m, nil

			case "t", "T":
				// Zero balance shows the no-tokens view instead of a form
				if m.st.Ready() && m.st.Pending == nil && m.st.Balance.Sign() > 0 {
					m.createTransferForm()
					m.showTransferForm = true
				}
				return m, nil

			case "x", "X":
				if m.st.TxError != "" {
					m.sess.DismissTransactionError()
				}
				return m, nil

			case "y", "Y":
				if m.st.Pending != nil {
					return m, copyToClipboard(m.st.Pending.Hash)
				}
				return m, nil

			case "n", "N":
				if m.st.NetworkError != "" {
					m.sess.DismissNetworkError()
				}
				return m, nil

			case "a", "A":
				m.activePage = config.PageAccounts
				m.selectedAccount = 0
				return m, nil

			case "s", "S":
				m.activePage = config.PageSettings
				m.settingsMode = "list"
				return m, nil

			case "r", "R":
				if m.st.Status == session.StatusConnected {
					m.activePage = config.PageReceive
				}
				return m, nil

			case "h", "H":
				m.homeForm = home.CreateForm()
				m.activePage = config.PageHome
				return m, nil

			case "esc":
				m.sess.Close()
				return m, tea.Quit
			}
			return m, nil

		case config.PageAccounts:
			// import flow
			if m.importing {
				switch msg.String() {
				case "esc", "escape":
					m.importing = false
					m.keyInput.SetValue("")
					m.keyInput.Blur()
					m.importError = ""
					return m, nil
				case "ctrl+v":
					text, err := clipboard.ReadAll()
					if err == nil && text != "" {
						m.keyInput.SetValue(strings.TrimSpace(text))
					}
					return m, nil
				case "enter":
					addr, err := m.devWallet.ImportKey(m.keyInput.Value())
					if err != nil {
						m.importError = "Not a valid private key"
						m.importErrTime = time.Now()
						m.keyInput.SetValue("")
						return m, nil
					}
					m.importing = false
					m.keyInput.SetValue("")
					m.keyInput.Blur()
					m.importError = ""
					m.selectedAccount = len(m.devWallet.Accounts()) - 1
					m.addLog("success", fmt.Sprintf("Imported account `%s`", helpers.ShortenAddr(addr.Hex())))
					return m, nil
				}

				var cmd tea.Cmd
				m.keyInput, cmd = m.keyInput.Update(msg)
				return m, cmd
			}

			accounts := m.devWallet.Accounts()
			switch msg.String() {
			case "up", "k":
				if m.selectedAccount > 0 {
					m.selectedAccount--
				}
				return m, nil

			case "down", "j":
				if m.selectedAccount < len(accounts)-1 {
					m.selectedAccount++
				}
				return m, nil

			case "enter":
				// Activate the selected account. The wallet event resets
				// the session and reconnects as the new account.
				if m.selectedAccount >= 0 && m.selectedAccount < len(accounts) {
					if err := m.devWallet.Switch(m.selectedAccount); err == nil {
						m.addLog("info", fmt.Sprintf("Switched to account `%s`", helpers.ShortenAddr(accounts[m.selectedAccount].Hex())))
					}
				}
				return m, nil

			case "i", "I":
				m.importing = true
				m.keyInput.SetValue("")
				m.keyInput.Focus()
				m.importError = ""
				return m, nil

			case "c", "C":
				if m.selectedAccount >= 0 && m.selectedAccount < len(accounts) {
					return m, copyToClipboard(accounts[m.selectedAccount].Hex())
				}
				return m, nil

			case "x", "X":
				m.devWallet.Lock()
				m.addLog("warning", "Wallet locked")
				return m, nil

			case "h", "H":
				m.homeForm = home.CreateForm()
				m.activePage = config.PageHome
				return m, nil

			case "esc", "backspace":
				m.activePage = config.PageDashboard
				return m, nil
			}
			return m, nil

		case config.PageSettings:
			// Only handle list mode controls here (form handled at top of Update)
			if m.settingsMode == "list" {
				switch msg.String() {
				case "esc":
					m.activePage = config.PageDashboard
					return m, nil

				case "a", "A":
					m.settingsMode = "add"
					m.createAddRPCForm()
					return m, nil

				case "e", "E":
					if len(m.cfg.RPCURLs) > 0 {
						m.settingsMode = "edit"
						m.createEditRPCForm(m.selectedRPCIdx)
					}
					return m, nil

				case "delete", "backspace", "d", "D":
					if len(m.cfg.RPCURLs) > 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
						m.showRPCDeleteDialog = true
						m.deleteRPCDialogYesSelected = true
						m.deleteRPCDialogIdx = m.selectedRPCIdx
						name := strings.TrimSpace(m.cfg.RPCURLs[m.selectedRPCIdx].Name)
						if name == "" {
							name = m.cfg.RPCURLs[m.selectedRPCIdx].URL
						}
						m.deleteRPCDialogName = name
					}
					return m, nil

				case "up", "k":
					if m.selectedRPCIdx > 0 {
						m.selectedRPCIdx--
					}
					return m, nil

				case "down", "j":
					if m.selectedRPCIdx < len(m.cfg.RPCURLs)-1 {
						m.selectedRPCIdx++
					}
					return m, nil

				case "h", "H":
					m.homeForm = home.CreateForm()
					m.activePage = config.PageHome
					return m, nil

				case "enter", " ":
					// Activate and rebind the wallet to the endpoint. The
					// session resets; reconnect happens from the dashboard.
					if len(m.cfg.RPCURLs) > 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
						url := m.cfg.RPCURLs[m.selectedRPCIdx].URL
						m.cfg.SetActiveRPC(url)
						config.Save(m.configPath, m.cfg)
						m.rpcSwitching = true
						m.addLog("info", fmt.Sprintf("Switching endpoint to `%s`", url))
						return m, switchEndpoint(m.devWallet, url)
					}
					return m, nil
				}
			}
			return m, nil

		case config.PageReceive:
			switch msg.String() {
			case "c", "C", "y", "Y":
				if m.st.Status == session.StatusConnected {
					return m, copyToClipboard(m.st.Address.Hex())
				}
				return m, nil

			case "h", "H":
				m.homeForm = home.CreateForm()
				m.activePage = config.PageHome
				return m, nil

			case "esc", "backspace":
				m.activePage = config.PageDashboard
				return m, nil
			}
			return m, nil
		}

	default:
		// Clear clipboard message after timeout
		if msg, ok := msg.(struct{ clearClipboard bool }); ok && msg.clearClipboard {
			if time.Since(m.copiedMsgTime) >= 2*time.Second {
				m.copiedMsg = ""
			}
		}
	}

	return m, tea.Batch(cmds...)
}
