package main

import (
	"context"
	"time"

	"token-dapp-tui/rpc"
	"token-dapp-tui/session"
	"token-dapp-tui/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// waitForState blocks on the controller's update stream and delivers the
// next snapshot. The handler re-issues it, so exactly one reader is pending
// at any time.
func waitForState(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return stateUpdateMsg{state: st}
	}
}

// switchEndpoint dials a node and rebinds the dev wallet to it. The wallet
// announces the network change, which resets the session.
func switchEndpoint(w *wallet.Local, url string) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		if result.Error != nil {
			return endpointConnectedMsg{err: result.Error}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		err := w.SwitchEndpoint(ctx, result.Client)
		return endpointConnectedMsg{client: result.Client, err: err}
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// copyToClipboard copies text to system clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{}
		}
		return nil
	}
}

// clearClipboardMsg clears the clipboard notification after a delay
func clearClipboardMsg() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return struct{ clearClipboard bool }{true}
	})
}

// addLog writes a message to the log panel
func (m *model) addLog(logType, message string) {
	if !m.logEnabled || !m.logReady || m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the log viewport from the shared buffer
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}

	content := m.logBuffer.String()
	m.logViewport.SetContent(content)
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	if m.importing {
		return true
	}
	if m.showTransferForm && m.transferForm != nil {
		return true
	}
	if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		return true
	}
	return false
}
