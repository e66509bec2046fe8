package main

import (
	"fmt"
	"strings"
	"time"

	"token-dapp-tui/config"
	"token-dapp-tui/helpers"
	"token-dapp-tui/session"
	"token-dapp-tui/styles"
	"token-dapp-tui/views/accounts"
	"token-dapp-tui/views/connect"
	"token-dapp-tui/views/dashboard"
	"token-dapp-tui/views/home"
	logview "token-dapp-tui/views/log"
	"token-dapp-tui/views/receive"
	"token-dapp-tui/views/settings"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

func (m model) renderConfirmDialog() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 0).
				BorderTop(true).
				BorderLeft(true).
				BorderRight(true).
				BorderBottom(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.Copy().
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)
	msg := helpers.FadeString(
		fmt.Sprintf("Send %s to %s?", helpers.FormatAmount(m.confirmAmount, m.st.Token.Symbol), helpers.ShortenAddr(m.confirmTo)),
		"#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	// Apply active style to the selected button
	var okButton, cancelButton string
	if m.confirmYesSelected {
		okButton = activeButtonStyle.Render("Send")
		cancelButton = buttonStyle.Render("Cancel")
	} else {
		okButton = buttonStyle.Copy().MarginRight(2).Render("Send")
		cancelButton = activeButtonStyle.Copy().MarginRight(0).Render("Cancel")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	dialog := dialogBoxStyle.Render(ui)

	// Center the dialog on screen
	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m model) renderRPCDeleteDialog() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 0).
				BorderTop(true).
				BorderLeft(true).
				BorderRight(true).
				BorderBottom(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.Copy().
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)
	msg := helpers.FadeString("Are you sure you want to delete the RPC endpoint "+m.deleteRPCDialogName+"?", "#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	var okButton, cancelButton string
	if m.deleteRPCDialogYesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.Copy().MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.Copy().MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	dialog := dialogBoxStyle.Render(ui)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m *model) globalHeader() string {
	availableWidth := max(0, m.w-8) // Account for panel padding

	// Active account
	var addrDisplay string
	if m.st.Status == session.StatusConnected {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: " + helpers.FadeString(helpers.ShortenAddr(m.st.Address.Hex()), "#F25D94", "#EDFF82"))
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: not connected")
	}

	// Session status with colored dot
	var statusIcon string
	var statusColor lipgloss.Color
	var statusText string

	switch {
	case m.rpcSwitching:
		statusIcon = "○"
		statusColor = cWarn
		statusText = "Switching node..."
	case m.st.Status == session.StatusConnecting:
		statusIcon = "○"
		statusColor = cWarn
		statusText = "Connecting..."
	case m.st.Status == session.StatusNetworkMismatch:
		statusIcon = "○"
		statusColor = cWarn
		statusText = "Wrong Network"
	case m.st.Status == session.StatusConnected:
		statusIcon = "●"
		statusColor = cAccent
		statusText = m.cfg.ActiveRPC().Name
		if statusText == "" {
			statusText = "Connected"
		}
	default:
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		if m.st.NoWallet {
			statusText = "No Wallet"
		} else {
			statusText = "Disconnected"
		}
	}

	rpcDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	// Center title
	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("token dapp", "#7EE787", "#82CFFD"))

	// Calculate widths
	addrWidth := lipgloss.Width(addrDisplay)
	rpcWidth := lipgloss.Width(rpcDisplay)
	titleWidth := lipgloss.Width(titleText)

	totalOtherWidth := addrWidth + rpcWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = addrDisplay + "\n" + titleText + "\n" + rpcDisplay
	} else {
		// Three-column layout: Account | Title (centered) | Status
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		leftSpacer := strings.Repeat(" ", max(1, leftPadding))
		rightSpacer := strings.Repeat(" ", max(1, rightPadding))

		headerLine = addrDisplay + leftSpacer + titleText + rightSpacer + rpcDisplay
	}

	// Add separator line
	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

func (m *model) View() string {
	// Render global header outside of page content
	globalHdr := m.globalHeader()
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(globalHdr)

	var pageContent string
	var nav string

	switch m.activePage {
	case config.PageHome:
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(home.Render(m.homeForm))
		nav = home.Nav(m.w - 2)

	case config.PageDashboard:
		if m.st.Status != session.StatusConnected {
			pageContent = panelStyle.Width(max(0, m.w-2)).Render(connect.Render(m.st, m.spin.View()))
			nav = connect.Nav(m.w-2, m.st)
		} else {
			var formView string
			if m.showTransferForm && m.transferForm != nil {
				formView = m.transferForm.View()
			}
			content := dashboard.Render(m.st, m.spin.View(), formView, m.copiedMsg)
			pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
			nav = dashboard.Nav(m.w-2, m.st, m.showTransferForm)
		}

		// Confirmation dialog overlays the page
		if m.showConfirmDialog {
			return m.renderConfirmDialog()
		}

	case config.PageAccounts:
		content := accounts.Render(m.devWallet.Accounts(), m.devWallet.Active(), m.selectedAccount, m.copiedMsg)

		// Show import form if in importing mode
		if m.importing {
			inputView := m.keyInput.View() + "\n"
			inputView += hotkeyStyle.Render("Enter") + " import   " +
				hotkeyStyle.Render("Esc") + " cancel   " +
				hotkeyStyle.Render("Ctrl+v") + " paste"

			// Show error message if present and recent
			if m.importError != "" && time.Since(m.importErrTime) < 3*time.Second {
				errorStyle := lipgloss.NewStyle().Foreground(cWarn).Bold(true)
				inputView += "\n" + errorStyle.Render(m.importError)
			}

			content += "\n\n" + panelStyle.
				BorderForeground(cAccent2).
				Render(inputView)
		}

		pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
		nav = accounts.Nav(m.w-2, m.importing)

	case config.PageSettings:
		settingsContent := settings.Render(m.cfg.RPCURLs, m.selectedRPCIdx)

		// Show form if in add/edit mode
		if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
			settingsContent = styles.TitleStyle.Render("Node Settings") + "\n\n" + m.form.View()
		}

		pageContent = panelStyle.Width(max(0, m.w-2)).Render(settingsContent)
		nav = settings.Nav(m.w-2, m.settingsMode)

		if m.showRPCDeleteDialog {
			return m.renderRPCDeleteDialog()
		}

	case config.PageReceive:
		content := receive.Render(m.st.Address, m.receiveQR, m.copiedMsg)
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
		nav = receive.Nav(m.w - 2)
	}

	// Render log panel only if enabled
	if m.logEnabled {
		// Ensure viewport height stays in sync with the rendered panel
		reservedHeight := 10
		availableHeight := max(5, m.h-reservedHeight)
		maxLogHeight := min(m.h/3, 15)
		logPanelHeight := min(availableHeight, maxLogHeight)
		m.logViewport.Height = logPanelHeight

		logPanel := logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport)
		content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav, logPanel)
		return appStyle.Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav)
	return appStyle.Render(content)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
