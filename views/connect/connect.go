package connect

import (
	"strings"

	"token-dapp-tui/session"
	"token-dapp-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the connect view
func Nav(width int, st session.State) string {
	items := []string{}
	if st.Status != session.StatusConnecting && !st.NoWallet {
		items = append(items, styles.Key("c")+" connect")
	}
	if st.NetworkError != "" {
		items = append(items, styles.Key("n")+" dismiss error")
	}
	items = append(items,
		styles.Key("s")+" settings",
		styles.Key("h")+" home",
		styles.Key("l")+" debug log",
		styles.Key("Esc")+" quit",
	)

	return styles.NavStyle.Width(width).Render(strings.Join(items, "   "))
}

// Render renders the wallet connection screen for every pre-connected state
func Render(st session.State, spinnerView string) string {
	h := styles.TitleStyle.Render("Connect Wallet")

	var lines []string
	lines = append(lines, h, "")

	switch {
	case st.NoWallet:
		lines = append(lines,
			lipgloss.NewStyle().Foreground(styles.CWarn).Bold(true).Render("No Ethereum wallet was detected."),
			"",
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("The dev wallet has no accounts and no node to talk to."),
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Start a local Hardhat node and set ")+
				lipgloss.NewStyle().Foreground(styles.CAccent).Render("TOKEN_DAPP_KEYS")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" (or unset it to use the built-in dev keys)."),
		)

	case st.Status == session.StatusConnecting:
		lines = append(lines, spinnerView+" Waiting for the wallet to approve the connection…")

	case st.Status == session.StatusNetworkMismatch:
		lines = append(lines, styles.WarnBannerStyle.Render(st.NetworkError))
		lines = append(lines, "")
		lines = append(lines,
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Switch the node in ")+
				styles.Key("s")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" settings, or press ")+
				styles.Key("c")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to retry."))

	default:
		lines = append(lines,
			lipgloss.NewStyle().Foreground(styles.CText).Render("Connect your wallet to start using the token dapp."),
			"",
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Press ")+
				styles.Key("c")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to connect."))
		if st.NetworkError != "" {
			lines = append(lines, "", styles.ErrBannerStyle.Render(st.NetworkError))
			lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render("Press ")+
				styles.Key("n")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to dismiss."))
		}
	}

	return strings.Join(lines, "\n")
}
