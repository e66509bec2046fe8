package dashboard

import (
	"fmt"
	"strings"

	"token-dapp-tui/helpers"
	"token-dapp-tui/session"
	"token-dapp-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the dashboard view
func Nav(width int, st session.State, formActive bool) string {
	if formActive {
		return styles.NavStyle.Width(width).Render(
			styles.Key("Tab") + " next field   " + styles.Key("Enter") + " submit   " + styles.Key("Esc") + " cancel")
	}

	items := []string{}
	if st.Ready() && st.Pending == nil && st.Balance.Sign() > 0 {
		items = append(items, styles.Key("t")+" transfer")
	}
	if st.Pending != nil {
		items = append(items, styles.Key("y")+" copy tx hash")
	}
	if st.TxError != "" {
		items = append(items, styles.Key("x")+" dismiss error")
	}
	if st.NetworkError != "" {
		items = append(items, styles.Key("n")+" dismiss warning")
	}
	items = append(items,
		styles.Key("r")+" receive",
		styles.Key("a")+" accounts",
		styles.Key("s")+" settings",
		styles.Key("h")+" home",
		styles.Key("l")+" debug log",
		styles.Key("Esc")+" quit",
	)

	return styles.NavStyle.Width(width).Render(strings.Join(items, "   "))
}

// Render renders the token dashboard for a connected session
func Render(st session.State, spinnerView string, formView string, copiedMsg string) string {
	var lines []string

	if !st.Ready() {
		lines = append(lines,
			styles.TitleStyle.Render("Dashboard"),
			"",
			spinnerView+" Loading token data…")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, styles.TitleStyle.Render(fmt.Sprintf("%s (%s)", st.Token.Name, st.Token.Symbol)), "")

	welcome := fmt.Sprintf("Welcome %s, you have %s.",
		lipgloss.NewStyle().Bold(true).Render(helpers.ShortenAddr(st.Address.Hex())),
		lipgloss.NewStyle().Bold(true).Foreground(styles.CAccent).Render(helpers.FormatAmount(st.Balance, st.Token.Symbol)))
	lines = append(lines, welcome)
	lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render(
		"balance refreshed: "+helpers.LoadedAt(st.BalanceAt, false)))

	if st.Pending != nil {
		pending := styles.PendingStyle.Render(fmt.Sprintf(
			"%s Waiting for transaction %s to be mined (sent %s)",
			spinnerView, helpers.ShortenAddr(st.Pending.Hash), st.Pending.SubmittedAt.Format("15:04:05")))
		if copiedMsg != "" {
			pending += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
		}
		lines = append(lines, "", pending)
	}

	if st.TxError != "" {
		lines = append(lines, "", styles.ErrBannerStyle.Render(st.TxError),
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("press ")+styles.Key("x")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to dismiss"))
	}

	if st.NetworkError != "" {
		lines = append(lines, "", styles.WarnBannerStyle.Render(st.NetworkError),
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("press ")+styles.Key("n")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to dismiss"))
	}

	switch {
	case formView != "":
		lines = append(lines, "", formView)

	case st.Balance.Sign() == 0:
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(styles.CWarn).Render("You don't have tokens to transfer."),
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Ask a faucet to fund ")+
				lipgloss.NewStyle().Foreground(styles.CAccent).Render(st.Address.Hex())+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(", or press ")+
				styles.Key("r")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to show it as a QR code."))

	case st.Pending == nil:
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Press ")+
				styles.Key("t")+
				lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to transfer tokens."))
	}

	return strings.Join(lines, "\n")
}
