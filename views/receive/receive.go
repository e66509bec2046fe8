package receive

import (
	"strings"

	"token-dapp-tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// Nav returns the navigation bar for the receive view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("c") + " copy address",
		styles.Key("h") + " home",
		styles.Key("l") + " debug log",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the receive view: the connected address as text and QR code
func Render(addr common.Address, qr string, copiedMsg string) string {
	h := styles.TitleStyle.Render("Receive")
	sub := lipgloss.NewStyle().Foreground(styles.CMuted).Render("Share this address to receive tokens.")

	if copiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	addrLine := lipgloss.NewStyle().Foreground(styles.CAccent).Bold(true).Render(addr.Hex())

	var b strings.Builder
	b.WriteString(h + "\n" + sub + "\n\n")
	b.WriteString(addrLine + "\n\n")
	if qr != "" {
		b.WriteString(qr)
	}

	return b.String()
}
