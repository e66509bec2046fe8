package accounts

import (
	"fmt"
	"strings"

	"token-dapp-tui/helpers"
	"token-dapp-tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// Nav returns the navigation bar for the accounts view
func Nav(width int, importing bool) string {
	if importing {
		return styles.NavStyle.Width(width).Render(
			styles.Key("Enter") + " import   " + styles.Key("Ctrl+v") + " paste   " + styles.Key("Esc") + " cancel")
	}

	left := strings.Join([]string{
		styles.Key("↑/↓") + " move",
		styles.Key("Enter") + " activate",
		styles.Key("c") + " copy",
		styles.Key("i") + " import key",
		styles.Key("x") + " lock wallet",
		styles.Key("h") + " home",
		styles.Key("l") + " debug log",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// renderList renders the account list with the active account marked
func renderList(accounts []common.Address, active *common.Address, selectedIdx int) string {
	if len(accounts) == 0 {
		return lipgloss.NewStyle().Foreground(styles.CMuted).Render("The wallet is locked. Press 'i' to import a private key.")
	}

	var listItems []string
	for i, acct := range accounts {
		addr := acct.Hex()

		var itemStyle lipgloss.Style
		var marker string
		var fullAddr, shortAddr string

		if i == selectedIdx {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
			itemStyle = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true)
			fullAddr = lipgloss.NewStyle().Foreground(styles.CText).Render(addr)
			shortAddr = helpers.ShortenAddr(addr)
		} else {
			marker = "  "
			itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1a2aa"))
			fullAddr = helpers.FadeString(addr, "#7D5AFC", "#FF87D7")
			shortAddr = helpers.FadeString(helpers.ShortenAddr(addr), "#F25D94", "#EDFF82")
		}

		if active != nil && acct == *active {
			shortAddr = "✓ " + shortAddr
		}
		listItems = append(listItems, marker+itemStyle.Render(shortAddr)+"\n  "+fullAddr)
	}

	return strings.Join(listItems, "\n\n")
}

// Render renders the full accounts view
func Render(accounts []common.Address, active *common.Address, selectedIdx int, copiedMsg string) string {
	header := styles.TitleStyle.Render("Accounts")
	subtitle := lipgloss.NewStyle().Foreground(styles.CMuted).Render("Dev wallet accounts. The active account signs transfers.")
	if copiedMsg != "" {
		subtitle += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	listView := renderList(accounts, active, selectedIdx)

	statusBar := lipgloss.NewStyle().Foreground(styles.CMuted).Render(
		fmt.Sprintf("%d accounts", len(accounts)),
	)

	return header + "\n" + subtitle + "\n\n" + listView + "\n\n" + statusBar
}
