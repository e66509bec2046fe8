package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

// -------------------- MAIN --------------------

func main() {
	// Local overrides (TOKEN_DAPP_*) live in .env during development
	_ = godotenv.Load()

	m := newModel()
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
