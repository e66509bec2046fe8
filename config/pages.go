package config

// Page identifies a top-level view of the app
type Page int

const (
	PageHome Page = iota
	PageDashboard
	PageAccounts
	PageSettings
	PageReceive
)
