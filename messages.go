package main

import (
	"token-dapp-tui/rpc"
	"token-dapp-tui/session"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// stateUpdateMsg carries one snapshot from the session controller
type stateUpdateMsg struct {
	state session.State
}

// sessionClosedMsg signals that the controller's update stream ended
type sessionClosedMsg struct{}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct{}

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// endpointConnectedMsg contains result of dialing a new RPC endpoint
type endpointConnectedMsg struct {
	client *rpc.Client
	err    error
}
