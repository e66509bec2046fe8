package main

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"token-dapp-tui/config"
	"token-dapp-tui/erc20"
	"token-dapp-tui/rpc"
	"token-dapp-tui/session"
	"token-dapp-tui/styles"
	"token-dapp-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// Prefunded accounts of a local Hardhat node. Account #0 receives the token
// supply when the boilerplate deploy script runs. Used when TOKEN_DAPP_KEYS
// is not set.
var defaultDevKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
}

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	// session controller and its latest snapshot
	sess    *session.Controller
	updates <-chan session.State
	st      session.State

	// dev wallet, bound to the active node
	devWallet *wallet.Local

	cfg        config.Config
	configPath string

	spin spinner.Model

	// transfer form (dashboard)
	showTransferForm bool
	transferForm     *huh.Form

	// transfer confirmation dialog
	showConfirmDialog  bool
	confirmTo          string
	confirmAmount      *big.Int
	confirmYesSelected bool

	// accounts page
	selectedAccount int
	importing       bool
	keyInput        textinput.Model
	importError     string
	importErrTime   time.Time

	// settings page
	settingsMode               string // "list", "add", "edit"
	selectedRPCIdx             int
	form                       *huh.Form
	showRPCDeleteDialog        bool
	deleteRPCDialogName        string
	deleteRPCDialogIdx         int
	deleteRPCDialogYesSelected bool
	rpcSwitching               bool

	// home form
	homeForm *huh.Form

	// receive page QR, rebuilt when the address changes
	receiveQR     string
	receiveQRAddr common.Address

	// clipboard feedback
	copiedMsg     string
	copiedMsgTime time.Time

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *strings.Builder
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// -------------------- INIT --------------------

// newModel wires the whole app together: config, node, dev wallet, session
// controller, and the UI widgets.
func newModel() model {
	// config path
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".token-dapp-config.json")

	cfg := config.LoadOrCreate(configPath)
	cfg.ApplyEnv()

	// One logger shared by the UI and the session controller. It writes into
	// a buffer the log panel renders; the panel being hidden only hides the
	// buffer, it never tears down the logger under the controller.
	logBuffer := &strings.Builder{}
	logger := newPanelLogger(logBuffer)

	// Bind the node. Dialing an http endpoint is lazy, so this does not
	// block startup even when the node is down.
	var node *rpc.Client
	if active := cfg.ActiveRPC(); active.URL != "" {
		if res := rpc.Connect(active.URL); res.Error == nil {
			node = res.Client
		} else {
			logger.Error("node dial failed", "url", active.URL, "err", res.Error)
		}
	}

	keys := config.Keys()
	if keys == nil {
		keys = defaultDevKeys
	}
	devWallet, err := wallet.NewLocal(node, keys, nil)
	if err != nil {
		// Bad key material: fall back to an empty wallet so the app still
		// starts and renders the no-wallet screen.
		logger.Error("dev wallet init failed", "err", err)
		devWallet, _ = wallet.NewLocal(node, nil, nil)
	}

	tokenAddr := common.HexToAddress(cfg.TokenAddress)
	factory := func(ctx context.Context) (session.TokenClient, error) {
		backend := devWallet.Backend()
		if backend == nil {
			return nil, errors.New("no node connection")
		}
		return erc20.NewClient(backend, tokenAddr, devWallet.TransactOpts)
	}

	sess := session.New(session.Config{
		AcceptedNetworkID: cfg.NetworkID,
		PollInterval:      time.Duration(cfg.PollIntervalMs) * time.Millisecond,
	}, devWallet, factory, logger)

	// private key input for the accounts page
	keyIn := textinput.New()
	keyIn.Placeholder = "Paste private key hex…"
	keyIn.Prompt = "Key: "
	keyIn.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	keyIn.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	keyIn.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	keyIn.EchoMode = textinput.EchoPassword
	keyIn.EchoCharacter = '•'
	keyIn.CharLimit = 66
	keyIn.Width = 68

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	// Initialize log spinner
	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	m := model{
		activePage:   config.PageDashboard,
		sess:         sess,
		updates:      sess.Updates(),
		devWallet:    devWallet,
		cfg:          cfg,
		configPath:   configPath,
		spin:         sp,
		keyInput:     keyIn,
		settingsMode: "list",
		logEnabled:   cfg.Logger,
		logger:       logger,
		logBuffer:    logBuffer,
		logViewport:  vp,
		logSpinner:   logSpin,
	}

	return m
}

// newPanelLogger builds the structured logger that feeds the log panel
func newPanelLogger(buf *strings.Builder) *log.Logger {
	logger := log.NewWithOptions(buf, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "",
	})
	logger.SetLevel(log.DebugLevel)
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(styles.CMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(styles.CAccent2),
		Message:   lipgloss.NewStyle().Foreground(styles.CText),
		Key:       lipgloss.NewStyle().Foreground(styles.CAccent),
		Value:     lipgloss.NewStyle().Foreground(styles.CText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(styles.CMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(styles.CAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(styles.CWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(styles.CErr).SetString("ERROR"),
		},
	})
	return logger
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, waitForState(m.updates)}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	return tea.Batch(cmds...)
}
