package rpc

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestConnect(t *testing.T) {
	rpcURL := os.Getenv("TOKEN_DAPP_RPC_URL")
	if rpcURL == "" {
		t.Skip("TOKEN_DAPP_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := Connect(rpcURL)

		if result.Error != nil {
			t.Fatalf("Failed to connect to RPC: %v", result.Error)
		}

		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}

		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		chainID, err := result.Client.ChainID(ctx)
		if err != nil {
			t.Errorf("Failed to get chain ID: %v", err)
		} else {
			t.Logf("✓ Connected to chain ID: %s", chainID.String())
		}
	})

	t.Run("connection with timeout", func(t *testing.T) {
		result := ConnectWithTimeout(rpcURL, 10*time.Second)

		if result.Error != nil {
			t.Fatalf("Failed to connect with custom timeout: %v", result.Error)
		}

		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		result := Connect("not-a-valid-url")

		// For invalid URLs, we expect either an error or a nil client
		// The exact behavior may vary by URL format
		if result.Error == nil && result.Client != nil {
			t.Log("Warning: Invalid URL accepted by RPC client (may depend on URL format)")
		}
	})
}

func TestGenerateQRCode(t *testing.T) {
	qr := GenerateQRCode("ethereum:0x5FbDB2315678afecb367f032d93F642f64180aa3")

	if qr == "" {
		t.Fatal("QR code output is empty")
	}

	lines := 0
	for _, c := range qr {
		if c == '\n' {
			lines++
		}
	}
	if lines < 10 {
		t.Errorf("QR code looks too small: %d lines", lines)
	}
}

func TestNetworkVersion(t *testing.T) {
	rpcURL := os.Getenv("TOKEN_DAPP_RPC_URL")
	if rpcURL == "" {
		t.Skip("TOKEN_DAPP_RPC_URL not set, skipping network version test")
	}

	result := Connect(rpcURL)
	if result.Error != nil {
		t.Fatalf("Failed to connect: %v", result.Error)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	version, err := result.Client.NetworkVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to get network version: %v", err)
	}

	if version == "" {
		t.Error("Network version is empty")
	}

	for _, c := range version {
		if c < '0' || c > '9' {
			t.Errorf("Network version should be a decimal string, got %q", version)
			break
		}
	}

	t.Logf("✓ Network version: %s", version)
}
